package entity

import "time"

const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
)

const (
	StatusActive   = "active"
	StatusLocked   = "locked"
	StatusDisabled = "disabled"
)

// Account is a row of the `accounts` table. Identifier is unique and compared
// case-insensitively.
type Account struct {
	ID                  int64      `db:"id"`
	Role                string     `db:"role"`
	Identifier          string     `db:"identifier"`
	IdentifierKind      string     `db:"identifier_kind"`
	DisplayName         string     `db:"display_name"`
	PasswordHash        string     `db:"password_hash"`
	PasswordAlgo        string     `db:"password_algo"`
	Status              string     `db:"status"`
	LoginFailedAttempts int        `db:"login_failed_attempts"`
	LockedUntil         *time.Time `db:"locked_until"`
	LastLoginAt         *time.Time `db:"last_login_at"`
	Version             int64      `db:"version"`
	CreatedAt           time.Time  `db:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"`
}
