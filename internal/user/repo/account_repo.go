package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
)

var (
	ErrNotFound  = errors.New("account not found")
	ErrDuplicate = errors.New("account identifier already taken")
)

const uniqueViolation = "23505"

// AccountRepo provides data access for the accounts table using sqlx.
type AccountRepo struct {
	db *sqlx.DB
}

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{db: db} }

// EnsureTable creates the accounts table if not exists (idempotent).
func (r *AccountRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE EXTENSION IF NOT EXISTS citext;
CREATE TABLE IF NOT EXISTS accounts (
  id BIGINT PRIMARY KEY,
  role TEXT NOT NULL,
  identifier CITEXT NOT NULL UNIQUE,
  identifier_kind TEXT NOT NULL,
  display_name TEXT NOT NULL DEFAULT '',
  password_hash TEXT NOT NULL,
  password_algo TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  login_failed_attempts INT NOT NULL DEFAULT 0,
  locked_until TIMESTAMPTZ,
  last_login_at TIMESTAMPTZ,
  version BIGINT NOT NULL DEFAULT 1,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_accounts_role ON accounts(role);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a; the caller assigns the ID.
func (r *AccountRepo) Create(ctx context.Context, a *entity.Account) error {
	const q = `INSERT INTO accounts (id,role,identifier,identifier_kind,display_name,password_hash,password_algo,status,version)
		VALUES (:id,:role,:identifier,:identifier_kind,:display_name,:password_hash,:password_algo,:status,:version)
		RETURNING created_at, updated_at`
	rows, err := r.db.NamedQueryContext(ctx, q, a)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicate
		}
		return err
	}
	defer rows.Close()
	if rows.Next() {
		return rows.Scan(&a.CreatedAt, &a.UpdatedAt)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	return errors.New("insert returned no row")
}

// GetByIdentifier returns the account for identifier (case-insensitive) or ErrNotFound.
func (r *AccountRepo) GetByIdentifier(ctx context.Context, identifier string) (*entity.Account, error) {
	const q = `SELECT id, role, identifier, identifier_kind, display_name, password_hash, password_algo,
		status, login_failed_attempts, locked_until, last_login_at, version, created_at, updated_at
	  FROM accounts WHERE identifier=$1`
	var row entity.Account
	if err := r.db.GetContext(ctx, &row, q, identifier); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// IncrementFailedLogin increments the failure counter atomically and returns new value.
func (r *AccountRepo) IncrementFailedLogin(ctx context.Context, id int64) (int, error) {
	const q = `UPDATE accounts SET login_failed_attempts = login_failed_attempts + 1, updated_at=NOW() WHERE id=$1 RETURNING login_failed_attempts`
	var v int
	if err := r.db.GetContext(ctx, &v, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return v, nil
}

// LockIfThreshold locks the account if attempts >= threshold and it is currently active.
func (r *AccountRepo) LockIfThreshold(ctx context.Context, id int64, threshold, lockMinutes int) (bool, error) {
	const q = `UPDATE accounts SET status='locked', locked_until = NOW() + make_interval(mins => $2), updated_at=NOW()
              WHERE id=$1 AND status='active' AND login_failed_attempts >= $3 RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id, lockMinutes, threshold)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResetLoginSuccess resets failure metrics on successful authentication.
func (r *AccountRepo) ResetLoginSuccess(ctx context.Context, id int64) error {
	const q = `UPDATE accounts SET login_failed_attempts=0, last_login_at=NOW(), locked_until=NULL, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id)
	return err
}

// UnlockIfExpired sets status back to active if locked_until passed.
func (r *AccountRepo) UnlockIfExpired(ctx context.Context, id int64) (bool, error) {
	const q = `UPDATE accounts SET status='active', locked_until=NULL, login_failed_attempts=0, updated_at=NOW()
               WHERE id=$1 AND status='locked' AND locked_until IS NOT NULL AND locked_until < NOW() RETURNING 1`
	var one int
	err := r.db.GetContext(ctx, &one, q, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdatePassword replaces the hash and bumps version so older session tokens
// can be told apart.
func (r *AccountRepo) UpdatePassword(ctx context.Context, id int64, hash, algo string) error {
	const q = `UPDATE accounts SET password_hash=$2, password_algo=$3, version=version+1, updated_at=NOW() WHERE id=$1`
	_, err := r.db.ExecContext(ctx, q, id, hash, algo)
	return err
}

// SetStatus sets status to active or disabled and clears any lock.
func (r *AccountRepo) SetStatus(ctx context.Context, id int64, status string) error {
	const q = `UPDATE accounts SET status=$2, locked_until=NULL, login_failed_attempts=0, updated_at=NOW() WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, status)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
