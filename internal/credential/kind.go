package credential

import (
	"errors"
	"strings"
)

// IdentifierKind selects which shape rule applies to an identifier.
type IdentifierKind int

const (
	RegistrationNumber IdentifierKind = iota + 1
	EmployeeID
	Email
)

var ErrUnknownKind = errors.New("unknown identifier kind")

var kindNames = map[IdentifierKind]string{
	RegistrationNumber: "registration_number",
	EmployeeID:         "employee_id",
	Email:              "email",
}

func (k IdentifierKind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "unknown"
}

// Label is the human readable field name used in form copy.
func (k IdentifierKind) Label() string {
	switch k {
	case RegistrationNumber:
		return "Registration Number"
	case EmployeeID:
		return "Employee ID"
	case Email:
		return "Email"
	default:
		return "Identifier"
	}
}

// Example returns a sample value shown as the input placeholder.
func (k IdentifierKind) Example() string {
	switch k {
	case RegistrationNumber:
		return "24104156040"
	case EmployeeID:
		return "CS123456"
	case Email:
		return "name@example.edu"
	default:
		return ""
	}
}

// ParseKind maps the wire name of a kind (as posted by forms and CLI flags) back to it.
func ParseKind(s string) (IdentifierKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, n := range kindNames {
		if n == s {
			return k, nil
		}
	}
	return 0, ErrUnknownKind
}
