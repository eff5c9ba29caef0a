package credential

import (
	"errors"
	"sort"
	"strings"
)

// ErrShape marks every rejection produced before a credential leaves the form.
var ErrShape = errors.New("credential shape invalid")

// Field names used in FieldErrors and ShapeError.
const (
	FieldIdentifier = "identifier"
	FieldPassword   = "password"
)

// ShapeError is a single field rejection with fixed, user facing copy.
type ShapeError struct {
	Field   string
	Message string
}

func (e *ShapeError) Error() string { return e.Field + ": " + e.Message }

func (e *ShapeError) Unwrap() error { return ErrShape }

// FieldErrors collects one message per rejected field.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[k])
	}
	return strings.Join(parts, "; ")
}

func (fe FieldErrors) Unwrap() error { return ErrShape }

func (fe FieldErrors) add(err error) {
	var se *ShapeError
	if errors.As(err, &se) {
		fe[se.Field] = se.Message
	}
}
