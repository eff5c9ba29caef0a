package credential

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name  string
		kind  IdentifierKind
		value string
		ok    bool
	}{
		{"registration number 11 digits", RegistrationNumber, "24104156040", true},
		{"registration number 10 digits", RegistrationNumber, "2410415604", false},
		{"registration number 12 digits", RegistrationNumber, "241041560401", false},
		{"registration number trailing letter", RegistrationNumber, "2410415604a", false},
		{"registration number trailing newline", RegistrationNumber, "24104156040\n", false},
		{"registration number padded", RegistrationNumber, " 24104156040", false},
		{"registration number empty", RegistrationNumber, "", false},
		{"registration number whitespace", RegistrationNumber, "           ", false},

		{"employee id six digits", EmployeeID, "CS123456", true},
		{"employee id four digits", EmployeeID, "EE1234", true},
		{"employee id lowercase prefix", EmployeeID, "cs123456", false},
		{"employee id mixed case prefix", EmployeeID, "Cs123456", false},
		{"employee id too many digits", EmployeeID, "CS12345678", false},
		{"employee id three digits", EmployeeID, "CS123", false},
		{"employee id three letters", EmployeeID, "CSE1234", false},
		{"employee id empty", EmployeeID, "", false},
		{"employee id whitespace", EmployeeID, "  \t ", false},

		{"email simple", Email, "a@b.co", true},
		{"email with subdomain", Email, "dean@mail.campus.edu", true},
		{"email no dot after at", Email, "a@b", false},
		{"email no at", Email, "ab.co", false},
		{"email two ats", Email, "a@b@c.co", false},
		{"email with space", Email, "a b@c.co", false},
		{"email empty", Email, "", false},
		{"email whitespace", Email, "   ", false},
		{"email vertical tab", Email, "a\vb@c.co", false},
		{"email no-break space", Email, "a\u00a0b@c.co", false},
		{"email line separator", Email, "a@b.co\u2028", false},
		{"email vertical tabs only", Email, "\v@\v.\v", false},
		{"email no-break spaces only", Email, "\u00a0@\u00a0.\u00a0", false},
		{"email ideographic space", Email, "a@b\u3000c.co", false},
		{"email unicode letters", Email, "josé@universidad.es", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateIdentifier(tt.kind, tt.value)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShape))

			var se *ShapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, FieldIdentifier, se.Field)
			assert.Equal(t, ShapeMessage(tt.kind), se.Message)
		})
	}
}

func TestValidateIdentifierRegistrationNumberDigits(t *testing.T) {
	for n := 0; n <= 15; n++ {
		value := strings.Repeat("7", n)
		err := ValidateIdentifier(RegistrationNumber, value)
		if n == 11 {
			assert.NoError(t, err, "length %d", n)
		} else {
			assert.Error(t, err, "length %d", n)
		}
	}
}

func TestValidateIdentifierUnknownKind(t *testing.T) {
	err := ValidateIdentifier(IdentifierKind(42), "24104156040")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrShape))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name string
		pw   string
		msg  string
	}{
		{"empty", "", MsgPasswordTooShort},
		{"length 5", strings.Repeat("x", 5), MsgPasswordTooShort},
		{"length 6", strings.Repeat("x", 6), ""},
		{"length 50", strings.Repeat("x", 50), ""},
		{"length 51", strings.Repeat("x", 51), MsgPasswordTooLong},
		{"six multibyte runes", "ñññððð", ""},
		{"spaces only", "      ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.pw)
			if tt.msg == "" {
				assert.NoError(t, err)
				return
			}
			var se *ShapeError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, FieldPassword, se.Field)
			assert.Equal(t, tt.msg, se.Message)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		err := Validate(LoginCredential{Kind: RegistrationNumber, Identifier: "24104156040", Password: "secret1"})
		assert.NoError(t, err)
	})

	t.Run("reports every field", func(t *testing.T) {
		err := Validate(LoginCredential{Kind: EmployeeID, Identifier: "cs123456", Password: "abc"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrShape))

		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Len(t, fe, 2)
		assert.Equal(t, ShapeMessage(EmployeeID), fe[FieldIdentifier])
		assert.Equal(t, MsgPasswordTooShort, fe[FieldPassword])
	})

	t.Run("password only", func(t *testing.T) {
		err := Validate(LoginCredential{Kind: Email, Identifier: "a@b.co", Password: strings.Repeat("p", 51)})
		var fe FieldErrors
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, FieldErrors{FieldPassword: MsgPasswordTooLong}, fe)
	})
}

func TestParseKind(t *testing.T) {
	for _, k := range []IdentifierKind{RegistrationNumber, EmployeeID, Email} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	got, err := ParseKind(" Employee_ID ")
	require.NoError(t, err)
	assert.Equal(t, EmployeeID, got)

	_, err = ParseKind("passport")
	assert.ErrorIs(t, err, ErrUnknownKind)
}
