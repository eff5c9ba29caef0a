// Package credential holds the login credential model and its shape rules.
//
// Shape validation is syntactic only. Nothing here touches the network or disk,
// so the same rules back the portal forms, the CLI and the gateway client.
package credential

import (
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	PasswordMinLen = 6
	PasswordMaxLen = 50
)

var (
	registrationNumberRe = regexp.MustCompile(`^[0-9]{11}$`)
	employeeIDRe         = regexp.MustCompile(`^[A-Z]{2}[0-9]{4,6}$`)
	emailRe              = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// validator tags, one per identifier kind
var shapeTags = map[IdentifierKind]string{
	RegistrationNumber: "registration_number",
	EmployeeID:         "employee_id",
	Email:              "login_email",
}

var shapeMessages = map[IdentifierKind]string{
	RegistrationNumber: "Registration number must be exactly 11 digits (e.g., 24104156040)",
	EmployeeID:         "Employee ID must be 2 uppercase letters followed by 4-6 digits (e.g., CS123456)",
	Email:              "Please enter a valid email address",
}

const (
	MsgPasswordTooShort = "Password must be at least 6 characters"
	MsgPasswordTooLong  = "Password must be at most 50 characters"
	msgUnknownKind      = "Unsupported identifier type"
)

// LoginCredential is one submission as typed by the user. It lives only for the
// duration of a submit.
type LoginCredential struct {
	Kind       IdentifierKind
	Identifier string
	Password   string
	RememberMe bool
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	mustRegister(v, shapeTags[RegistrationNumber], registrationNumberRe.MatchString)
	mustRegister(v, shapeTags[EmployeeID], employeeIDRe.MatchString)
	mustRegister(v, shapeTags[Email], isEmail)
	return v
}

// isEmail applies emailRe and also rejects Unicode whitespace, which RE2's \s
// leaves out.
func isEmail(s string) bool {
	return emailRe.MatchString(s) && strings.IndexFunc(s, unicode.IsSpace) < 0
}

func mustRegister(v *validator.Validate, tag string, match func(string) bool) {
	err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return match(fl.Field().String())
	})
	if err != nil {
		panic("credential: register " + tag + ": " + err.Error())
	}
}

// ShapeMessage returns the fixed rejection copy for a kind.
func ShapeMessage(kind IdentifierKind) string {
	if m, ok := shapeMessages[kind]; ok {
		return m
	}
	return msgUnknownKind
}

// ValidateIdentifier checks raw against the rule of kind. The kind is always
// chosen by the caller; the input is never inspected to guess it.
func ValidateIdentifier(kind IdentifierKind, raw string) error {
	tag, ok := shapeTags[kind]
	if !ok {
		return &ShapeError{Field: FieldIdentifier, Message: msgUnknownKind}
	}
	if err := validate.Var(raw, "required,"+tag); err != nil {
		return &ShapeError{Field: FieldIdentifier, Message: shapeMessages[kind]}
	}
	return nil
}

// ValidatePassword enforces PasswordMinLen <= length <= PasswordMaxLen, with
// length counted in code points. No character class rules apply.
func ValidatePassword(pw string) error {
	err := validate.Var(pw, "min=6,max=50")
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "max" {
		return &ShapeError{Field: FieldPassword, Message: MsgPasswordTooLong}
	}
	return &ShapeError{Field: FieldPassword, Message: MsgPasswordTooShort}
}

// Validate runs every field rule and returns nil or FieldErrors.
func Validate(c LoginCredential) error {
	fe := FieldErrors{}
	if err := ValidateIdentifier(c.Kind, c.Identifier); err != nil {
		fe.add(err)
	}
	if err := ValidatePassword(c.Password); err != nil {
		fe.add(err)
	}
	if len(fe) == 0 {
		return nil
	}
	return fe
}
