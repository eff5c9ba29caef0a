package portal

import (
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
)

// Form is one login page. Its name doubles as the remember-me namespace and
// the metrics label.
type Form struct {
	Name  string
	Title string
	Role  string
	// Kinds lists the identifier kinds the form offers; the first is the default.
	Kinds []credential.IdentifierKind
}

var forms = map[string]Form{
	"student": {
		Name:  "student",
		Title: "Student Login",
		Role:  entity.RoleStudent,
		Kinds: []credential.IdentifierKind{credential.RegistrationNumber},
	},
	"faculty": {
		Name:  "faculty",
		Title: "Faculty Login",
		Role:  entity.RoleFaculty,
		Kinds: []credential.IdentifierKind{credential.EmployeeID, credential.Email},
	},
}

// LookupForm returns the form called name.
func LookupForm(name string) (Form, bool) {
	f, ok := forms[name]
	return f, ok
}

// FormNames returns the known form names.
func FormNames() []string {
	return []string{"student", "faculty"}
}

func (f Form) allows(k credential.IdentifierKind) bool {
	for _, fk := range f.Kinds {
		if fk == k {
			return true
		}
	}
	return false
}

// KindFor picks the kind posted or requested by the user, falling back to
// the form default.
func (f Form) KindFor(raw string) (credential.IdentifierKind, bool) {
	if raw == "" {
		return f.Kinds[0], true
	}
	k, err := credential.ParseKind(raw)
	if err != nil || !f.allows(k) {
		return f.Kinds[0], false
	}
	return k, true
}

// PrefillKind chooses which kind to preselect for a remembered identifier:
// the first offered kind whose rule accepts it.
func (f Form) PrefillKind(identifier string) credential.IdentifierKind {
	for _, k := range f.Kinds {
		if credential.ValidateIdentifier(k, identifier) == nil {
			return k
		}
	}
	return f.Kinds[0]
}
