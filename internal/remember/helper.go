// Package remember implements the "remember me" slot of the login forms.
//
// The password is base64 encoded before it is stored. That is obfuscation
// only: anyone able to read the store can recover the password.
package remember

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// Credential is what a Helper hands back when something was remembered.
type Credential struct {
	Identifier string
	Password   string
}

// Helper reads and writes the single remembered credential of one namespace.
type Helper struct {
	store         Store
	namespace     string
	identifierKey string
	passwordKey   string
}

// New returns a Helper whose two keys are prefixed with namespace, so forms
// sharing one store do not overwrite each other.
func New(store Store, namespace string) *Helper {
	idKey, pwKey := Keys(namespace)
	return &Helper{store: store, namespace: namespace, identifierKey: idKey, passwordKey: pwKey}
}

// Keys returns the identifier and password keys of namespace.
func Keys(namespace string) (identifierKey, passwordKey string) {
	return namespace + "_saved_identifier", namespace + "_saved_password"
}

func (h *Helper) Namespace() string { return h.namespace }

// Save overwrites the slot unconditionally. If the password cannot be written
// the identifier is removed again, so the slot never pairs the new identifier
// with an older password.
func (h *Helper) Save(identifier, password string) error {
	if err := h.store.Set(h.identifierKey, identifier); err != nil {
		return fmt.Errorf("save identifier: %w", err)
	}
	if err := h.store.Set(h.passwordKey, Encode(password)); err != nil {
		if derr := h.store.Delete(h.identifierKey); derr != nil {
			return errors.Join(fmt.Errorf("save password: %w", err), fmt.Errorf("roll back identifier: %w", derr))
		}
		return fmt.Errorf("save password: %w", err)
	}
	return nil
}

// Load returns the remembered pair. A missing key or an undecodable password
// reads as nothing saved.
func (h *Helper) Load() (Credential, bool) {
	id, ok := h.store.Get(h.identifierKey)
	if !ok {
		return Credential{}, false
	}
	enc, ok := h.store.Get(h.passwordKey)
	if !ok {
		return Credential{}, false
	}
	pw, err := Decode(enc)
	if err != nil {
		return Credential{}, false
	}
	return Credential{Identifier: id, Password: pw}, true
}

// Clear removes both keys. Clearing an empty slot is not an error.
func (h *Helper) Clear() error {
	if err := h.store.Delete(h.identifierKey); err != nil {
		return fmt.Errorf("clear identifier: %w", err)
	}
	if err := h.store.Delete(h.passwordKey); err != nil {
		return fmt.Errorf("clear password: %w", err)
	}
	return nil
}

// Encode is the reversible password transform applied before storage.
func Encode(password string) string {
	return base64.StdEncoding.EncodeToString([]byte(password))
}

// Decode reverses Encode.
func Decode(encoded string) (string, error) {
	b, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
