package user

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/repo"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestService(t *testing.T) (*Service, *userrepo.MemoryRepo, *clock) {
	t.Helper()
	c := &clock{t: time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)}
	r := userrepo.NewMemoryRepo().WithClock(c.now)
	svc := NewService(r, BcryptHasher{Cost: bcrypt.MinCost}, Config{MaxFailed: 3, LockMinutes: 10}, nil)
	svc.now = c.now
	next := int64(1000)
	svc.newID = func() int64 { next++; return next }
	return svc, r, c
}

func mustSignup(t *testing.T, svc *Service, in SignupInput) *entity.Account {
	t.Helper()
	a, err := svc.Signup(context.Background(), in)
	require.NoError(t, err)
	return a
}

var student = SignupInput{
	Role:        entity.RoleStudent,
	Kind:        credential.RegistrationNumber,
	Identifier:  "24104156040",
	DisplayName: "Asha Rao",
	Password:    "secret1",
}

func TestSignup(t *testing.T) {
	svc, _, _ := newTestService(t)

	a := mustSignup(t, svc, student)
	assert.Equal(t, int64(1001), a.ID)
	assert.Equal(t, entity.StatusActive, a.Status)
	assert.Equal(t, "registration_number", a.IdentifierKind)
	assert.NotEqual(t, "secret1", a.PasswordHash)
	assert.Equal(t, "bcrypt:4", a.PasswordAlgo)

	email := mustSignup(t, svc, SignupInput{Role: entity.RoleFaculty, Kind: credential.Email, Identifier: " Dean@Campus.EDU ", Password: "secret1"})
	assert.Equal(t, "dean@campus.edu", email.Identifier)
}

func TestSignupRejects(t *testing.T) {
	tests := []struct {
		name string
		in   SignupInput
		err  error
	}{
		{"unknown role", SignupInput{Role: "admin", Kind: credential.Email, Identifier: "a@b.co", Password: "secret1"}, ErrInvalidRole},
		{"student with email", SignupInput{Role: entity.RoleStudent, Kind: credential.Email, Identifier: "a@b.co", Password: "secret1"}, ErrInvalidAccount},
		{"faculty with registration number", SignupInput{Role: entity.RoleFaculty, Kind: credential.RegistrationNumber, Identifier: "24104156040", Password: "secret1"}, ErrInvalidAccount},
		{"bad employee id", SignupInput{Role: entity.RoleFaculty, Kind: credential.EmployeeID, Identifier: "cs12", Password: "secret1"}, ErrInvalidAccount},
		{"short password", SignupInput{Role: entity.RoleStudent, Kind: credential.RegistrationNumber, Identifier: "24104156040", Password: "123"}, ErrInvalidAccount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService(t)
			_, err := svc.Signup(context.Background(), tt.in)
			assert.ErrorIs(t, err, tt.err)
		})
	}

	t.Run("duplicate", func(t *testing.T) {
		svc, _, _ := newTestService(t)
		mustSignup(t, svc, student)
		_, err := svc.Signup(context.Background(), student)
		assert.ErrorIs(t, err, ErrAccountExists)
	})
}

func TestAuthenticatePassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	mustSignup(t, svc, student)
	ctx := context.Background()

	a, err := svc.AuthenticatePassword(ctx, "24104156040", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Rao", a.DisplayName)

	_, err = svc.AuthenticatePassword(ctx, "24104156040", "wrong-pw")
	assert.ErrorIs(t, err, ErrBadCredentials)

	_, err = svc.AuthenticatePassword(ctx, "24104156099", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials, "unknown identifier looks like a bad password")

	_, err = svc.AuthenticatePassword(ctx, "   ", "secret1")
	assert.ErrorIs(t, err, ErrBadCredentials)
}

func TestAuthenticatePasswordLockout(t *testing.T) {
	svc, r, c := newTestService(t)
	a := mustSignup(t, svc, student)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.AuthenticatePassword(ctx, a.Identifier, "wrong-pw")
		require.ErrorIs(t, err, ErrBadCredentials)
	}
	_, err := svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	assert.ErrorIs(t, err, ErrLocked, "correct password while locked")

	c.advance(11 * time.Minute)
	got, err := svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	require.NoError(t, err)
	assert.Zero(t, got.LoginFailedAttempts)

	stored, err := r.GetByIdentifier(ctx, a.Identifier)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusActive, stored.Status)
	require.NotNil(t, stored.LastLoginAt)
}

func TestAuthenticatePasswordSuccessResetsCounter(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := mustSignup(t, svc, student)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, _ = svc.AuthenticatePassword(ctx, a.Identifier, "wrong-pw")
	}
	_, err := svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	require.NoError(t, err)

	// two more failures stay under the threshold of three
	for i := 0; i < 2; i++ {
		_, _ = svc.AuthenticatePassword(ctx, a.Identifier, "wrong-pw")
	}
	_, err = svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	assert.NoError(t, err)
}

func TestAuthenticatePasswordDisabled(t *testing.T) {
	svc, _, _ := newTestService(t)
	a := mustSignup(t, svc, student)
	ctx := context.Background()

	require.NoError(t, svc.SetDisabled(ctx, a.ID, true))
	_, err := svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	assert.ErrorIs(t, err, ErrDisabled)

	require.NoError(t, svc.SetDisabled(ctx, a.ID, false))
	_, err = svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	assert.NoError(t, err)

	assert.ErrorIs(t, svc.SetDisabled(ctx, 42, true), ErrNotFound)
}

func TestAuthenticatePasswordRehash(t *testing.T) {
	svc, r, _ := newTestService(t)
	a := mustSignup(t, svc, student)
	ctx := context.Background()

	svc.hasher = BcryptHasher{Cost: bcrypt.MinCost + 1}
	got, err := svc.AuthenticatePassword(ctx, a.Identifier, "secret1")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt:5", got.PasswordAlgo)

	stored, _ := r.GetByIdentifier(ctx, a.Identifier)
	cost, err := bcrypt.Cost([]byte(stored.PasswordHash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.MinCost+1, cost)
	assert.Equal(t, int64(2), stored.Version)
}

// MockRepo lets a test replace single repository calls.
type MockRepo struct {
	*userrepo.MemoryRepo
	GetByIdentifierFunc func(ctx context.Context, identifier string) (*entity.Account, error)
	ResetFunc           func(ctx context.Context, id int64) error
}

func (m *MockRepo) GetByIdentifier(ctx context.Context, identifier string) (*entity.Account, error) {
	if m.GetByIdentifierFunc != nil {
		return m.GetByIdentifierFunc(ctx, identifier)
	}
	return m.MemoryRepo.GetByIdentifier(ctx, identifier)
}

func (m *MockRepo) ResetLoginSuccess(ctx context.Context, id int64) error {
	if m.ResetFunc != nil {
		return m.ResetFunc(ctx, id)
	}
	return m.MemoryRepo.ResetLoginSuccess(ctx, id)
}

func TestAuthenticatePasswordStorageErrors(t *testing.T) {
	boom := errors.New("connection reset")

	t.Run("lookup", func(t *testing.T) {
		m := &MockRepo{MemoryRepo: userrepo.NewMemoryRepo(), GetByIdentifierFunc: func(context.Context, string) (*entity.Account, error) {
			return nil, boom
		}}
		svc := NewService(m, BcryptHasher{Cost: bcrypt.MinCost}, Config{}, nil)
		_, err := svc.AuthenticatePassword(context.Background(), "24104156040", "secret1")
		assert.ErrorIs(t, err, boom)
	})

	t.Run("reset", func(t *testing.T) {
		m := &MockRepo{MemoryRepo: userrepo.NewMemoryRepo(), ResetFunc: func(context.Context, int64) error { return boom }}
		svc := NewService(m, BcryptHasher{Cost: bcrypt.MinCost}, Config{}, nil)
		mustSignup(t, svc, student)
		_, err := svc.AuthenticatePassword(context.Background(), "24104156040", "secret1")
		assert.ErrorIs(t, err, boom)
	})
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOGIN_MAX_FAILED", "")
	t.Setenv("LOGIN_LOCK_MINUTES", "0")
	t.Setenv("GATEWAY_ADMIN_KEY", "k")
	assert.Equal(t, Config{MaxFailed: 6, LockMinutes: 15, AdminKey: "k"}, ConfigFromEnv())

	t.Setenv("LOGIN_MAX_FAILED", "4")
	t.Setenv("LOGIN_LOCK_MINUTES", "30")
	cfg := ConfigFromEnv()
	assert.Equal(t, 4, cfg.MaxFailed)
	assert.Equal(t, 30, cfg.LockMinutes)
}

func TestBcryptHasherNeedsRehash(t *testing.T) {
	low := BcryptHasher{Cost: bcrypt.MinCost}
	h, algo, err := low.Hash("secret1")
	require.NoError(t, err)
	assert.Equal(t, "bcrypt:4", algo)
	assert.True(t, low.Verify(h, "secret1"))
	assert.False(t, low.Verify(h, "secret2"))
	assert.False(t, low.NeedsRehash(h))
	assert.True(t, BcryptHasher{Cost: bcrypt.MinCost + 2}.NeedsRehash(h))
	assert.False(t, low.NeedsRehash("not-a-hash"))
}
