package user

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
	userrepo "github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-campus-portal/pkg/utilities"
)

// PasswordHasher defines minimal hashing interface (abstract so we can swap to argon2 later).
type PasswordHasher interface {
	Hash(pw string) (hash string, algo string, err error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", "", err
	}
	return string(h), fmt.Sprintf("bcrypt:%d", b.cost()), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports hashes made with a lower cost than configured.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	return err == nil && c < b.cost()
}

// Repo is the storage the service needs; repo.AccountRepo and repo.MemoryRepo
// both satisfy it.
type Repo interface {
	Create(ctx context.Context, a *entity.Account) error
	GetByIdentifier(ctx context.Context, identifier string) (*entity.Account, error)
	IncrementFailedLogin(ctx context.Context, id int64) (int, error)
	LockIfThreshold(ctx context.Context, id int64, threshold, lockMinutes int) (bool, error)
	ResetLoginSuccess(ctx context.Context, id int64) error
	UnlockIfExpired(ctx context.Context, id int64) (bool, error)
	UpdatePassword(ctx context.Context, id int64, hash, algo string) error
	SetStatus(ctx context.Context, id int64, status string) error
}

type Config struct {
	MaxFailed   int
	LockMinutes int
	AdminKey    string
}

// ConfigFromEnv reads LOGIN_MAX_FAILED, LOGIN_LOCK_MINUTES and GATEWAY_ADMIN_KEY.
func ConfigFromEnv() Config {
	cfg := Config{MaxFailed: 6, LockMinutes: 15, AdminKey: os.Getenv("GATEWAY_ADMIN_KEY")}
	if v, err := strconv.Atoi(os.Getenv("LOGIN_MAX_FAILED")); err == nil && v > 0 {
		cfg.MaxFailed = v
	}
	if v, err := strconv.Atoi(os.Getenv("LOGIN_LOCK_MINUTES")); err == nil && v > 0 {
		cfg.LockMinutes = v
	}
	return cfg
}

// Service orchestrates authentication and account lifecycle flows.
type Service struct {
	repo   Repo
	hasher PasswordHasher
	logger *zap.SugaredLogger
	newID  func() int64
	now    func() time.Time
	// configuration knobs
	MaxFailed   int
	LockMinutes int
}

func NewService(r Repo, hasher PasswordHasher, cfg Config, logger *zap.SugaredLogger) *Service {
	if hasher == nil {
		hasher = BcryptHasher{Cost: 12}
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if cfg.MaxFailed <= 0 {
		cfg.MaxFailed = 6
	}
	if cfg.LockMinutes <= 0 {
		cfg.LockMinutes = 15
	}
	return &Service{
		repo:        r,
		hasher:      hasher,
		logger:      logger,
		newID:       utilities.NewSnowflakeID,
		now:         time.Now,
		MaxFailed:   cfg.MaxFailed,
		LockMinutes: cfg.LockMinutes,
	}
}

var (
	ErrLocked         = errors.New("account locked")
	ErrDisabled       = errors.New("account disabled")
	ErrBadCredentials = errors.New("invalid credentials")
	ErrInvalidRole    = errors.New("invalid role")
	ErrInvalidAccount = errors.New("invalid account")
	ErrAccountExists  = errors.New("account already exists")
	ErrNotFound       = errors.New("account not found")
)

// AuthenticatePassword checks identifier and password. Unknown identifiers
// and wrong passwords both yield ErrBadCredentials. On success the failure
// counter is reset and the account returned.
func (s *Service) AuthenticatePassword(ctx context.Context, identifier, password string) (*entity.Account, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, ErrBadCredentials
	}

	a, err := s.repo.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return nil, ErrBadCredentials
		} // avoid account enumeration
		return nil, err
	}

	// expired lock auto-unlock attempt
	if a.Status == entity.StatusLocked && a.LockedUntil != nil && a.LockedUntil.Before(s.now()) {
		if unlocked, _ := s.repo.UnlockIfExpired(ctx, a.ID); unlocked {
			a.Status = entity.StatusActive
			a.LockedUntil = nil
			a.LoginFailedAttempts = 0
		}
	}

	switch a.Status {
	case entity.StatusLocked:
		return nil, ErrLocked
	case entity.StatusDisabled:
		return nil, ErrDisabled
	}

	if !s.hasher.Verify(a.PasswordHash, password) {
		n, incErr := s.repo.IncrementFailedLogin(ctx, a.ID)
		if incErr != nil {
			s.logger.Warnw("increment failed login", "account_id", a.ID, "err", incErr)
			return nil, ErrBadCredentials
		}
		if locked, lockErr := s.repo.LockIfThreshold(ctx, a.ID, s.MaxFailed, s.LockMinutes); lockErr != nil {
			s.logger.Warnw("lock account", "account_id", a.ID, "err", lockErr)
		} else if locked {
			s.logger.Infow("account locked", "account_id", a.ID, "failed_attempts", n, "minutes", s.LockMinutes)
		}
		return nil, ErrBadCredentials
	}

	if err := s.repo.ResetLoginSuccess(ctx, a.ID); err != nil {
		return nil, err
	}
	a.LoginFailedAttempts = 0

	if s.hasher.NeedsRehash(a.PasswordHash) {
		if newHash, algo, hErr := s.hasher.Hash(password); hErr == nil {
			if err := s.repo.UpdatePassword(ctx, a.ID, newHash, algo); err != nil {
				s.logger.Warnw("rehash password", "account_id", a.ID, "err", err)
			} else {
				a.PasswordHash, a.PasswordAlgo = newHash, algo
				a.Version++
			}
		}
	}
	return a, nil
}

// SignupInput describes a new account. Kind must be one the role accepts:
// students sign in with a registration number, faculty with an employee ID
// or an email address.
type SignupInput struct {
	Role        string
	Kind        credential.IdentifierKind
	Identifier  string
	DisplayName string
	Password    string
}

var roleKinds = map[string][]credential.IdentifierKind{
	entity.RoleStudent: {credential.RegistrationNumber},
	entity.RoleFaculty: {credential.EmployeeID, credential.Email},
}

// Signup creates an active account with a hashed password. The identifier and
// password must pass the same shape rules the login forms apply.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*entity.Account, error) {
	kinds, ok := roleKinds[in.Role]
	if !ok {
		return nil, ErrInvalidRole
	}
	allowed := false
	for _, k := range kinds {
		if k == in.Kind {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s cannot sign in with %s", ErrInvalidAccount, in.Role, in.Kind)
	}
	identifier := strings.TrimSpace(in.Identifier)
	if in.Kind == credential.Email {
		identifier = strings.ToLower(identifier)
	}
	if err := credential.Validate(credential.LoginCredential{Kind: in.Kind, Identifier: identifier, Password: in.Password}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAccount, err)
	}

	hash, algo, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}
	a := &entity.Account{
		ID:             s.newID(),
		Role:           in.Role,
		Identifier:     identifier,
		IdentifierKind: in.Kind.String(),
		DisplayName:    strings.TrimSpace(in.DisplayName),
		PasswordHash:   hash,
		PasswordAlgo:   algo,
		Status:         entity.StatusActive,
		Version:        1,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, userrepo.ErrDuplicate) {
			return nil, ErrAccountExists
		}
		return nil, err
	}
	s.logger.Infow("account created", "account_id", a.ID, "role", a.Role, "kind", a.IdentifierKind)
	return a, nil
}

// SetDisabled disables or re-enables an account. Re-enabling also clears a lock.
func (s *Service) SetDisabled(ctx context.Context, id int64, disabled bool) error {
	status := entity.StatusActive
	if disabled {
		status = entity.StatusDisabled
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, userrepo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// ConstantTimeCompare compares secrets such as the admin key.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
