package repo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
)

// MemoryRepo keeps accounts in process. It mirrors AccountRepo, including the
// case-insensitive identifier, and backs the gateway when no database is set.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[int64]*entity.Account
	byIdent map[string]int64
	now     func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[int64]*entity.Account),
		byIdent: make(map[string]int64),
		now:     time.Now,
	}
}

// WithClock replaces the repo's time source.
func (r *MemoryRepo) WithClock(now func() time.Time) *MemoryRepo {
	r.now = now
	return r
}

func identKey(identifier string) string { return strings.ToLower(identifier) }

func (r *MemoryRepo) Create(_ context.Context, a *entity.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := identKey(a.Identifier)
	if _, ok := r.byIdent[key]; ok {
		return ErrDuplicate
	}
	if _, ok := r.byID[a.ID]; ok {
		return ErrDuplicate
	}
	now := r.now()
	a.CreatedAt, a.UpdatedAt = now, now
	if a.Status == "" {
		a.Status = entity.StatusActive
	}
	if a.Version == 0 {
		a.Version = 1
	}
	cp := *a
	r.byID[a.ID] = &cp
	r.byIdent[key] = a.ID
	return nil
}

func (r *MemoryRepo) GetByIdentifier(_ context.Context, identifier string) (*entity.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byIdent[identKey(identifier)]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *MemoryRepo) IncrementFailedLogin(_ context.Context, id int64) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return 0, ErrNotFound
	}
	a.LoginFailedAttempts++
	a.UpdatedAt = r.now()
	return a.LoginFailedAttempts, nil
}

func (r *MemoryRepo) LockIfThreshold(_ context.Context, id int64, threshold, lockMinutes int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.Status != entity.StatusActive || a.LoginFailedAttempts < threshold {
		return false, nil
	}
	until := r.now().Add(time.Duration(lockMinutes) * time.Minute)
	a.Status = entity.StatusLocked
	a.LockedUntil = &until
	a.UpdatedAt = r.now()
	return true, nil
}

func (r *MemoryRepo) ResetLoginSuccess(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	now := r.now()
	a.LoginFailedAttempts = 0
	a.LastLoginAt = &now
	a.LockedUntil = nil
	a.UpdatedAt = now
	return nil
}

func (r *MemoryRepo) UnlockIfExpired(_ context.Context, id int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok || a.Status != entity.StatusLocked || a.LockedUntil == nil || !a.LockedUntil.Before(r.now()) {
		return false, nil
	}
	a.Status = entity.StatusActive
	a.LockedUntil = nil
	a.LoginFailedAttempts = 0
	a.UpdatedAt = r.now()
	return true, nil
}

func (r *MemoryRepo) UpdatePassword(_ context.Context, id int64, hash, algo string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.PasswordHash, a.PasswordAlgo = hash, algo
	a.Version++
	a.UpdatedAt = r.now()
	return nil
}

func (r *MemoryRepo) SetStatus(_ context.Context, id int64, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	a.Status = status
	a.LockedUntil = nil
	a.LoginFailedAttempts = 0
	a.UpdatedAt = r.now()
	return nil
}
