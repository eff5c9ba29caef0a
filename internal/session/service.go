// Package session issues and verifies the signed tokens that carry a login
// from the auth gateway to the portal.
package session

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTTL    = 8 * time.Hour
	defaultIssuer = "campus-auth-gateway"
	minSecretLen  = 32
)

var (
	ErrInvalidToken = errors.New("invalid session token")
	ErrWeakSecret   = errors.New("session secret must be at least 32 bytes")
)

type Config struct {
	Secret string
	TTL    time.Duration
	Issuer string
}

// ConfigFromEnv reads SESSION_SECRET, SESSION_TTL and SESSION_ISSUER.
func ConfigFromEnv() Config {
	ttl, err := time.ParseDuration(os.Getenv("SESSION_TTL"))
	if err != nil || ttl <= 0 {
		ttl = defaultTTL
	}
	iss := os.Getenv("SESSION_ISSUER")
	if iss == "" {
		iss = defaultIssuer
	}
	return Config{Secret: os.Getenv("SESSION_SECRET"), TTL: ttl, Issuer: iss}
}

// Service signs and verifies HS256 session tokens. Gateway and portal share
// the secret; only the gateway issues.
type Service struct {
	key    []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) < minSecretLen {
		return nil, ErrWeakSecret
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = defaultIssuer
	}
	return &Service{key: []byte(cfg.Secret), ttl: cfg.TTL, issuer: cfg.Issuer, now: time.Now}, nil
}

// Issue creates a token for sub and returns it with its expiry.
func (s *Service) Issue(sub Subject) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Role:       sub.Role,
		Name:       sub.DisplayName,
		Identifier: sub.Identifier,
		Version:    sub.Version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sub.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, exp, nil
}

// Verify parses token, checking signature, algorithm, issuer and expiry.
func (s *Service) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims, nil
}
