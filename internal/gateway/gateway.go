// Package gateway describes the external authentication gateway the login
// forms talk to, and provides an HTTP client for it.
package gateway

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable wraps every failure to get an answer out of the gateway.
var ErrUnavailable = errors.New("auth gateway unavailable")

// Gateway verifies a credential pair and establishes a session.
type Gateway interface {
	Login(ctx context.Context, identifier, password string) (*AuthResult, error)
}

// AuthResult is the gateway's verdict. Session is set only on success; Message
// is optional human readable text explaining a failure.
type AuthResult struct {
	Success bool
	Session *Session
	Message string
}

// Session is the user/session payload returned on a successful login.
type Session struct {
	UserID      string    `json:"user_id"`
	Identifier  string    `json:"identifier"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginRequest is the JSON body of POST /auth/login.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// LoginResponse is the JSON body answered by POST /auth/login.
type LoginResponse struct {
	Success bool     `json:"success"`
	Session *Session `json:"session,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Func adapts a plain function to Gateway.
type Func func(ctx context.Context, identifier, password string) (*AuthResult, error)

func (f Func) Login(ctx context.Context, identifier, password string) (*AuthResult, error) {
	return f(ctx, identifier, password)
}
