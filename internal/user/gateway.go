package user

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/session"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/user/entity"
)

const (
	MsgBadCredentials = "Invalid identifier or password"
	MsgLocked         = "Account locked after too many failed attempts. Try again later."
	MsgDisabled       = "Account disabled. Contact the campus administrator."
)

// rejection maps an authentication error to the message shown to the user.
// ok is false for errors that are not a verdict on the credentials.
func rejection(err error) (msg string, ok bool) {
	switch {
	case errors.Is(err, ErrBadCredentials):
		return MsgBadCredentials, true
	case errors.Is(err, ErrLocked):
		return MsgLocked, true
	case errors.Is(err, ErrDisabled):
		return MsgDisabled, true
	}
	return "", false
}

// LocalGateway serves gateway.Gateway in process: the account service
// decides, the session service signs.
type LocalGateway struct {
	svc    *Service
	tokens *session.Service
}

func NewLocalGateway(svc *Service, tokens *session.Service) *LocalGateway {
	return &LocalGateway{svc: svc, tokens: tokens}
}

func (g *LocalGateway) Login(ctx context.Context, identifier, password string) (*gateway.AuthResult, error) {
	sess, err := g.authenticate(ctx, identifier, password)
	if err != nil {
		if msg, ok := rejection(err); ok {
			return &gateway.AuthResult{Success: false, Message: msg}, nil
		}
		return nil, fmt.Errorf("%w: %w", gateway.ErrUnavailable, err)
	}
	return &gateway.AuthResult{Success: true, Session: sess}, nil
}

func (g *LocalGateway) authenticate(ctx context.Context, identifier, password string) (*gateway.Session, error) {
	a, err := g.svc.AuthenticatePassword(ctx, identifier, password)
	if err != nil {
		return nil, err
	}
	return newSession(g.tokens, a)
}

func newSession(tokens *session.Service, a *entity.Account) (*gateway.Session, error) {
	id := strconv.FormatInt(a.ID, 10)
	tok, exp, err := tokens.Issue(session.Subject{
		ID:          id,
		Role:        a.Role,
		DisplayName: a.DisplayName,
		Identifier:  a.Identifier,
		Version:     a.Version,
	})
	if err != nil {
		return nil, err
	}
	return &gateway.Session{
		UserID:      id,
		Identifier:  a.Identifier,
		DisplayName: a.DisplayName,
		Role:        a.Role,
		Token:       tok,
		ExpiresAt:   exp,
	}, nil
}
