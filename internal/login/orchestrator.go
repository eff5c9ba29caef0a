// Package login drives one login attempt from submit to navigation.
package login

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/credential"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/gateway"
	"github.com/ovaphlow/pitchfork/service-campus-portal/internal/remember"
)

var (
	ErrBusy               = errors.New("a login request is already in progress")
	ErrGatewayFailure     = errors.New("gateway rejected the credentials")
	ErrGatewayUnavailable = errors.New("gateway unavailable")
)

const (
	MsgSuccess            = "Login successful"
	MsgInvalidCredentials = "Invalid credentials"
	MsgUnavailable        = "The login service is unavailable right now. Please try again."
)

// UI receives the visible side effects of a submission.
type UI interface {
	Notify(n Notice)
	Navigate(destination string)
}

// SessionKeeper is implemented by UIs that must hold on to the session
// returned by the gateway (a cookie, a state file). It runs before any other
// success side effect, and only when the gateway returned a session.
type SessionKeeper interface {
	KeepSession(s *gateway.Session)
}

// Submission is everything one submit needs. Remember may be nil when the
// caller has no storage slot.
type Submission struct {
	Credential  credential.LoginCredential
	Remember    *remember.Helper
	Destination string
}

// Outcome summarises a submission for the caller. State is the terminal state
// the attempt reached: Success, Failure, or Idle when it never got to the gateway.
type Outcome struct {
	State       State
	Err         error
	FieldErrors credential.FieldErrors
	Notice      *Notice
	Session     *gateway.Session
	Destination string
}

// Orchestrator serialises submissions of one form instance. While a request is
// in flight further submits are no-ops returning ErrBusy.
type Orchestrator struct {
	gw           gateway.Gateway
	form         string
	logger       *zap.SugaredLogger
	onTransition func(from, to State)

	mu    sync.Mutex
	state State
}

type Option func(*Orchestrator)

// WithForm names the form in logs and metrics.
func WithForm(name string) Option {
	return func(o *Orchestrator) { o.form = name }
}

func WithLogger(logger *zap.SugaredLogger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithTransitionHook registers fn to observe every state change. fn runs
// outside the orchestrator's lock.
func WithTransitionHook(fn func(from, to State)) Option {
	return func(o *Orchestrator) { o.onTransition = fn }
}

func New(gw gateway.Gateway, opts ...Option) *Orchestrator {
	o := &Orchestrator{gw: gw, form: "default", logger: zap.NewNop().Sugar(), state: Idle}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Submit runs one login attempt to completion. It never returns before the
// gateway has answered and never lets a gateway error or panic escape.
func (o *Orchestrator) Submit(ctx context.Context, sub Submission, ui UI) Outcome {
	if ui == nil {
		ui = nopUI{}
	}
	if !o.begin() {
		loginAttemptsTotal.WithLabelValues(o.form, outcomeBusy).Inc()
		o.logger.Debugw("login submit ignored, request in flight", "form", o.form)
		return Outcome{State: Idle, Err: ErrBusy}
	}

	if err := credential.Validate(sub.Credential); err != nil {
		o.move(Idle)
		loginAttemptsTotal.WithLabelValues(o.form, outcomeInvalid).Inc()
		var fe credential.FieldErrors
		errors.As(err, &fe)
		o.logger.Debugw("login rejected by shape validation", "form", o.form, "fields", fe)
		return Outcome{State: Idle, Err: err, FieldErrors: fe}
	}

	o.move(Submitting)
	res, err := o.call(ctx, sub.Credential)

	switch {
	case err != nil:
		return o.fail(ui, fmt.Errorf("%w: %w", ErrGatewayUnavailable, err), MsgUnavailable, outcomeUnavailable)
	case !res.Success:
		msg := strings.TrimSpace(res.Message)
		if msg == "" {
			msg = MsgInvalidCredentials
		}
		return o.fail(ui, ErrGatewayFailure, msg, outcomeFailure)
	default:
		return o.succeed(sub, res.Session, ui)
	}
}

func (o *Orchestrator) succeed(sub Submission, session *gateway.Session, ui UI) Outcome {
	o.move(Success)
	defer o.move(Idle)

	if keeper, ok := ui.(SessionKeeper); ok && session != nil {
		keeper.KeepSession(session)
	}

	// remember-me is best effort: a storage failure does not undo the login
	if sub.Remember != nil {
		if sub.Credential.RememberMe {
			if err := sub.Remember.Save(sub.Credential.Identifier, sub.Credential.Password); err != nil {
				o.logger.Warnw("remember credential", "form", o.form, "namespace", sub.Remember.Namespace(), "err", err)
			}
		} else if err := sub.Remember.Clear(); err != nil {
			o.logger.Warnw("forget credential", "form", o.form, "namespace", sub.Remember.Namespace(), "err", err)
		}
	}

	notice := Notice{Kind: NoticeSuccess, Message: MsgSuccess}
	ui.Notify(notice)
	ui.Navigate(sub.Destination)

	loginAttemptsTotal.WithLabelValues(o.form, outcomeSuccess).Inc()
	o.logger.Infow("login succeeded", "form", o.form, "user_id", sessionUserID(session))
	return Outcome{State: Success, Notice: &notice, Session: session, Destination: sub.Destination}
}

func (o *Orchestrator) fail(ui UI, err error, msg, outcome string) Outcome {
	o.move(Failure)
	defer o.move(Idle)

	notice := Notice{Kind: NoticeError, Message: msg}
	ui.Notify(notice)

	loginAttemptsTotal.WithLabelValues(o.form, outcome).Inc()
	if outcome == outcomeUnavailable {
		o.logger.Warnw("login gateway unavailable", "form", o.form, "err", err)
	} else {
		o.logger.Infow("login failed", "form", o.form, "reason", msg)
	}
	return Outcome{State: Failure, Err: err, Notice: &notice}
}

// call invokes the gateway. Cancellation of ctx is dropped on purpose: once a
// request is in flight the form waits for its answer.
func (o *Orchestrator) call(ctx context.Context, c credential.LoginCredential) (res *gateway.AuthResult, err error) {
	start := time.Now()
	defer func() {
		gatewayDuration.WithLabelValues(o.form).Observe(time.Since(start).Seconds())
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: panic: %v", gateway.ErrUnavailable, r)
		}
	}()

	res, err = o.gw.Login(context.WithoutCancel(ctx), c.Identifier, c.Password)
	if err == nil && res == nil {
		err = fmt.Errorf("%w: empty result", gateway.ErrUnavailable)
	}
	return res, err
}

func (o *Orchestrator) begin() bool {
	o.mu.Lock()
	if o.state != Idle {
		o.mu.Unlock()
		return false
	}
	o.state = Validating
	o.mu.Unlock()
	o.observe(Idle, Validating)
	return true
}

func (o *Orchestrator) move(to State) {
	o.mu.Lock()
	from := o.state
	o.state = to
	o.mu.Unlock()
	o.observe(from, to)
}

func (o *Orchestrator) observe(from, to State) {
	if o.onTransition != nil {
		o.onTransition(from, to)
	}
}

func sessionUserID(s *gateway.Session) string {
	if s == nil {
		return ""
	}
	return s.UserID
}

type nopUI struct{}

func (nopUI) Notify(Notice)   {}
func (nopUI) Navigate(string) {}
