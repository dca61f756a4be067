package view

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/atinyakov/cardash/internal/models"
)

var (
	// ErrUnknownField is returned by Change for anything but username or password.
	ErrUnknownField = errors.New("unknown form field")
	// ErrSubmitInFlight is returned by Submit while a previous submit has not settled.
	ErrSubmitInFlight = errors.New("submit already in flight")
)

// AccountService is the backend surface the forms need.
type AccountService interface {
	// Register creates an account and returns the raw response body.
	Register(ctx context.Context, creds models.Credentials) (json.RawMessage, error)
	// Login authenticates and returns the raw response body.
	Login(ctx context.Context, creds models.Credentials) (json.RawMessage, error)
}

// FormKind selects which account call a form submits to.
type FormKind int

const (
	// SignUp submits to the registration endpoint.
	SignUp FormKind = iota
	// SignIn submits to the login endpoint.
	SignIn
)

func (k FormKind) String() string {
	if k == SignIn {
		return "signin"
	}
	return "signup"
}

// Field names a form input.
type Field string

const (
	FieldUsername Field = "username"
	FieldPassword Field = "password"
)

// ResetPolicy decides when a submit clears the typed credentials.
type ResetPolicy string

const (
	// ResetAlways clears both fields once the call settles, success or not.
	ResetAlways ResetPolicy = "always"
	// ResetOnSuccess clears the fields only when the call succeeds.
	ResetOnSuccess ResetPolicy = "success"
)

// ParseResetPolicy maps a configuration string to a ResetPolicy.
func ParseResetPolicy(s string) (ResetPolicy, error) {
	switch ResetPolicy(s) {
	case ResetAlways, "":
		return ResetAlways, nil
	case ResetOnSuccess:
		return ResetOnSuccess, nil
	default:
		return "", fmt.Errorf("unknown reset policy %q", s)
	}
}

// FormOption configures a FormView.
type FormOption func(*FormView)

// WithResetPolicy overrides the default ResetAlways policy.
func WithResetPolicy(p ResetPolicy) FormOption {
	return func(f *FormView) {
		if p != "" {
			f.reset = p
		}
	}
}

// WithFormLogger sets where submit results are logged.
func WithFormLogger(l *zap.Logger) FormOption {
	return func(f *FormView) {
		if l != nil {
			f.log = l
		}
	}
}

// FormSnapshot is a consistent copy of a FormView for rendering.
type FormSnapshot struct {
	ID          string
	Kind        FormKind
	Credentials models.Credentials
	State       State[json.RawMessage]
}

// FormView is one mounted sign-up or sign-in form.
type FormView struct {
	id    string
	kind  FormKind
	svc   AccountService
	reset ResetPolicy
	log   *zap.Logger

	mu    sync.Mutex
	creds models.Credentials
	state State[json.RawMessage]
}

// NewFormView mounts a form with empty credentials.
func NewFormView(kind FormKind, svc AccountService, opts ...FormOption) *FormView {
	f := &FormView{
		id:    uuid.NewString(),
		kind:  kind,
		svc:   svc,
		reset: ResetAlways,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// ID returns the instance identifier.
func (f *FormView) ID() string { return f.id }

// Kind returns "signup" or "signin".
func (f *FormView) Kind() string { return f.kind.String() }

// FormKind returns the form's kind.
func (f *FormView) FormKind() FormKind { return f.kind }

// Unmount is a no-op; forms hold no background work.
func (f *FormView) Unmount() {}

// Change replaces a single field with value, leaving the other untouched.
func (f *FormView) Change(field Field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch field {
	case FieldUsername:
		f.creds.Username = value
	case FieldPassword:
		f.creds.Password = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Submit sends the current credentials exactly once and waits for the call
// to settle. The backend outcome lands in the returned state; the error
// return is reserved for ErrSubmitInFlight.
func (f *FormView) Submit(ctx context.Context) (State[json.RawMessage], error) {
	f.mu.Lock()
	if f.state.Phase == Loading {
		f.mu.Unlock()
		return State[json.RawMessage]{}, ErrSubmitInFlight
	}
	creds := f.creds
	f.state = f.state.loading()
	f.mu.Unlock()

	var (
		body json.RawMessage
		err  error
	)
	switch f.kind {
	case SignIn:
		body, err = f.svc.Login(ctx, creds)
	default:
		body, err = f.svc.Register(ctx, creds)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.log.Error("form submit failed",
			zap.String("view", f.id),
			zap.Stringer("form", f.kind),
			zap.Error(err),
		)
		f.state = f.state.failed(err)
		if f.reset == ResetAlways {
			f.creds = models.Credentials{}
		}
		return f.state, nil
	}

	f.log.Info("form submit response",
		zap.String("view", f.id),
		zap.Stringer("form", f.kind),
		zap.ByteString("body", body),
	)
	f.state = f.state.loaded(body)
	f.creds = models.Credentials{}
	return f.state, nil
}

// Snapshot returns the current fields and state.
func (f *FormView) Snapshot() FormSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormSnapshot{
		ID:          f.id,
		Kind:        f.kind,
		Credentials: f.creds,
		State:       f.state,
	}
}
