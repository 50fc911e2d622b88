package bootstrap

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/nerrad567/gray-logic-hub/internal/credentials"
)

// Logger is the logging interface used by the Authenticator.
// Critical is used for every failure that leaves the hub Degraded.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	Critical(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any)    {}
func (noopLogger) Info(string, ...any)     {}
func (noopLogger) Warn(string, ...any)     {}
func (noopLogger) Error(string, ...any)    {}
func (noopLogger) Critical(string, ...any) {}

// IdentityService is the remote pairing and identity service.
type IdentityService interface {
	Pair(ctx context.Context, deviceID string) (credentials.Credentials, error)
	Login(ctx context.Context, creds credentials.Credentials) (credentials.Session, error)
	BrokerCredentials(ctx context.Context, sess credentials.Session) (credentials.Credentials, error)
}

// CredentialStore persists what bootstrap acquires.
type CredentialStore interface {
	HumeUser(ctx context.Context) (credentials.Credentials, bool, error)
	SaveHumeUser(ctx context.Context, c credentials.Credentials) error
	BrokerCredentials(ctx context.Context) (credentials.Credentials, bool, error)
	SaveBrokerCredentials(ctx context.Context, c credentials.Credentials) error
	RecordLogin(ctx context.Context, sess credentials.Session) error
}

// Result is the outcome of one bootstrap run.
type Result struct {
	State State

	// Broker holds the transport credentials. When State is Degraded it
	// holds previously stored credentials, or nil if none were stored.
	Broker *credentials.Credentials

	// Err explains a Degraded outcome and matches one of the package errors.
	Err error
}

// Authenticator establishes the device's identity and acquires transport
// credentials. It runs once per process start.
type Authenticator struct {
	deviceID string
	service  IdentityService
	store    CredentialStore
	logger   Logger

	attempts int
	delay    time.Duration

	mu    sync.RWMutex
	state State
}

// New creates an Authenticator for deviceID. Each identity call is tried once
// unless SetRetry is used.
func New(deviceID string, service IdentityService, store CredentialStore) *Authenticator {
	return &Authenticator{
		deviceID: deviceID,
		service:  service,
		store:    store,
		logger:   noopLogger{},
		attempts: 1,
	}
}

// SetLogger sets the logger for the authenticator.
func (a *Authenticator) SetLogger(logger Logger) {
	a.logger = logger
}

// SetRetry sets the number of tries per identity call and the pause
// between them. attempts below 1 is treated as 1.
func (a *Authenticator) SetRetry(attempts int, delay time.Duration) {
	if attempts < 1 {
		attempts = 1
	}
	a.attempts = attempts
	a.delay = delay
}

// State returns the current state machine position.
func (a *Authenticator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Authenticator) setState(s State) {
	a.mu.Lock()
	prev := a.state
	a.state = s
	a.mu.Unlock()

	if prev != s {
		a.logger.Debug("bootstrap state changed", "from", prev.String(), "to", s.String())
	}
}

// Run drives the state machine to Authenticated or Degraded.
//
// An unpaired device pairs exactly once before logging in. Stored transport
// credentials are reused without contacting the service. A failed login never
// triggers a re-pair.
func (a *Authenticator) Run(ctx context.Context) Result {
	user, paired, err := a.store.HumeUser(ctx)
	if err != nil {
		return a.degrade(ctx, ErrStorage, err, "reading identity credentials")
	}

	if !paired {
		a.setState(Unpaired)
		a.logger.Info("device not paired, pairing with identity service", "device_id", a.deviceID)

		user, err = retry(ctx, a, "pair", func(ctx context.Context) (credentials.Credentials, error) {
			return a.service.Pair(ctx, a.deviceID)
		})
		if err != nil {
			return a.degrade(ctx, ErrPairingFailed, err, "pairing with identity service")
		}
		if err := a.store.SaveHumeUser(ctx, user); err != nil {
			return a.degrade(ctx, ErrStorage, err, "saving identity credentials")
		}
		a.logger.Info("device paired", "device_id", a.deviceID, "username", user.Username)
	}

	a.setState(PairedAwaitingLogin)

	sess, err := retry(ctx, a, "login", func(ctx context.Context) (credentials.Session, error) {
		return a.service.Login(ctx, user)
	})
	if err != nil {
		return a.degrade(ctx, ErrLoginFailed, err, "logging in to identity service")
	}
	if err := a.store.RecordLogin(ctx, sess); err != nil {
		return a.degrade(ctx, ErrStorage, err, "saving login marker")
	}

	broker, ok, err := a.store.BrokerCredentials(ctx)
	if err != nil {
		return a.degrade(ctx, ErrStorage, err, "reading broker credentials")
	}
	if ok {
		a.logger.Info("using stored broker credentials", "username", broker.Username)
		return a.authenticated(broker)
	}

	broker, err = retry(ctx, a, "broker credentials", func(ctx context.Context) (credentials.Credentials, error) {
		return a.service.BrokerCredentials(ctx, sess)
	})
	if err != nil {
		return a.degrade(ctx, ErrBrokerCredentialsUnavailable, err, "fetching broker credentials")
	}
	if err := a.store.SaveBrokerCredentials(ctx, broker); err != nil {
		return a.degrade(ctx, ErrStorage, err, "saving broker credentials")
	}
	a.logger.Info("broker credentials acquired", "username", broker.Username)

	return a.authenticated(broker)
}

func (a *Authenticator) authenticated(broker credentials.Credentials) Result {
	a.setState(Authenticated)
	broker.Scope = credentials.ScopeBroker
	return Result{State: Authenticated, Broker: &broker}
}

// degrade ends the run in Degraded. Broker credentials stored by an earlier
// run are still returned so the transport keeps the hub's own identity
// while the identity service is unreachable.
func (a *Authenticator) degrade(ctx context.Context, kind, cause error, step string) Result {
	a.setState(Degraded)
	err := fmt.Errorf("%w: %s: %w", kind, step, cause)
	a.logger.Critical("bootstrap failed, hub is degraded", "device_id", a.deviceID, "error", err)

	res := Result{State: Degraded, Err: err}
	stored, ok, serr := a.store.BrokerCredentials(context.WithoutCancel(ctx))
	switch {
	case serr != nil:
		a.logger.Error("reading stored broker credentials", "error", serr)
	case ok:
		stored.Scope = credentials.ScopeBroker
		res.Broker = &stored
		a.logger.Warn("continuing with stored broker credentials", "username", stored.Username)
	}
	return res
}

// retry calls fn until it succeeds, a.attempts tries have been made or ctx
// is done, pausing a.delay between tries.
func retry[T any](ctx context.Context, a *Authenticator, op string, fn func(context.Context) (T, error)) (T, error) {
	var v T
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(a.delay), uint64(a.attempts-1)),
		ctx,
	)

	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		var err error
		v, err = fn(ctx)
		return err
	}, policy, func(err error, next time.Duration) {
		a.logger.Warn("identity call failed, retrying",
			"op", op, "attempt", attempt, "of", a.attempts, "retry_in", next, "error", err)
	})
	return v, err
}
