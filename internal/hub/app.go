package hub

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-hub/internal/broker"
	"github.com/nerrad567/gray-logic-hub/internal/procedure"
)

// Logger is the logging interface used by the App.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Adapter is a sub-application started after the core.
type Adapter interface {
	Name() string
	Start(ctx context.Context) error
	Stop() error
}

// AdapterFunc builds an Adapter from functions. A nil StopFunc is a no-op.
type AdapterFunc struct {
	AdapterName string
	StartFunc   func(ctx context.Context) error
	StopFunc    func() error
}

// Name returns AdapterName.
func (a AdapterFunc) Name() string { return a.AdapterName }

// Start calls StartFunc.
func (a AdapterFunc) Start(ctx context.Context) error { return a.StartFunc(ctx) }

// Stop calls StopFunc.
func (a AdapterFunc) Stop() error {
	if a.StopFunc == nil {
		return nil
	}
	return a.StopFunc()
}

// App owns the broker and procedure registry and runs adapters on top of
// them. Start brings up the core and then each adapter in the order added;
// Stop tears down in reverse.
type App struct {
	Broker     *broker.Broker
	Procedures *procedure.Registry

	logger   Logger
	adapters []Adapter

	mu      sync.Mutex
	started []Adapter
	running bool
}

// New creates an App around a fresh broker and procedure registry.
func New() *App {
	return &App{
		Broker:     broker.New(),
		Procedures: procedure.New(),
		logger:     noopLogger{},
	}
}

// SetLogger sets the logger for the app.
func (a *App) SetLogger(logger Logger) {
	a.logger = logger
}

// Add appends an adapter. Adapters must be added before Start.
func (a *App) Add(adapters ...Adapter) {
	a.adapters = append(a.adapters, adapters...)
}

// Start starts the core and every adapter. If an adapter fails, the
// adapters already started and the core are stopped before returning.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.Broker.Start(); err != nil {
		return fmt.Errorf("starting broker: %w", err)
	}
	if err := a.Procedures.Bind(ctx, a.Broker); err != nil {
		a.Broker.Stop()
		return fmt.Errorf("binding procedures: %w", err)
	}

	for _, ad := range a.adapters {
		if err := ad.Start(ctx); err != nil {
			a.logger.Error("adapter failed to start", "adapter", ad.Name(), "error", err)
			stopErr := a.stopLocked()
			return errors.Join(fmt.Errorf("starting %s: %w", ad.Name(), err), stopErr)
		}
		a.started = append(a.started, ad)
		a.logger.Info("adapter started", "adapter", ad.Name())
	}

	a.running = true
	a.logger.Info("hub started", "adapters", len(a.started), "procedures", a.Procedures.Names())
	return nil
}

// Stop drains the broker, stops adapters in reverse start order, then the
// core. It is safe to call more than once.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

func (a *App) stopLocked() error {
	// Messages accepted before shutdown reach their subscribers while
	// every adapter is still able to act on them.
	a.Broker.Drain()

	var errs []error
	for i := len(a.started) - 1; i >= 0; i-- {
		ad := a.started[i]
		if err := ad.Stop(); err != nil {
			a.logger.Error("adapter failed to stop", "adapter", ad.Name(), "error", err)
			errs = append(errs, fmt.Errorf("stopping %s: %w", ad.Name(), err))
			continue
		}
		a.logger.Info("adapter stopped", "adapter", ad.Name())
	}
	a.started = nil

	a.Procedures.Unbind(a.Broker)
	a.Broker.Stop()
	a.running = false

	return errors.Join(errs...)
}

// Running reports whether Start completed and Stop has not been called.
func (a *App) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}
