package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nerrad567/gray-logic-hub/internal/credentials"
)

// Logger is the logging interface used by the Dispatcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Conn is an open connection to the external queue transport.
type Conn interface {
	Publish(queue string, payload []byte, durable bool) error
	Consume(queue string, durable bool, handler func(payload []byte)) error
	Close() error
}

// Transport opens connections authenticated as username/password.
type Transport interface {
	Dial(ctx context.Context, username, password string) (Conn, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, username, password string) (Conn, error)

// Dial calls f.
func (f TransportFunc) Dial(ctx context.Context, username, password string) (Conn, error) {
	return f(ctx, username, password)
}

// Handler receives an inbound message payload.
type Handler func(payload []byte) error

// Event describes one routed message for a Recorder.
type Event struct {
	Direction Direction
	Queue     string
	Encoding  Encoding
	Size      int
	Err       error
}

// Recorder receives an Event for every message the dispatcher routes.
type Recorder interface {
	RecordRoute(ev Event)
}

// Dispatcher relays between the hub and its external queues.
//
// Handlers registered with OnCommand and OnIdentityCommand are called one
// message at a time per queue, in arrival order.
type Dispatcher struct {
	queues    Queues
	transport Transport
	fallback  credentials.Credentials
	logger    Logger
	recorder  Recorder

	onCommand  Handler
	onIdentity Handler

	mu      sync.RWMutex
	conn    Conn
	running bool

	inboundMu  sync.Mutex
	identityMu sync.Mutex
}

// New creates a dispatcher for deviceID. fallback is the transport identity
// used when Start is given no broker credentials.
func New(deviceID string, transport Transport, fallback credentials.Credentials) *Dispatcher {
	return &Dispatcher{
		queues:    QueuesFor(deviceID),
		transport: transport,
		fallback:  fallback,
		logger:    noopLogger{},
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// SetRecorder sets the telemetry recorder. Must be called before Start.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// OnCommand sets the handler for coordinator commands. Must be called
// before Start.
func (d *Dispatcher) OnCommand(h Handler) {
	d.onCommand = h
}

// OnIdentityCommand sets the handler for identity service commands. Must be
// called before Start.
func (d *Dispatcher) OnIdentityCommand(h Handler) {
	d.onIdentity = h
}

// Queues returns the dispatcher's queue bindings.
func (d *Dispatcher) Queues() Queues {
	return d.queues
}

// Running reports whether Start succeeded and Stop has not been called.
func (d *Dispatcher) Running() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// Start connects to the transport and begins consuming the inbound and
// identity queues. creds must be broker scoped; nil means no broker
// credentials were obtained and the fallback identity is used.
func (d *Dispatcher) Start(ctx context.Context, creds *credentials.Credentials) error {
	if creds != nil && creds.Scope != credentials.ScopeBroker {
		return fmt.Errorf("%w: got %q", ErrWrongScope, creds.Scope)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return ErrAlreadyStarted
	}

	identity := d.fallback
	if creds != nil {
		identity = *creds
	} else {
		d.logger.Warn("no broker credentials, connecting with fallback identity",
			"username", identity.Username)
	}

	conn, err := d.transport.Dial(ctx, identity.Username, identity.Password)
	if err != nil {
		return fmt.Errorf("%w: connecting: %w", ErrTransport, err)
	}

	if err := d.consume(conn, d.queues.Inbound, Inbound, &d.inboundMu, d.onCommand); err != nil {
		conn.Close() //nolint:errcheck // Best effort cleanup on error path
		return err
	}
	if err := d.consume(conn, d.queues.Identity, Identity, &d.identityMu, d.onIdentity); err != nil {
		conn.Close() //nolint:errcheck // Best effort cleanup on error path
		return err
	}

	d.conn = conn
	d.running = true
	d.logger.Info("dispatcher started",
		"outbound", d.queues.Outbound.Name,
		"inbound", d.queues.Inbound.Name,
		"identity", d.queues.Identity.Name,
	)
	return nil
}

func (d *Dispatcher) consume(conn Conn, b Binding, dir Direction, mu *sync.Mutex, h Handler) error {
	err := conn.Consume(b.Name, b.Durable, func(payload []byte) {
		mu.Lock()
		defer mu.Unlock()

		var herr error
		if h == nil {
			d.logger.Warn("no handler for queue, dropping message", "queue", b.Name)
		} else {
			herr = h(payload)
			if herr != nil {
				d.logger.Warn("inbound handler failed", "queue", b.Name, "error", herr)
			}
		}
		d.record(Event{Direction: dir, Queue: b.Name, Encoding: Raw, Size: len(payload), Err: herr})
	})
	if err != nil {
		return fmt.Errorf("%w: consuming %s: %w", ErrTransport, b.Name, err)
	}
	return nil
}

// healthChecker is implemented by connections that can report liveness.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthCheck reports whether the dispatcher is started and, when the
// connection supports it, whether the transport is still connected.
func (d *Dispatcher) HealthCheck(ctx context.Context) error {
	d.mu.RLock()
	conn, running := d.conn, d.running
	d.mu.RUnlock()

	if !running {
		return ErrNotStarted
	}
	hc, ok := conn.(healthChecker)
	if !ok {
		return nil
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// Forward publishes raw on the outbound queue unmodified.
func (d *Dispatcher) Forward(ctx context.Context, raw []byte) error {
	return d.publish(ctx, raw, Raw)
}

// SendCommand publishes content as JSON on the outbound queue.
func (d *Dispatcher) SendCommand(ctx context.Context, content any) error {
	payload, err := json.Marshal(content)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return d.publish(ctx, payload, JSON)
}

func (d *Dispatcher) publish(ctx context.Context, payload []byte, enc Encoding) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	conn, running := d.conn, d.running
	d.mu.RUnlock()

	if !running {
		return ErrNotStarted
	}

	out := d.queues.Outbound
	err := conn.Publish(out.Name, payload, out.Durable)
	d.record(Event{Direction: Outbound, Queue: out.Name, Encoding: enc, Size: len(payload), Err: err})
	if err != nil {
		return fmt.Errorf("%w: publishing to %s: %w", ErrTransport, out.Name, err)
	}
	return nil
}

func (d *Dispatcher) record(ev Event) {
	if d.recorder != nil {
		d.recorder.RecordRoute(ev)
	}
}

// Stop closes the transport connection. It is safe to call more than once
// and after a failed Start.
func (d *Dispatcher) Stop() error {
	d.mu.Lock()
	conn := d.conn
	d.conn = nil
	d.running = false
	d.mu.Unlock()

	if conn == nil {
		return nil
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("%w: closing: %w", ErrTransport, err)
	}
	d.logger.Info("dispatcher stopped")
	return nil
}
