package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
)

// Broker topics the relay listens on for device traffic.
const (
	TopicDeviceAttach   = "device/attach"
	TopicDeviceEvent    = "device/event"
	TopicDeviceSubEvent = "device/sub_event"
)

// Broker topics the relay publishes inbound commands on.
const (
	// TopicCommandPrefix is followed by the command type, e.g. "command/pair".
	TopicCommandPrefix = "command/"

	// TopicCommandRaw carries coordinator payloads that are not typed JSON.
	TopicCommandRaw = "command/raw"
)

const subscriberName = "coordinator-relay"

// commandTypes maps device topics to the "type" of the outbound command.
var commandTypes = map[string]string{
	TopicDeviceAttach:   "attach",
	TopicDeviceEvent:    "event",
	TopicDeviceSubEvent: "sub_event",
}

// validType restricts command types to a single topic level.
var validType = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ErrUnroutable is returned for device messages that cannot become commands.
var ErrUnroutable = errors.New("relay: unroutable message")

// Logger is the logging interface used by the Relay.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Bus is the part of the broker the relay needs.
type Bus interface {
	Publish(topic string, msg any) error
	Subscribe(topic, name string, handler func(topic string, msg any) error) error
	Unsubscribe(topic, name string)
}

// Sender delivers locally originated commands to the coordinator.
type Sender interface {
	SendCommand(ctx context.Context, content any) error
	Forward(ctx context.Context, raw []byte) error
}

// Relay bridges device traffic on the broker and the coordinator queues.
type Relay struct {
	bus    Bus
	sender Sender
	logger Logger

	mu  sync.RWMutex
	ctx context.Context
}

// New creates a relay.
func New(bus Bus, sender Sender) *Relay {
	return &Relay{bus: bus, sender: sender, logger: noopLogger{}, ctx: context.Background()}
}

// SetLogger sets the logger for the relay.
func (r *Relay) SetLogger(logger Logger) {
	r.logger = logger
}

// Name identifies the adapter in lifecycle logs.
func (r *Relay) Name() string { return "coordinator-relay" }

// Start subscribes to device topics. ctx is used for outbound sends.
func (r *Relay) Start(ctx context.Context) error {
	r.mu.Lock()
	r.ctx = context.WithoutCancel(ctx)
	r.mu.Unlock()

	for topic := range commandTypes {
		if err := r.bus.Subscribe(topic, subscriberName, r.forward); err != nil {
			r.unsubscribeAll()
			return fmt.Errorf("subscribing to %s: %w", topic, err)
		}
	}
	return nil
}

// Stop unsubscribes from device topics.
func (r *Relay) Stop() error {
	r.unsubscribeAll()
	return nil
}

func (r *Relay) unsubscribeAll() {
	for topic := range commandTypes {
		r.bus.Unsubscribe(topic, subscriberName)
	}
}

// forward sends a device message to the coordinator as a typed command.
func (r *Relay) forward(topic string, msg any) error {
	cmdType, ok := commandTypes[topic]
	if !ok {
		return fmt.Errorf("%w: topic %s", ErrUnroutable, topic)
	}

	cmd := map[string]any{}
	switch m := msg.(type) {
	case map[string]any:
		for k, v := range m {
			cmd[k] = v
		}
	case nil:
	default:
		cmd["content"] = m
	}
	cmd["type"] = cmdType

	r.mu.RLock()
	ctx := r.ctx
	r.mu.RUnlock()

	if err := r.sender.SendCommand(ctx, cmd); err != nil {
		return fmt.Errorf("sending %s command: %w", cmdType, err)
	}
	r.logger.Debug("device message relayed", "type", cmdType)
	return nil
}

// HandleCommand publishes a coordinator command on the broker. Typed JSON
// objects go to command/<type>; anything else goes to command/raw unchanged.
func (r *Relay) HandleCommand(payload []byte) error {
	var cmd map[string]any
	if err := json.Unmarshal(payload, &cmd); err == nil {
		if t, ok := cmd["type"].(string); ok && validType.MatchString(t) {
			return r.bus.Publish(TopicCommandPrefix+t, cmd)
		}
	}

	r.logger.Warn("untyped coordinator command, publishing raw", "bytes", len(payload))
	return r.bus.Publish(TopicCommandRaw, append([]byte(nil), payload...))
}

// HandleIdentityCommand passes an identity service command through to the
// coordinator unchanged.
func (r *Relay) HandleIdentityCommand(payload []byte) error {
	r.mu.RLock()
	ctx := r.ctx
	r.mu.RUnlock()

	if err := r.sender.Forward(ctx, payload); err != nil {
		return fmt.Errorf("forwarding identity command: %w", err)
	}
	r.logger.Debug("identity command forwarded", "bytes", len(payload))
	return nil
}
