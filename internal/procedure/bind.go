package procedure

import (
	"context"
	"fmt"
)

// CallTopic is the broker topic procedure calls are published on.
const CallTopic = "procedure/call"

// subscriberName identifies the registry's subscription on CallTopic.
const subscriberName = "procedure-registry"

// Bus is the part of the broker the registry needs.
type Bus interface {
	Publish(topic string, msg any) error
	Subscribe(topic, name string, handler func(topic string, msg any) error) error
	Unsubscribe(topic, name string)
}

// Call is a procedure invocation carried over the broker.
type Call struct {
	ID        string
	Procedure string
	Args      Args

	// ReplyTo is the topic the Result is published on. Empty means the
	// caller does not want one.
	ReplyTo string
}

// Result answers a Call. Error is empty on success.
type Result struct {
	CallID    string
	Procedure string
	Value     any
	Error     string
}

// Bind serves procedure calls published on CallTopic until Unbind.
// ctx is passed to every handler.
func (r *Registry) Bind(ctx context.Context, bus Bus) error {
	return bus.Subscribe(CallTopic, subscriberName, func(_ string, msg any) error {
		call, ok := asCall(msg)
		if !ok {
			return fmt.Errorf("%w: %T", ErrInvalidCall, msg)
		}

		value, err := r.Invoke(ctx, call.Procedure, call.Args)
		if err != nil {
			r.logger.Warn("procedure call failed", "procedure", call.Procedure, "call_id", call.ID, "error", err)
		}
		if call.ReplyTo == "" {
			return nil
		}

		res := Result{CallID: call.ID, Procedure: call.Procedure, Value: value}
		if err != nil {
			res.Error = err.Error()
		}
		if err := bus.Publish(call.ReplyTo, res); err != nil {
			return fmt.Errorf("publishing result for %s: %w", call.ID, err)
		}
		return nil
	})
}

// Unbind stops serving calls from bus.
func (r *Registry) Unbind(bus Bus) {
	bus.Unsubscribe(CallTopic, subscriberName)
}

func asCall(msg any) (Call, bool) {
	switch c := msg.(type) {
	case Call:
		return c, true
	case *Call:
		if c == nil {
			return Call{}, false
		}
		return *c, true
	default:
		return Call{}, false
	}
}
