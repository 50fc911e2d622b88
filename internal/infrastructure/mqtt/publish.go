package mqtt

import (
	"fmt"
	"strings"
)

// maxPayloadSize bounds a single message (1MB).
// Larger payloads are rejected before they reach the broker.
const maxPayloadSize = 1 << 20

// Publish sends payload on topic and waits for the broker's acknowledgment
// (for QoS above 0).
//
// Parameters:
//   - topic: Topic to publish to; wildcards are rejected
//   - payload: Message bytes, sent unmodified (max 1MB)
//   - qos: Quality of Service level (0, 1, or 2)
//   - retained: Whether the broker keeps the message for new subscribers
//
// QoS Levels:
//   - 0: At most once; not queued for an offline persistent session
//   - 1: At least once; what durable queues use
//   - 2: Exactly once
//
// Returns:
//   - error: nil on success, ErrInvalidTopic, ErrInvalidQoS,
//     ErrNotConnected, or ErrPublishFailed wrapping the broker's error
//
// Example:
//
//	topic := mqtt.Topics{Prefix: "grayhub"}.Queue("dev-1-dc-commands")
//	err := client.Publish(topic, []byte(`{"type":"attach"}`), 1, false)
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" || strings.ContainsAny(topic, "+#") {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}
