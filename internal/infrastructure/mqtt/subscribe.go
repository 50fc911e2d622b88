package mqtt

import (
	"fmt"
)

// Subscribe registers a handler for messages on topic.
//
// The handler runs on paho's delivery goroutine; with order-matters set,
// messages on one subscription are handled one at a time in arrival order.
// Subscriptions are tracked and restored after a reconnect.
//
// Parameters:
//   - topic: Topic or filter to subscribe to (e.g., "grayhub/q/dev-1-hc-commands")
//   - qos: Maximum QoS for delivery; use at least 1 for durable queues
//   - handler: Called for each message; must not be nil
//
// Returns:
//   - error: ErrNotConnected before Connect or after Close,
//     ErrSubscribeFailed if the broker rejects or does not answer in time
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{topic: topic, qos: qos, handler: handler}
	c.subMu.Unlock()

	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		c.untrack(topic)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		c.untrack(topic)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// untrack forgets topic so it is not restored on reconnect.
func (c *Client) untrack(topic string) {
	c.subMu.Lock()
	delete(c.subscriptions, topic)
	c.subMu.Unlock()
}
