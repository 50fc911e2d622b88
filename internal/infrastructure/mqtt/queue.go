package mqtt

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
)

// QueueTransport opens durable queue connections to the broker.
type QueueTransport struct {
	cfg    config.MQTTConfig
	logger Logger
}

// NewQueueTransport creates a transport for cfg. cfg.Broker.ClientID must be
// stable across restarts for queued messages to survive.
func NewQueueTransport(cfg config.MQTTConfig) *QueueTransport {
	return &QueueTransport{cfg: cfg}
}

// SetLogger sets the logger passed to every connection.
func (t *QueueTransport) SetLogger(logger Logger) {
	t.logger = logger
}

// Dial connects as username/password.
func (t *QueueTransport) Dial(ctx context.Context, username, password string) (*QueueConn, error) {
	c, err := Connect(ctx, t.cfg, Auth{Username: username, Password: password})
	if err != nil {
		return nil, err
	}
	if t.logger != nil {
		c.SetLogger(t.logger)
	}
	return &QueueConn{client: c, qos: byte(t.cfg.QoS)}, nil
}

// QueueConn maps named queues onto topics of one client connection.
//
// A durable queue uses the configured QoS (at least 1), which with the
// persistent session means the broker holds messages while the hub is
// offline. A non-durable queue uses QoS 0.
type QueueConn struct {
	client *Client
	qos    byte
}

func (q *QueueConn) qosFor(durable bool) byte {
	if durable {
		return q.qos
	}
	return 0
}

// Publish sends payload unmodified on the named queue.
func (q *QueueConn) Publish(queue string, payload []byte, durable bool) error {
	if !validQueueName(queue) {
		return fmt.Errorf("%w: %q", ErrInvalidQueue, queue)
	}
	return q.client.Publish(q.client.topics.Queue(queue), payload, q.qosFor(durable), false)
}

// Consume delivers every message on the named queue to handler.
func (q *QueueConn) Consume(queue string, durable bool, handler func(payload []byte)) error {
	if !validQueueName(queue) {
		return fmt.Errorf("%w: %q", ErrInvalidQueue, queue)
	}
	return q.client.Subscribe(q.client.topics.Queue(queue), q.qosFor(durable), func(_ string, payload []byte) error {
		handler(payload)
		return nil
	})
}

// Close disconnects. Durable subscriptions stay in the broker session.
func (q *QueueConn) Close() error {
	return q.client.Close()
}

// HealthCheck reports whether the underlying connection is up.
func (q *QueueConn) HealthCheck(ctx context.Context) error {
	return q.client.HealthCheck(ctx)
}
