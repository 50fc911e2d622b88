package hub_test

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-hub/internal/credentials"
	"github.com/nerrad567/gray-logic-hub/internal/dispatch"
	"github.com/nerrad567/gray-logic-hub/internal/hub"
	"github.com/nerrad567/gray-logic-hub/internal/relay"
)

// memConn is an in-memory queue connection shared by the hub under test.
type memConn struct {
	mu        sync.Mutex
	published map[string][][]byte
	consumers map[string]func([]byte)
	closed    bool
}

func newMemConn() *memConn {
	return &memConn{
		published: make(map[string][][]byte),
		consumers: make(map[string]func([]byte)),
	}
}

func (c *memConn) Publish(queue string, payload []byte, _ bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection closed")
	}
	c.published[queue] = append(c.published[queue], append([]byte(nil), payload...))
	return nil
}

func (c *memConn) Consume(queue string, _ bool, handler func([]byte)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumers[queue] = handler
	return nil
}

func (c *memConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func (c *memConn) deliver(queue string, payload []byte) {
	c.mu.Lock()
	h := c.consumers[queue]
	c.mu.Unlock()
	h(payload)
}

func (c *memConn) sent(queue string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([][]byte(nil), c.published[queue]...)
}

// wiredHub assembles the app the way the hub binary does: dispatcher first,
// relay after it.
func wiredHub(t *testing.T, ctx context.Context) (*hub.App, *memConn) {
	t.Helper()
	conn := newMemConn()
	d := dispatch.New("dev-1", dispatch.TransportFunc(func(context.Context, string, string) (dispatch.Conn, error) {
		return conn, nil
	}), credentials.Credentials{Username: "guest", Password: "guest"})

	app := hub.New()
	rel := relay.New(app.Broker, d)
	d.OnCommand(rel.HandleCommand)
	d.OnIdentityCommand(rel.HandleIdentityCommand)

	app.Add(hub.AdapterFunc{
		AdapterName: "dispatcher",
		StartFunc: func(ctx context.Context) error {
			return d.Start(ctx, &credentials.Credentials{Username: "b", Password: "bp", Scope: credentials.ScopeBroker})
		},
		StopFunc: d.Stop,
	}, rel)

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return app, conn
}

func TestAcceptedDeviceMessagesReachCoordinatorOnShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app, conn := wiredHub(t, ctx)

	const n = 50
	for i := 0; i < n; i++ {
		msg := map[string]any{"uuid": fmt.Sprintf("lamp-%d", i), "device_ip": "10.0.0.7"}
		if err := app.Broker.Publish(relay.TopicDeviceAttach, msg); err != nil {
			t.Fatalf("Publish(%d) error = %v", i, err)
		}
	}

	// Shutdown begins with the start context cancelled, as on SIGTERM.
	cancel()
	if err := app.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	if got := len(conn.sent("dev-1-dc-commands")); got != n {
		t.Errorf("coordinator received %d attach commands, want %d", got, n)
	}
}

func TestIdentityCommandsPassThroughToCoordinator(t *testing.T) {
	app, conn := wiredHub(t, context.Background())
	defer app.Stop()

	payloads := [][]byte{
		[]byte(`{"type":"unpair","reason":"reset"}`),
		{0x9f, 0x00, 0xff},
	}
	for _, p := range payloads {
		conn.deliver("dev-1", p)
	}

	got := conn.sent("dev-1-dc-commands")
	if len(got) != len(payloads) {
		t.Fatalf("outbound queue got %d messages, want %d", len(got), len(payloads))
	}
	for i := range payloads {
		if !bytes.Equal(got[i], payloads[i]) {
			t.Errorf("outbound[%d] = %q, want %q", i, got[i], payloads[i])
		}
	}
}
