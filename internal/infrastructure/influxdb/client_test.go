package influxdb_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-hub/internal/infrastructure/influxdb"
)

func testConfig() config.InfluxDBConfig {
	url := os.Getenv("GRAYHUB_TEST_INFLUXDB")
	if url == "" {
		url = "http://127.0.0.1:8086"
	}
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "grayhub-dev-token",
		Org:           "grayhub",
		Bucket:        "routing",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func skipIfNoInfluxDB(t *testing.T) {
	t.Helper()
	if os.Getenv("GRAYHUB_TEST_INFLUXDB") == "" {
		t.Skip("GRAYHUB_TEST_INFLUXDB not set, skipping integration test")
	}
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectUnreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:1"

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := influxdb.Connect(ctx, cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var c *influxdb.Client

	if c.IsConnected() {
		t.Error("IsConnected() = true for nil client")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	// Must not panic.
	c.WritePoint("m", nil, map[string]any{"v": 1})
	if err := c.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}
}

func TestWriteAndClose(t *testing.T) {
	skipIfNoInfluxDB(t)

	c, err := influxdb.Connect(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	var writeErr error
	c.SetOnError(func(err error) { writeErr = err })

	c.WritePoint("queue_routing",
		map[string]string{"device_id": "test", "direction": "outbound"},
		map[string]any{"bytes": 2})

	if err := c.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if c.IsConnected() {
		t.Error("IsConnected() = true after Close")
	}
	if writeErr != nil {
		t.Errorf("async write error = %v", writeErr)
	}
}
