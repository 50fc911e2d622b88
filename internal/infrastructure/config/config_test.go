package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  id: "hub-1234"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "broker.local"
    port: 1883
    client_id: "test-client"
  qos: 1
identity:
  url: "https://identity.example.com/api"
  timeout: 3
bootstrap:
  retry:
    attempts: 3
    delay: 2s
  degraded_policy: abort
api:
  port: 9000
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "hub-1234" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "hub-1234")
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	if cfg.Identity.URL != "https://identity.example.com/api" {
		t.Errorf("Identity.URL = %q", cfg.Identity.URL)
	}
	if cfg.Bootstrap.Retry.Attempts != 3 {
		t.Errorf("Bootstrap.Retry.Attempts = %d, want 3", cfg.Bootstrap.Retry.Attempts)
	}
	if cfg.Bootstrap.Retry.Delay != 2*time.Second {
		t.Errorf("Bootstrap.Retry.Delay = %v, want 2s", cfg.Bootstrap.Retry.Delay)
	}
	if cfg.Bootstrap.DegradedPolicy != DegradedAbort {
		t.Errorf("Bootstrap.DegradedPolicy = %q, want %q", cfg.Bootstrap.DegradedPolicy, DegradedAbort)
	}
	if cfg.GetIdentityTimeout() != 3*time.Second {
		t.Errorf("GetIdentityTimeout() = %v, want 3s", cfg.GetIdentityTimeout())
	}

	// Defaults survive a partial file
	if cfg.MQTT.Fallback.Username != "guest" {
		t.Errorf("MQTT.Fallback.Username = %q, want guest", cfg.MQTT.Fallback.Username)
	}
	if cfg.MQTT.QueuePrefix != "grayhub" {
		t.Errorf("MQTT.QueuePrefix = %q, want grayhub", cfg.MQTT.QueuePrefix)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
identity:
  url: "not a url"
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Fatal("Load() expected validation error for bad identity.url, got nil")
	}
	if !strings.Contains(err.Error(), "identity.url") {
		t.Errorf("error = %v, want mention of identity.url", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("GRAYHUB_DEVICE_ID", "env-device")
	t.Setenv("GRAYHUB_MQTT_HOST", "env-broker")
	t.Setenv("GRAYHUB_MQTT_PORT", "8883")
	t.Setenv("GRAYHUB_IDENTITY_URL", "http://env-identity:9000")

	cfg, err := Load(writeConfig(t, "device:\n  id: file-device\n"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "env-device" {
		t.Errorf("Device.ID = %q, want env-device", cfg.Device.ID)
	}
	if cfg.MQTT.Broker.Host != "env-broker" {
		t.Errorf("MQTT.Broker.Host = %q, want env-broker", cfg.MQTT.Broker.Host)
	}
	if cfg.MQTT.Broker.Port != 8883 {
		t.Errorf("MQTT.Broker.Port = %d, want 8883", cfg.MQTT.Broker.Port)
	}
	if cfg.Identity.URL != "http://env-identity:9000" {
		t.Errorf("Identity.URL = %q", cfg.Identity.URL)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "QoS 0 is not durable",
			mutate:  func(c *Config) { c.MQTT.QoS = 0 },
			wantErr: "durable",
		},
		{
			name:    "wildcard queue prefix",
			mutate:  func(c *Config) { c.MQTT.QueuePrefix = "hub/#" },
			wantErr: "queue_prefix",
		},
		{
			name:    "device id with topic separator",
			mutate:  func(c *Config) { c.Device.ID = "site/hub-1" },
			wantErr: "device.id",
		},
		{
			name:    "device id with wildcard",
			mutate:  func(c *Config) { c.Device.ID = "hub+" },
			wantErr: "device.id",
		},
		{
			name:    "zero retry attempts",
			mutate:  func(c *Config) { c.Bootstrap.Retry.Attempts = 0 },
			wantErr: "bootstrap.retry.attempts",
		},
		{
			name:    "unknown degraded policy",
			mutate:  func(c *Config) { c.Bootstrap.DegradedPolicy = "panic" },
			wantErr: "bootstrap.degraded_policy",
		},
		{
			name:    "invalid API port",
			mutate:  func(c *Config) { c.API.Port = 70000 },
			wantErr: "api.port",
		},
		{
			name: "influxdb enabled without url",
			mutate: func(c *Config) {
				c.InfluxDB.Enabled = true
				c.InfluxDB.URL = ""
			},
			wantErr: "influxdb.url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
