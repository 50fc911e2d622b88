package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Degraded policies applied by the supervisor when bootstrap does not reach
// the authenticated state.
const (
	// DegradedContinue keeps starting with the fallback broker identity.
	DegradedContinue = "continue"

	// DegradedAbort stops the process with the bootstrap error.
	DegradedAbort = "abort"
)

// Config is the root configuration structure for the Gray Logic Hub.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Database  DatabaseConfig  `yaml:"database"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Identity  IdentityConfig  `yaml:"identity"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	API       APIConfig       `yaml:"api"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig identifies this hub.
type DeviceConfig struct {
	// ID is the stable device identifier used to derive queue names.
	// If empty, an identifier is generated on first start and persisted.
	ID string `yaml:"id"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains settings for the external message transport.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Fallback  MQTTAuthConfig      `yaml:"fallback"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// QueuePrefix roots every transport topic the hub uses.
	QueuePrefix string `yaml:"queue_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// IdentityConfig contains the remote pairing/identity service settings.
type IdentityConfig struct {
	URL     string `yaml:"url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// BootstrapConfig controls how the hub recovers from identity failures.
type BootstrapConfig struct {
	Retry BootstrapRetryConfig `yaml:"retry"`

	// DegradedPolicy is DegradedContinue or DegradedAbort.
	DegradedPolicy string `yaml:"degraded_policy"`
}

// BootstrapRetryConfig applies to every identity service call.
type BootstrapRetryConfig struct {
	// Attempts is the total number of tries per call. 1 disables retry.
	Attempts int `yaml:"attempts"`

	// Delay is the pause between attempts.
	Delay time.Duration `yaml:"delay"`
}

// APIConfig contains the attach endpoint HTTP server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
}

// APITimeoutConfig contains HTTP timeout settings.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GRAYHUB_SECTION_KEY
// For example: GRAYHUB_DATABASE_PATH, GRAYHUB_IDENTITY_URL
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:        "./data/grayhub.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "grayhub",
			},
			// The transport's stock identity, used only when no broker
			// credentials could be obtained.
			Fallback: MQTTAuthConfig{
				Username: "guest",
				Password: "guest",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			QueuePrefix: "grayhub",
		},
		Identity: IdentityConfig{
			URL:     "http://localhost:8000",
			Timeout: 10,
		},
		Bootstrap: BootstrapConfig{
			Retry: BootstrapRetryConfig{
				Attempts: 1,
				Delay:    5 * time.Second,
			},
			DegradedPolicy: DegradedContinue,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8081,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: GRAYHUB_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GRAYHUB_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// Database
	if v := os.Getenv("GRAYHUB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("GRAYHUB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("GRAYHUB_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}

	// Identity service
	if v := os.Getenv("GRAYHUB_IDENTITY_URL"); v != "" {
		cfg.Identity.URL = v
	}

	if v := os.Getenv("GRAYHUB_BOOTSTRAP_DEGRADED_POLICY"); v != "" {
		cfg.Bootstrap.DegradedPolicy = v
	}

	// InfluxDB
	if v := os.Getenv("GRAYHUB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	if v := os.Getenv("GRAYHUB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.QoS == 0 {
		// QoS 0 messages are not queued for offline persistent sessions.
		errs = append(errs, "mqtt.qos must be at least 1 for durable queues")
	}
	if strings.ContainsAny(c.MQTT.QueuePrefix, "+#") {
		errs = append(errs, "mqtt.queue_prefix must not contain wildcards")
	}

	if strings.ContainsAny(c.Device.ID, "/+#") {
		errs = append(errs, "device.id must not contain '/', '+' or '#'")
	}

	if u, err := url.Parse(c.Identity.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "identity.url must be an absolute URL")
	}
	if c.Identity.Timeout <= 0 {
		errs = append(errs, "identity.timeout must be positive")
	}

	if c.Bootstrap.Retry.Attempts < 1 {
		errs = append(errs, "bootstrap.retry.attempts must be at least 1")
	}
	if c.Bootstrap.Retry.Delay < 0 {
		errs = append(errs, "bootstrap.retry.delay must not be negative")
	}
	switch c.Bootstrap.DegradedPolicy {
	case DegradedContinue, DegradedAbort:
	default:
		errs = append(errs, fmt.Sprintf("bootstrap.degraded_policy must be %q or %q", DegradedContinue, DegradedAbort))
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetIdentityTimeout returns the identity service request timeout as a Duration.
func (c *Config) GetIdentityTimeout() time.Duration {
	return time.Duration(c.Identity.Timeout) * time.Second
}
