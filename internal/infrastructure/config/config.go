package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the openeos TV display client.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	Backend   BackendConfig   `yaml:"backend"`
	Realtime  RealtimeConfig  `yaml:"realtime"`
	Database  DatabaseConfig  `yaml:"database"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	UI        UIConfig        `yaml:"ui"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// DeviceConfig contains device identity defaults and lifecycle intervals.
type DeviceConfig struct {
	// Name is the default device name offered during registration.
	Name string `yaml:"name"`

	// OrganizationSlug preselects the organization for registration.
	OrganizationSlug string `yaml:"organization_slug"`

	// PollingInterval is the verification status poll interval in seconds.
	PollingInterval int `yaml:"polling_interval"`

	// HeartbeatInterval is the liveness ping interval in seconds.
	HeartbeatInterval int `yaml:"heartbeat_interval"`
}

// BackendConfig contains the openeos HTTP API settings.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout int    `yaml:"timeout"` // seconds
}

// RealtimeConfig contains realtime broker connection settings.
type RealtimeConfig struct {
	Broker    BrokerConfig    `yaml:"broker"`
	QoS       int             `yaml:"qos"`
	Reconnect ReconnectConfig `yaml:"reconnect"`
}

// BrokerConfig contains broker connection details.
// Authentication is not configured here: the device credential is supplied
// at connect time by the channel manager.
type BrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// ReconnectConfig contains reconnection backoff settings (seconds).
type ReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// RefreshConfig contains interval-driven bulk fetch settings (seconds).
type RefreshConfig struct {
	OrdersInterval int `yaml:"orders_interval"`
	StatsInterval  int `yaml:"stats_interval"`
}

// UIConfig contains the local render-layer HTTP server settings.
type UIConfig struct {
	Host      string          `yaml:"host"`
	Port      int             `yaml:"port"`
	Timeouts  UITimeoutConfig `yaml:"timeouts"`
	WebSocket WebSocketConfig `yaml:"websocket"`
}

// UITimeoutConfig contains HTTP timeout settings (seconds).
type UITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocketConfig contains the state-stream WebSocket settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// TelemetryConfig contains optional InfluxDB fleet telemetry settings.
type TelemetryConfig struct {
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
// Environment variables follow the pattern: TVDISPLAY_SECTION_KEY
// For example: TVDISPLAY_BACKEND_URL, TVDISPLAY_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

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

// defaultConfig returns a Config with sensible defaults.
// Intervals mirror what the backend expects from display devices:
// 3s verification polling, 60s heartbeat, 5s order refresh, 30s stats refresh.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			PollingInterval:   3,
			HeartbeatInterval: 60,
		},
		Backend: BackendConfig{
			BaseURL: "https://api.openeos.de/api",
			Timeout: 30,
		},
		Realtime: RealtimeConfig{
			Broker: BrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "openeos-tvdisplay",
			},
			QoS: 1,
			Reconnect: ReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     5,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/tvdisplay.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Refresh: RefreshConfig{
			OrdersInterval: 5,
			StatsInterval:  30,
		},
		UI: UIConfig{
			Host: "127.0.0.1",
			Port: 8090,
			Timeouts: UITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
			WebSocket: WebSocketConfig{
				Path:           "/ws",
				MaxMessageSize: 8192,
				PingInterval:   30,
				PongTimeout:    10,
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
// Environment variables follow the pattern: TVDISPLAY_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("TVDISPLAY_DEVICE_NAME"); v != "" {
		cfg.Device.Name = v
	}
	if v := os.Getenv("TVDISPLAY_DEVICE_ORGANIZATION_SLUG"); v != "" {
		cfg.Device.OrganizationSlug = v
	}

	// Backend
	if v := os.Getenv("TVDISPLAY_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
	}

	// Realtime
	if v := os.Getenv("TVDISPLAY_BROKER_HOST"); v != "" {
		cfg.Realtime.Broker.Host = v
	}
	if v := os.Getenv("TVDISPLAY_BROKER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Realtime.Broker.Port = port
		}
	}

	// Database
	if v := os.Getenv("TVDISPLAY_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Telemetry
	if v := os.Getenv("TVDISPLAY_TELEMETRY_TOKEN"); v != "" {
		cfg.Telemetry.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Backend.BaseURL == "" {
		errs = append(errs, "backend.base_url is required")
	} else if !strings.HasPrefix(c.Backend.BaseURL, "http://") && !strings.HasPrefix(c.Backend.BaseURL, "https://") {
		errs = append(errs, "backend.base_url must be an http(s) URL")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.Realtime.QoS < 0 || c.Realtime.QoS > 2 {
		errs = append(errs, "realtime.qos must be 0, 1, or 2")
	}
	if c.Realtime.Reconnect.InitialDelay < 1 {
		errs = append(errs, "realtime.reconnect.initial_delay must be at least 1 second")
	}
	if c.Realtime.Reconnect.MaxDelay < c.Realtime.Reconnect.InitialDelay {
		errs = append(errs, "realtime.reconnect.max_delay must be >= initial_delay")
	}

	if c.UI.Port < 1 || c.UI.Port > 65535 {
		errs = append(errs, "ui.port must be between 1 and 65535")
	}

	if c.Device.PollingInterval < 1 {
		errs = append(errs, "device.polling_interval must be at least 1 second")
	}
	if c.Device.HeartbeatInterval < 1 {
		errs = append(errs, "device.heartbeat_interval must be at least 1 second")
	}
	if c.Refresh.OrdersInterval < 1 {
		errs = append(errs, "refresh.orders_interval must be at least 1 second")
	}
	if c.Refresh.StatsInterval < 1 {
		errs = append(errs, "refresh.stats_interval must be at least 1 second")
	}

	if c.Telemetry.Enabled && c.Telemetry.URL == "" {
		errs = append(errs, "telemetry.url is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetBackendTimeout returns the backend request timeout as a Duration.
func (c *Config) GetBackendTimeout() time.Duration {
	return time.Duration(c.Backend.Timeout) * time.Second
}

// GetPollingInterval returns the verification polling interval as a Duration.
func (c *Config) GetPollingInterval() time.Duration {
	return time.Duration(c.Device.PollingInterval) * time.Second
}

// GetHeartbeatInterval returns the heartbeat interval as a Duration.
func (c *Config) GetHeartbeatInterval() time.Duration {
	return time.Duration(c.Device.HeartbeatInterval) * time.Second
}

// GetOrdersInterval returns the order refresh interval as a Duration.
func (c *Config) GetOrdersInterval() time.Duration {
	return time.Duration(c.Refresh.OrdersInterval) * time.Second
}

// GetStatsInterval returns the stats refresh interval as a Duration.
func (c *Config) GetStatsInterval() time.Duration {
	return time.Duration(c.Refresh.StatsInterval) * time.Second
}

// GetReadTimeout returns the UI server read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.UI.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the UI server write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.UI.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the UI server idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.UI.Timeouts.Idle) * time.Second
}
