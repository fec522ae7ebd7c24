package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  name: "Kitchen TV"
  organization_slug: "acme"
backend:
  base_url: "http://localhost:3001/api"
  timeout: 10
realtime:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-display"
  qos: 1
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "Kitchen TV" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "Kitchen TV")
	}
	if cfg.Backend.BaseURL != "http://localhost:3001/api" {
		t.Errorf("Backend.BaseURL = %q, want %q", cfg.Backend.BaseURL, "http://localhost:3001/api")
	}
	if cfg.Realtime.Broker.Host != "localhost" {
		t.Errorf("Realtime.Broker.Host = %q, want %q", cfg.Realtime.Broker.Host, "localhost")
	}
	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}
}

func TestLoad_Defaults(t *testing.T) {
	// A minimal file should leave the lifecycle interval defaults in place.
	cfg, err := Load(writeConfig(t, `device: {name: "tv"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.PollingInterval != 3 {
		t.Errorf("Device.PollingInterval = %d, want 3", cfg.Device.PollingInterval)
	}
	if cfg.Device.HeartbeatInterval != 60 {
		t.Errorf("Device.HeartbeatInterval = %d, want 60", cfg.Device.HeartbeatInterval)
	}
	if cfg.Refresh.OrdersInterval != 5 {
		t.Errorf("Refresh.OrdersInterval = %d, want 5", cfg.Refresh.OrdersInterval)
	}
	if cfg.Refresh.StatsInterval != 30 {
		t.Errorf("Refresh.StatsInterval = %d, want 30", cfg.Refresh.StatsInterval)
	}
	if cfg.Realtime.Reconnect.InitialDelay != 1 || cfg.Realtime.Reconnect.MaxDelay != 5 {
		t.Errorf("Reconnect = %+v, want initial 1s / max 5s", cfg.Realtime.Reconnect)
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

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("TVDISPLAY_BACKEND_URL", "http://10.0.0.5:3001/api")
	t.Setenv("TVDISPLAY_BROKER_PORT", "8883")

	cfg, err := Load(writeConfig(t, `backend: {base_url: "http://localhost:3001/api"}`))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Backend.BaseURL != "http://10.0.0.5:3001/api" {
		t.Errorf("Backend.BaseURL = %q, want env override", cfg.Backend.BaseURL)
	}
	if cfg.Realtime.Broker.Port != 8883 {
		t.Errorf("Realtime.Broker.Port = %d, want 8883", cfg.Realtime.Broker.Port)
	}
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config { return defaultConfig() }

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*Config) {}, wantErr: false},
		{name: "missing backend URL", mutate: func(c *Config) { c.Backend.BaseURL = "" }, wantErr: true},
		{name: "non-http backend URL", mutate: func(c *Config) { c.Backend.BaseURL = "ftp://api" }, wantErr: true},
		{name: "missing database path", mutate: func(c *Config) { c.Database.Path = "" }, wantErr: true},
		{name: "invalid qos", mutate: func(c *Config) { c.Realtime.QoS = 3 }, wantErr: true},
		{name: "max delay below initial", mutate: func(c *Config) { c.Realtime.Reconnect.MaxDelay = 0 }, wantErr: true},
		{name: "invalid ui port", mutate: func(c *Config) { c.UI.Port = 0 }, wantErr: true},
		{name: "zero polling interval", mutate: func(c *Config) { c.Device.PollingInterval = 0 }, wantErr: true},
		{name: "telemetry enabled without url", mutate: func(c *Config) { c.Telemetry.Enabled = true }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_DurationHelpers(t *testing.T) {
	cfg := defaultConfig()
	if got := cfg.GetPollingInterval().Seconds(); got != 3 {
		t.Errorf("GetPollingInterval() = %vs, want 3s", got)
	}
	if got := cfg.GetHeartbeatInterval().Seconds(); got != 60 {
		t.Errorf("GetHeartbeatInterval() = %vs, want 60s", got)
	}
	if got := cfg.GetBackendTimeout().Seconds(); got != 30 {
		t.Errorf("GetBackendTimeout() = %vs, want 30s", got)
	}
}
