package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/config"
)

func TestConnect_Disabled(t *testing.T) {
	_, err := Connect(config.TelemetryConfig{Enabled: false}, "d1")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := config.TelemetryConfig{
		Enabled: true,
		URL:     "http://127.0.0.1:1", // nothing listens here
		Token:   "t",
		Org:     "o",
		Bucket:  "b",
	}

	_, err := Connect(cfg, "d1")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWrites_NoopWhenDisconnected(t *testing.T) {
	c := &Client{}

	// Must not panic without a connection.
	c.RecordHeartbeat(10*time.Millisecond, true)
	c.Record(context.Background(), "poll", "orders", "")
	c.RecordConnection("device", true)
	c.Flush()

	if err := c.Close(); err != nil {
		t.Errorf("Close() on zero client error = %v", err)
	}
}
