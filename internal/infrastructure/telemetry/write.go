package telemetry

import (
	"context"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// RecordHeartbeat writes a heartbeat outcome.
//
// The write is non-blocking; data is batched and sent asynchronously.
// Satisfies the heartbeat scheduler's Recorder interface.
//
// Parameters:
//   - latency: Round-trip time of the heartbeat request
//   - ok: Whether the heartbeat succeeded
func (c *Client) RecordHeartbeat(latency time.Duration, ok bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"heartbeat",
		map[string]string{
			"device_id": c.deviceID,
		},
		map[string]interface{}{
			"latency_ms": float64(latency.Milliseconds()),
			"ok":         ok,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// Record writes a sync event. Satisfies the refresh runner's Journal
// interface, so one telemetry client can feed both the local journal
// and the fleet dashboards via a fan-out.
func (c *Client) Record(_ context.Context, source, entity, detail string) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"count": 1,
	}
	if detail != "" {
		fields["detail"] = detail
	}

	point := write.NewPoint(
		"sync_events",
		map[string]string{
			"device_id": c.deviceID,
			"source":    source,
			"entity":    entity,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordConnection writes a realtime connection transition.
//
// Parameters:
//   - channel: "device" or "display"
//   - connected: The new connection state
func (c *Client) RecordConnection(channel string, connected bool) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"connection_events",
		map[string]string{
			"device_id": c.deviceID,
			"channel":   channel,
		},
		map[string]interface{}{
			"connected": connected,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}
