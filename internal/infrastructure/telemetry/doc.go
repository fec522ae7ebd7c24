// Package telemetry ships fleet metrics to InfluxDB: heartbeat
// latency, sync activity, and realtime connection transitions.
//
// Telemetry is optional and off by default; a screen works fully
// without it. When enabled, writes are batched and non-blocking so a
// slow telemetry server can never stall the display.
package telemetry
