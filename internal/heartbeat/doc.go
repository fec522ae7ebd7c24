// Package heartbeat keeps the backend's device overview current by
// pinging it on a fixed interval while the device is verified.
package heartbeat
