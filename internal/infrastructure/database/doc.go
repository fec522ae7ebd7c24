// Package database provides the local SQLite store used by the display
// client for offline persistence.
//
// The client runs unattended on kiosk hardware and must come back in the
// same state after a power cycle, so device credentials, display settings,
// and the sync journal live in a single SQLite file rather than in memory.
//
// The package wraps database/sql with:
//   - WAL mode and busy timeout configuration
//   - Embedded schema migrations (see the migrations directory)
//   - Health checks for the diagnostics endpoint
//
// SQLite is configured with a single writer connection, which matches the
// client's access pattern: one process, low write volume.
package database
