// Package migrations embeds the SQL schema migrations for the local store.
package migrations

import "embed"

// FS contains all migration files, embedded at build time so the binary
// is self-contained on kiosk hardware.
//
//go:embed *.sql
var FS embed.FS
