// Package logging provides structured logging for the TV display client.
//
// It wraps log/slog with configuration-driven level filtering, JSON or text
// output, and default service/version attributes. A display device logs to
// stdout/stderr; log shipping is handled by the host system.
package logging
