// Package storage provides the durable key/value store the client uses
// to survive restarts: device credentials, display settings, and the
// install identifier all round-trip through here as JSON strings.
package storage
