// Package ui serves the loopback HTTP surface the render layer talks
// to: state reads, operator actions (registration, event selection,
// mode and settings changes, item intents), diagnostics, and a
// WebSocket that streams a full state snapshot on every change.
//
// The renderer holds no state of its own. Every frame it receives is
// complete, so a reconnecting renderer is correct the moment its
// first frame arrives.
package ui
