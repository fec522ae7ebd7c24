// Package session owns the device identity and its verification
// lifecycle.
//
// A device starts unregistered, enrolls with an organization to become
// pending, and an operator approves or blocks it from the admin panel.
// While pending, the manager polls the backend until a terminal state
// is reached. Every transition is pushed to a single observer, which
// reconciles the heartbeat scheduler, realtime channels, and refresh
// jobs against the new state.
//
// The durable subset of the session round-trips through the local
// store, so a power-cycled screen comes back with the same identity.
package session
