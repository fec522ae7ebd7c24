// Package display holds the in-memory state a screen renders: active
// and ready orders, the menu catalog, daily stats, operator broadcasts,
// and view settings.
//
// The Store is fed from two directions: periodic bulk refreshes replace
// whole lists, and realtime events apply incremental mutations. Both
// write unconditionally and the latest write wins; the next bulk
// refresh reconciles any divergence.
package display
