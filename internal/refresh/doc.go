// Package refresh runs the periodic bulk fetches that back up the
// realtime feed. Orders refresh on a short interval, stats on a longer
// one, and the catalog on start and on demand. A missed or misordered
// realtime event is corrected by the next refresh.
package refresh
