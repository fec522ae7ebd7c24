// Package realtime keeps the screen's broker channels aligned with the
// device session and folds the incoming event feed into the display
// store.
//
// Two channels exist once the device is verified: a device channel for
// direct messages and organization broadcasts, and a display channel
// carrying the selected event's order feed. The manager reconciles both
// against every session transition; losing verification, logging out,
// or wiping the device tears the channels down.
//
// Outbound item intents (ready, delivered) are fire and forget: they
// require a live display channel, never touch local state, and take
// effect only when the backend echoes them back on the feed.
package realtime
