// Package history keeps a bounded journal of sync activity in the
// local database, answering "when did this screen last hear from the
// backend, and how" without shell access to the device.
package history
