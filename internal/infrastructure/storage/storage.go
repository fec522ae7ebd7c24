package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/database"
)

// ErrNotFound is returned when a key does not exist in the store.
var ErrNotFound = errors.New("storage: key not found")

// Well-known keys used by the client. Keeping them in one place makes
// the persisted surface easy to audit.
const (
	KeyDeviceSession   = "device-session"
	KeyDisplaySettings = "display-settings"
	KeyTheme           = "theme"
	KeyLocale          = "locale"
	KeyInstallID       = "install-id"
)

// Store is a durable key/value store backed by the local SQLite database.
// Values are opaque strings; callers serialize their own JSON.
type Store struct {
	db *database.DB
}

// New creates a Store over an open database connection.
func New(db *database.DB) *Store {
	return &Store{db: db}
}

// Get retrieves the value for a key.
//
// Returns:
//   - string: The stored value
//   - error: ErrNotFound if the key doesn't exist
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading key %q: %w", key, err)
	}
	return value, nil
}

// Set stores a value under a key, replacing any existing value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("writing key %q: %w", key, err)
	}
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("deleting key %q: %w", key, err)
	}
	return nil
}

// Clear removes all keys. Used when the device identity is wiped.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM kv")
	if err != nil {
		return fmt.Errorf("clearing store: %w", err)
	}
	return nil
}
