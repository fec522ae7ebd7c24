package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/database"
	"github.com/openeos/tvdisplay-core/migrations"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck

	if err := db.Migrate(context.Background(), migrations.FS); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	return New(db)
}

func TestStore_SetGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyTheme, "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, KeyTheme)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "dark" {
		t.Errorf("Get() = %q, want %q", got, "dark")
	}
}

func TestStore_SetOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyLocale, "de"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Set(ctx, KeyLocale, "en"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := s.Get(ctx, KeyLocale)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "en" {
		t.Errorf("Get() = %q, want %q", got, "en")
	}
}

func TestStore_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Get(context.Background(), "absent")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestStore_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyDeviceSession, `{"deviceId":"d1"}`); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := s.Delete(ctx, KeyDeviceSession); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	_, err := s.Get(ctx, KeyDeviceSession)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrNotFound", err)
	}

	// Deleting again is not an error.
	if err := s.Delete(ctx, KeyDeviceSession); err != nil {
		t.Errorf("Delete() of missing key error = %v", err)
	}
}

func TestStore_Clear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{KeyTheme, KeyLocale, KeyInstallID} {
		if err := s.Set(ctx, key, "v"); err != nil {
			t.Fatalf("Set(%q) error = %v", key, err)
		}
	}

	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}

	for _, key := range []string{KeyTheme, KeyLocale, KeyInstallID} {
		if _, err := s.Get(ctx, key); !errors.Is(err, ErrNotFound) {
			t.Errorf("Get(%q) after clear error = %v, want ErrNotFound", key, err)
		}
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "persist.db")

	open := func() *database.DB {
		db, err := database.Open(database.Config{Path: path, WALMode: true, BusyTimeout: 5})
		if err != nil {
			t.Fatalf("opening database: %v", err)
		}
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			t.Fatalf("migrating: %v", err)
		}
		return db
	}

	db := open()
	if err := New(db).Set(ctx, KeyInstallID, "abc-123"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	db = open()
	defer db.Close() //nolint:errcheck

	got, err := New(db).Get(ctx, KeyInstallID)
	if err != nil {
		t.Fatalf("Get() after reopen error = %v", err)
	}
	if got != "abc-123" {
		t.Errorf("Get() = %q, want %q", got, "abc-123")
	}
}
