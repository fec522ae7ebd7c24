package history

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/database"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
	"github.com/openeos/tvdisplay-core/migrations"
)

func newTestRepository(t *testing.T) *Repository {
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

	return NewRepository(db, logging.Default())
}

func TestRecordAndRecent(t *testing.T) {
	r := newTestRepository(t)
	ctx := context.Background()

	r.Record(ctx, "poll", "orders", "")
	r.Record(ctx, "realtime", "order/new", "o1")

	entries, err := r.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}

	// Newest first.
	if entries[0].Source != "realtime" || entries[0].Entity != "order/new" {
		t.Errorf("entries[0] = %+v, want realtime order/new", entries[0])
	}
	if entries[0].Detail != "o1" {
		t.Errorf("detail = %q, want %q", entries[0].Detail, "o1")
	}
	if entries[0].OccurredAt.IsZero() {
		t.Error("OccurredAt is zero")
	}
}

func TestRecord_PrunesBeyondCap(t *testing.T) {
	r := newTestRepository(t)
	r.maxEntries = 5
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		r.Record(ctx, "poll", "orders", fmt.Sprintf("n%d", i))
	}

	entries, err := r.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d, want 5 after pruning", len(entries))
	}
	if entries[0].Detail != "n7" {
		t.Errorf("newest entry detail = %q, want n7", entries[0].Detail)
	}
}

func TestRecent_Empty(t *testing.T) {
	r := newTestRepository(t)

	entries, err := r.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("len(entries) = %d, want 0", len(entries))
	}
}
