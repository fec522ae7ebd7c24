package history

import (
	"context"
	"fmt"
	"time"

	"github.com/openeos/tvdisplay-core/internal/infrastructure/database"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
)

// defaultMaxEntries bounds the journal. Old entries are pruned on
// write; the journal is for recent diagnostics, not an audit log.
const defaultMaxEntries = 1000

// Entry is one recorded sync action.
type Entry struct {
	ID         int64     `json:"id"`
	OccurredAt time.Time `json:"occurredAt"`
	Source     string    `json:"source"`
	Entity     string    `json:"entity"`
	Detail     string    `json:"detail,omitempty"`
}

// Repository persists the sync journal in the local database. It
// records where each piece of display data came from (poll, realtime,
// heartbeat), which the diagnostics endpoint surfaces when a screen
// looks stale.
type Repository struct {
	db         *database.DB
	logger     *logging.Logger
	maxEntries int
}

// NewRepository creates a journal over an open database.
func NewRepository(db *database.DB, logger *logging.Logger) *Repository {
	return &Repository{
		db:         db,
		logger:     logger,
		maxEntries: defaultMaxEntries,
	}
}

// Record appends a journal entry and prunes beyond the cap. Failures
// are logged, not returned: diagnostics must never break sync.
func (r *Repository) Record(ctx context.Context, source, entity, detail string) {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO sync_log (occurred_at, source, entity, detail) VALUES (?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano), source, entity, detail,
	)
	if err != nil {
		r.logger.Warn("recording sync entry", "error", err)
		return
	}

	_, err = r.db.ExecContext(ctx,
		`DELETE FROM sync_log WHERE id NOT IN (
			SELECT id FROM sync_log ORDER BY id DESC LIMIT ?
		)`, r.maxEntries,
	)
	if err != nil {
		r.logger.Warn("pruning sync journal", "error", err)
	}
}

// Recent returns the newest entries, most recent first.
func (r *Repository) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 || limit > r.maxEntries {
		limit = r.maxEntries
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT id, occurred_at, source, entity, detail FROM sync_log ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying sync journal: %w", err)
	}
	defer rows.Close() //nolint:errcheck // Read-only query cleanup

	var entries []Entry
	for rows.Next() {
		var e Entry
		var occurredAt string
		if err := rows.Scan(&e.ID, &occurredAt, &e.Source, &e.Entity, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning sync entry: %w", err)
		}
		if t, parseErr := time.Parse(time.RFC3339Nano, occurredAt); parseErr == nil {
			e.OccurredAt = t
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
