package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

// Migration represents a single database schema migration.
type Migration struct {
	// Version is the migration version (timestamp format: YYYYMMDD_HHMMSS).
	Version string

	// Name is a human-readable description of the migration.
	Name string

	// UpSQL contains the SQL to apply the migration.
	UpSQL string

	// DownSQL contains the SQL to roll back the migration.
	DownSQL string
}

// migrationTableSQL creates the table that tracks applied migrations.
const migrationTableSQL = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	applied_at TEXT NOT NULL
);`

// Migrate applies all pending migrations from the embedded filesystem.
//
// Migration files follow the naming convention:
//
//	YYYYMMDD_HHMMSS_description.up.sql
//	YYYYMMDD_HHMMSS_description.down.sql
//
// Migrations are applied in version order, each within its own
// transaction. Already-applied migrations are skipped.
//
// Parameters:
//   - ctx: Context for cancellation
//   - migrationsFS: Embedded filesystem containing migration files
//
// Returns:
//   - error: If any migration fails to apply
func (db *DB) Migrate(ctx context.Context, migrationsFS embed.FS) error {
	if _, err := db.DB.ExecContext(ctx, migrationTableSQL); err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	migrations, err := loadMigrations(migrationsFS)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	applied, err := db.appliedVersions(ctx)
	if err != nil {
		return fmt.Errorf("reading applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := db.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("applying migration %s_%s: %w", m.Version, m.Name, err)
		}
	}

	return nil
}

// appliedVersions returns the set of migration versions already applied.
func (db *DB) appliedVersions(ctx context.Context) (map[string]bool, error) {
	rows, err := db.DB.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // Read-only query cleanup

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// applyMigration runs a single migration inside a transaction and
// records it in schema_migrations.
func (db *DB) applyMigration(ctx context.Context, m Migration) error {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after commit

	if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
		return fmt.Errorf("executing migration SQL: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)",
		m.Version, m.Name, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording migration: %w", err)
	}

	return tx.Commit()
}

// loadMigrations reads and parses all migration files from the embedded
// filesystem, sorted by version ascending.
func loadMigrations(migrationsFS embed.FS) ([]Migration, error) {
	entries := make(map[string]*Migration)

	err := fs.WalkDir(migrationsFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".sql") {
			return nil
		}

		name := d.Name()
		version, desc, direction, parseErr := parseMigrationFilename(name)
		if parseErr != nil {
			return fmt.Errorf("parsing %s: %w", name, parseErr)
		}

		content, readErr := migrationsFS.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("reading %s: %w", name, readErr)
		}

		m, ok := entries[version]
		if !ok {
			m = &Migration{Version: version, Name: desc}
			entries[version] = m
		}

		switch direction {
		case "up":
			m.UpSQL = string(content)
		case "down":
			m.DownSQL = string(content)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	migrations := make([]Migration, 0, len(entries))
	for _, m := range entries {
		if m.UpSQL == "" {
			return nil, fmt.Errorf("migration %s has no up file", m.Version)
		}
		migrations = append(migrations, *m)
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseMigrationFilename splits a migration filename into its parts.
//
// Expected format: YYYYMMDD_HHMMSS_description.up.sql
func parseMigrationFilename(name string) (version, desc, direction string, err error) {
	base := strings.TrimSuffix(name, ".sql")

	switch {
	case strings.HasSuffix(base, ".up"):
		direction = "up"
		base = strings.TrimSuffix(base, ".up")
	case strings.HasSuffix(base, ".down"):
		direction = "down"
		base = strings.TrimSuffix(base, ".down")
	default:
		return "", "", "", fmt.Errorf("missing .up or .down suffix")
	}

	parts := strings.SplitN(base, "_", 3)
	if len(parts) < 3 {
		return "", "", "", fmt.Errorf("expected YYYYMMDD_HHMMSS_description format")
	}

	version = parts[0] + "_" + parts[1]
	desc = parts[2]
	return version, desc, direction, nil
}
