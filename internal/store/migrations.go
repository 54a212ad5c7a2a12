package store

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Migration represents a schema change. Statements run in order inside one transaction.
type Migration struct {
	Version    int
	Name       string
	Statements []string
}

// migrations is the full schema history. The DDL is valid for both SQLite and Postgres.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_price_records",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS price_records (
				id TEXT PRIMARY KEY,
				run_id TEXT NOT NULL,
				station_id TEXT NOT NULL DEFAULT '',
				station_name TEXT NOT NULL,
				brand TEXT NOT NULL DEFAULT '',
				street TEXT NOT NULL DEFAULT '',
				post_code TEXT NOT NULL DEFAULT '',
				place TEXT NOT NULL,
				place_key TEXT NOT NULL,
				observed_at BIGINT NOT NULL,
				lat DOUBLE PRECISION NOT NULL,
				lng DOUBLE PRECISION NOT NULL,
				e5 DOUBLE PRECISION,
				e10 DOUBLE PRECISION,
				diesel DOUBLE PRECISION
			)`,
			`CREATE INDEX IF NOT EXISTS idx_price_records_place_time ON price_records (place_key, observed_at)`,
			`CREATE INDEX IF NOT EXISTS idx_price_records_time ON price_records (observed_at)`,
		},
	},
	{
		Version: 2,
		Name:    "create_coordinates",
		Statements: []string{
			`CREATE TABLE IF NOT EXISTS coordinates (
				place_name TEXT PRIMARY KEY,
				lat DOUBLE PRECISION NOT NULL,
				lng DOUBLE PRECISION NOT NULL,
				created_at BIGINT NOT NULL
			)`,
		},
	},
}

// runMigrations applies every migration not yet recorded in schema_migrations.
func (s *SQLStore) runMigrations(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at BIGINT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) appliedMigrations(ctx context.Context) (map[int]bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT version FROM schema_migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

func (s *SQLStore) applyMigration(ctx context.Context, m Migration) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	for _, stmt := range m.Statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to execute migration %d: %w", m.Version, err)
		}
	}

	_, err = tx.ExecContext(ctx, s.rebind("INSERT INTO schema_migrations (version, name, applied_at) VALUES (?, ?, ?)"),
		m.Version, m.Name, time.Now().Unix())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
	}

	log.Printf("INFO: applied migration %d: %s", m.Version, m.Name)
	return nil
}
