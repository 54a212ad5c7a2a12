package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// SQLStore persists price records and cached coordinates in SQLite or Postgres.
type SQLStore struct {
	db     *sql.DB
	driver string
}

// Open connects to the database, applies pending migrations and returns the store.
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case DriverSQLite:
		if err := ensureDir(dsn); err != nil {
			return nil, err
		}
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if driver == DriverSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
			log.Printf("WARN: failed to set WAL mode: %v", err)
		}
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.runMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("INFO: %s store initialized", driver)
	return s, nil
}

// ensureDir creates the parent directory of a file-backed SQLite DSN.
func ensureDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, "file:") || strings.Contains(dsn, ":memory:") {
		return nil
	}
	dir := filepath.Dir(dsn)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// rebind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Fetch returns records of place (case-insensitive) carrying fuelType, observed at or after since.
func (s *SQLStore) Fetch(ctx context.Context, place string, fuelType fuel.FuelType, since time.Time) ([]fuel.PriceRecord, error) {
	column, err := fuelType.Column()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT station_id, station_name, brand, street, post_code, place,
			   observed_at, lat, lng, e5, e10, diesel
		FROM price_records
		WHERE place_key = ? AND ` + column + ` IS NOT NULL AND observed_at >= ?
		ORDER BY observed_at, station_name
	`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), placeKey(place), since.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to query price records: %w", err)
	}
	defer rows.Close()

	var records []fuel.PriceRecord
	for rows.Next() {
		var (
			r               fuel.PriceRecord
			observed        int64
			e5, e10, diesel sql.NullFloat64
		)
		err := rows.Scan(
			&r.StationID,
			&r.StationName,
			&r.Brand,
			&r.Street,
			&r.PostCode,
			&r.Place,
			&observed,
			&r.Latitude,
			&r.Longitude,
			&e5,
			&e10,
			&diesel,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan price record: %w", err)
		}
		r.Timestamp = time.Unix(observed, 0).UTC()
		r.E5 = nullablePrice(e5)
		r.E10 = nullablePrice(e10)
		r.Diesel = nullablePrice(diesel)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price records: %w", err)
	}
	return records, nil
}

// Places returns the distinct places holding records, sorted.
func (s *SQLStore) Places(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT place FROM price_records ORDER BY place")
	if err != nil {
		return nil, fmt.Errorf("failed to list places: %w", err)
	}
	defer rows.Close()

	var places []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, p)
	}
	return places, rows.Err()
}

// SaveRecords inserts records in one transaction; each row gets a fresh id.
func (s *SQLStore) SaveRecords(ctx context.Context, runID string, records []fuel.PriceRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO price_records (
			id, run_id, station_id, station_name, brand, street, post_code,
			place, place_key, observed_at, lat, lng, e5, e10, diesel
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			uuid.NewString(),
			runID,
			r.StationID,
			r.StationName,
			r.Brand,
			r.Street,
			r.PostCode,
			r.Place,
			placeKey(r.Place),
			r.Timestamp.Unix(),
			r.Latitude,
			r.Longitude,
			r.E5,
			r.E10,
			r.Diesel,
		)
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert price record for %s: %w", r.StationName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit price records: %w", err)
	}
	return nil
}

// DeleteDay removes every record observed on day's UTC calendar date.
func (s *SQLStore) DeleteDay(ctx context.Context, day time.Time) (int64, error) {
	start := fuel.DateOf(day)
	end := start.AddDate(0, 0, 1)

	result, err := s.db.ExecContext(ctx,
		s.rebind("DELETE FROM price_records WHERE observed_at >= ? AND observed_at < ?"),
		start.Unix(), end.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to delete price records: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count deleted records: %w", err)
	}
	return n, nil
}

// LoadCoordinates reads the whole coordinates table.
func (s *SQLStore) LoadCoordinates(ctx context.Context) (map[string]fuel.CoordinateEntry, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT place_name, lat, lng, created_at FROM coordinates")
	if err != nil {
		return nil, fmt.Errorf("failed to load coordinates: %w", err)
	}
	defer rows.Close()

	entries := make(map[string]fuel.CoordinateEntry)
	for rows.Next() {
		var (
			e       fuel.CoordinateEntry
			created int64
		)
		if err := rows.Scan(&e.PlaceName, &e.Latitude, &e.Longitude, &created); err != nil {
			return nil, fmt.Errorf("failed to scan coordinates: %w", err)
		}
		e.CreatedAt = time.Unix(created, 0).UTC()
		entries[e.PlaceName] = e
	}
	return entries, rows.Err()
}

// SaveCoordinate inserts entry, replacing an existing row for the same place.
func (s *SQLStore) SaveCoordinate(ctx context.Context, entry fuel.CoordinateEntry) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`
		INSERT INTO coordinates (place_name, lat, lng, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (place_name) DO UPDATE SET
			lat = excluded.lat,
			lng = excluded.lng,
			created_at = excluded.created_at
	`), entry.PlaceName, entry.Latitude, entry.Longitude, entry.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to save coordinates for %s: %w", entry.PlaceName, err)
	}
	return nil
}

func nullablePrice(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
