package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

func price(v float64) *float64 { return &v }

func openTestDB(t *testing.T) *SQLStore {
	t.Helper()
	s, err := Open(context.Background(), DriverSQLite, filepath.Join(t.TempDir(), "db", "fuel.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var day = time.Date(2025, time.March, 3, 8, 30, 0, 0, time.UTC)

func sampleRecords() []fuel.PriceRecord {
	return []fuel.PriceRecord{
		{StationID: "1", StationName: "Aral Mitte", Brand: "ARAL", PostCode: "10117", Place: "München", Timestamp: day, Latitude: 48.137, Longitude: 11.575, E5: price(1.79), Diesel: price(1.69)},
		{StationID: "2", StationName: "Shell Ost", Brand: "Shell", Place: "München", Timestamp: day.AddDate(0, 0, 1), Latitude: 48.14, Longitude: 11.6, E10: price(1.72)},
		{StationID: "3", StationName: "Jet", Brand: "JET", Place: "Berlin", Timestamp: day.AddDate(0, 0, -10), Latitude: 52.52, Longitude: 13.405, E5: price(1.65)},
	}
}

func TestSQLStoreFetch(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	if err := s.SaveRecords(ctx, "run-1", sampleRecords()); err != nil {
		t.Fatalf("SaveRecords: %v", err)
	}

	got, err := s.Fetch(ctx, "MÜNCHEN", fuel.FuelE5, day.AddDate(0, 0, -1))
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 e5 record, got %d", len(got))
	}
	r := got[0]
	if r.StationName != "Aral Mitte" || r.PostCode != "10117" || !r.Timestamp.Equal(day) {
		t.Errorf("unexpected record %+v", r)
	}
	if r.E5 == nil || *r.E5 != 1.79 || r.E10 != nil || r.Diesel == nil {
		t.Errorf("unexpected prices e5=%v e10=%v diesel=%v", r.E5, r.E10, r.Diesel)
	}

	got, err = s.Fetch(ctx, "Berlin", fuel.FuelE5, day.AddDate(0, 0, -1))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("record older than since was returned: %+v", got)
	}

	if _, err := s.Fetch(ctx, "Berlin", fuel.FuelType("lpg"), day); !errors.Is(err, fuel.ErrInvalidFuelType) {
		t.Errorf("expected ErrInvalidFuelType, got %v", err)
	}
}

func TestSQLStorePlacesAndDeleteDay(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()
	if err := s.SaveRecords(ctx, "run-1", sampleRecords()); err != nil {
		t.Fatal(err)
	}

	places, err := s.Places(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(places) != 2 || places[0] != "Berlin" || places[1] != "München" {
		t.Fatalf("places = %v", places)
	}

	n, err := s.DeleteDay(ctx, day.Add(10*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("deleted %d, want 1", n)
	}
	got, err := s.Fetch(ctx, "München", fuel.FuelE10, day.AddDate(0, 0, -30))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].StationName != "Shell Ost" {
		t.Fatalf("next day's record should remain: %+v", got)
	}
}

func TestSQLStoreCoordinates(t *testing.T) {
	s := openTestDB(t)
	ctx := context.Background()

	entry := fuel.CoordinateEntry{PlaceName: "Berlin", Latitude: 52.52, Longitude: 13.405, CreatedAt: day}
	if err := s.SaveCoordinate(ctx, entry); err != nil {
		t.Fatal(err)
	}
	entry.Latitude = 52.5
	if err := s.SaveCoordinate(ctx, entry); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := s.LoadCoordinates(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got["Berlin"].Latitude != 52.5 || !got["Berlin"].CreatedAt.Equal(day) {
		t.Fatalf("unexpected coordinates %+v", got)
	}
}

func TestSQLStoreMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fuel.db")
	ctx := context.Background()

	s, err := Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SaveRecords(ctx, "run-1", sampleRecords()); err != nil {
		t.Fatal(err)
	}
	s.Close()

	s, err = Open(ctx, DriverSQLite, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	applied, err := s.appliedMigrations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(applied) != len(migrations) {
		t.Fatalf("applied %d migrations, want %d", len(applied), len(migrations))
	}
	places, _ := s.Places(ctx)
	if len(places) != 2 {
		t.Fatalf("data lost on reopen: %v", places)
	}
}

func TestRebind(t *testing.T) {
	pg := &SQLStore{driver: DriverPostgres}
	if got := pg.rebind("a = ? AND b >= ?"); got != "a = $1 AND b >= $2" {
		t.Errorf("postgres rebind = %q", got)
	}
	lite := &SQLStore{driver: DriverSQLite}
	if got := lite.rebind("a = ?"); got != "a = ?" {
		t.Errorf("sqlite rebind = %q", got)
	}
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mysql", "x"); err == nil {
		t.Fatal("expected error")
	}
}
