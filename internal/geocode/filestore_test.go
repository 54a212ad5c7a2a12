package geocode

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

func TestFileStoreMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "missing.json"))
	entries, err := s.LoadCoordinates(context.Background())
	if err != nil {
		t.Fatalf("LoadCoordinates: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty cache, got %v", entries)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "coords.json")
	s := NewFileStore(path)
	ctx := context.Background()
	created := time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

	entries := []fuel.CoordinateEntry{
		{PlaceName: "Berlin", Latitude: 52.52, Longitude: 13.405, CreatedAt: created},
		{PlaceName: "München", Latitude: 48.137, Longitude: 11.575, CreatedAt: created},
		{PlaceName: "Berlin", Latitude: 52.5, Longitude: 13.4, CreatedAt: created.Add(time.Hour)},
	}
	for _, e := range entries {
		if err := s.SaveCoordinate(ctx, e); err != nil {
			t.Fatalf("SaveCoordinate: %v", err)
		}
	}

	got, err := NewFileStore(path).LoadCoordinates(ctx)
	if err != nil {
		t.Fatalf("LoadCoordinates: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if b := got["Berlin"]; b.Latitude != 52.5 || !b.CreatedAt.Equal(created.Add(time.Hour)) {
		t.Errorf("last writer did not win: %+v", b)
	}
	if _, ok := got["münchen"]; ok {
		t.Error("keys must be exact place names")
	}
}

func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coords.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFileStore(path).LoadCoordinates(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}
