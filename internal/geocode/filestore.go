package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

// FileStore keeps coordinates in a single JSON file. The whole file is read on every load
// and rewritten on every save; concurrent processes sharing the file see last writer wins.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// LoadCoordinates reads the file. A missing file is an empty cache.
func (s *FileStore) LoadCoordinates(_ context.Context) (map[string]fuel.CoordinateEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// SaveCoordinate adds or replaces entry and writes the file back.
func (s *FileStore) SaveCoordinate(_ context.Context, entry fuel.CoordinateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.read()
	if err != nil {
		return err
	}
	entries[entry.PlaceName] = entry

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode coordinate cache: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache directory: %w", err)
		}
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write coordinate cache: %w", err)
	}
	return nil
}

func (s *FileStore) read() (map[string]fuel.CoordinateEntry, error) {
	entries := make(map[string]fuel.CoordinateEntry)

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read coordinate cache: %w", err)
	}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode coordinate cache: %w", err)
	}
	return entries, nil
}
