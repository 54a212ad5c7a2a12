package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

// placeHistory holds the time-ordered records of one place.
type placeHistory struct {
	name    string
	records []fuel.PriceRecord
}

// MemoryStore is a concurrency-safe in-memory implementation of fuel.PriceStore and
// geocode.CoordinateStore.
type MemoryStore struct {
	mu sync.RWMutex

	// key: lower-cased place name
	data map[string]*placeHistory

	coordinates map[string]fuel.CoordinateEntry

	// maxAge drops records older than this on every save (0 = unlimited).
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore. If maxAge is <= 0, records are kept forever.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:        make(map[string]*placeHistory),
		coordinates: make(map[string]fuel.CoordinateEntry),
		maxAge:      maxAge,
		now:         time.Now,
	}
}

func placeKey(place string) string {
	return strings.ToLower(strings.TrimSpace(place))
}

// SaveRecords appends records and enforces retention.
func (s *MemoryStore) SaveRecords(_ context.Context, _ string, records []fuel.PriceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := make(map[string]*placeHistory)
	for _, r := range records {
		key := placeKey(r.Place)
		history, ok := s.data[key]
		if !ok {
			history = &placeHistory{name: r.Place}
			s.data[key] = history
		}
		r.Timestamp = r.Timestamp.UTC()
		history.records = append(history.records, r)
		touched[key] = history
	}

	for _, history := range touched {
		sort.SliceStable(history.records, func(i, j int) bool {
			return history.records[i].Timestamp.Before(history.records[j].Timestamp)
		})

		if s.maxAge > 0 {
			cutoff := s.now().Add(-s.maxAge)
			i := 0
			for ; i < len(history.records); i++ {
				if !history.records[i].Timestamp.Before(cutoff) {
					break
				}
			}
			history.records = history.records[i:]
		}
	}
	return nil
}

// Fetch returns the records of place carrying fuelType observed at or after since.
func (s *MemoryStore) Fetch(_ context.Context, place string, fuelType fuel.FuelType, since time.Time) ([]fuel.PriceRecord, error) {
	if _, err := fuelType.Column(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.data[placeKey(place)]
	if !ok {
		return nil, nil
	}

	var result []fuel.PriceRecord
	for _, r := range history.records {
		if r.Timestamp.Before(since) {
			continue
		}
		if _, ok := r.Price(fuelType); !ok {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// Places returns the names of all places holding records, sorted.
func (s *MemoryStore) Places(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	places := make([]string, 0, len(s.data))
	for _, h := range s.data {
		if len(h.records) > 0 {
			places = append(places, h.name)
		}
	}
	sort.Strings(places)
	return places, nil
}

// DeleteDay removes every record observed on day's UTC calendar date.
func (s *MemoryStore) DeleteDay(_ context.Context, day time.Time) (int64, error) {
	start := fuel.DateOf(day)
	end := start.AddDate(0, 0, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	var deleted int64
	for _, history := range s.data {
		kept := history.records[:0]
		for _, r := range history.records {
			if !r.Timestamp.Before(start) && r.Timestamp.Before(end) {
				deleted++
				continue
			}
			kept = append(kept, r)
		}
		history.records = kept
	}
	return deleted, nil
}

// LoadCoordinates returns a copy of all cached coordinates.
func (s *MemoryStore) LoadCoordinates(_ context.Context) (map[string]fuel.CoordinateEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]fuel.CoordinateEntry, len(s.coordinates))
	for k, v := range s.coordinates {
		out[k] = v
	}
	return out, nil
}

// SaveCoordinate stores or replaces entry.
func (s *MemoryStore) SaveCoordinate(_ context.Context, entry fuel.CoordinateEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.coordinates[entry.PlaceName] = entry
	return nil
}
