package fuel

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServiceConfig holds the tunables of a Service. Zero values fall back to defaults.
type ServiceConfig struct {
	// Lookback bounds how far back price history is read for a search.
	Lookback time.Duration

	// StoreTimeout bounds a single price store call.
	StoreTimeout time.Duration

	// IngestRadiusKm is the radius requested from the station source per city.
	IngestRadiusKm float64

	// IngestPause is waited between two cities of an ingestion run.
	IngestPause time.Duration

	// Now returns the current time; defaults to time.Now.
	Now func() time.Time
}

const (
	defaultLookback       = 60 * 24 * time.Hour
	defaultStoreTimeout   = 10 * time.Second
	defaultIngestRadiusKm = 25
)

// Service orchestrates geocoding, price queries, distance filtering and forecasting.
type Service struct {
	store    PriceStore
	resolver Resolver
	source   StationSource
	cfg      ServiceConfig
}

// NewService creates a new Service. source may be nil when the service only answers searches.
func NewService(store PriceStore, resolver Resolver, source StationSource, cfg ServiceConfig) *Service {
	if cfg.Lookback <= 0 {
		cfg.Lookback = defaultLookback
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.IngestRadiusKm <= 0 {
		cfg.IngestRadiusKm = defaultIngestRadiusKm
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:    store,
		resolver: resolver,
		source:   source,
		cfg:      cfg,
	}
}

// Search resolves the place, loads its recent prices, keeps stations within the radius and
// forecasts the next days. An unknown place yields a result with Resolved=false and no error;
// geocoder and store failures are returned as errors wrapping ErrGeocoderUnavailable and
// ErrStoreUnavailable.
func (s *Service) Search(ctx context.Context, q SearchQuery) (SearchResult, error) {
	res := SearchResult{
		Place:      q.Place,
		FuelType:   q.FuelType,
		RadiusKm:   q.RadiusKm,
		Stations:   []StationSnapshot{},
		BestPerDay: []ForecastPoint{},
	}
	if _, err := q.FuelType.Column(); err != nil {
		return res, err
	}

	center, found, err := s.resolver.Resolve(ctx, q.Place)
	if err != nil {
		return res, err
	}
	if !found {
		log.Printf("INFO: no coordinates for place %q", q.Place)
		return res, nil
	}
	res.Resolved = true
	res.Center = &center

	now := s.cfg.Now().UTC()
	records, err := s.fetch(ctx, q.Place, q.FuelType, now.Add(-s.cfg.Lookback))
	if err != nil {
		return res, err
	}

	snapshots := FilterByDistance(records, center, q.RadiusKm, q.FuelType)
	log.Printf("DEBUG: search %s/%s/%.0fkm: %d records, %d within radius",
		q.Place, q.FuelType, q.RadiusKm, len(records), len(snapshots))

	res.Stations = snapshots
	res.CheapestToday = CheapestToday(snapshots, q.FuelType, now)

	best, rec := Forecast(snapshots, q.FuelType, now)
	if best != nil {
		res.BestPerDay = best
	}
	res.Recommendation = rec
	return res, nil
}

// Places lists the places that have price data.
func (s *Service) Places(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	places, err := s.store.Places(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return places, nil
}

func (s *Service) fetch(ctx context.Context, place string, fuelType FuelType, since time.Time) ([]PriceRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	records, err := s.store.Fetch(ctx, place, fuelType, since)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return records, nil
}

// CheapestToday returns the cheapest snapshot observed on now's UTC date, or nil when no
// station reported the fuel today.
func CheapestToday(snapshots []StationSnapshot, fuelType FuelType, now time.Time) *StationSnapshot {
	today := DateOf(now)

	var best *StationSnapshot
	var bestPrice float64
	for i := range snapshots {
		s := snapshots[i]
		price, ok := s.Price(fuelType)
		if !ok || !DateOf(s.Timestamp).Equal(today) {
			continue
		}
		if best == nil || price < bestPrice || (price == bestPrice && s.StationName < best.StationName) {
			best = &snapshots[i]
			bestPrice = price
		}
	}
	return best
}

// Ingest pulls current station prices for each city and stores them. Records already stored
// for the current UTC day are deleted first, so repeated runs on one day replace each other.
// A city that cannot be geocoded or fetched is logged and skipped.
func (s *Service) Ingest(ctx context.Context, cities []string) (IngestReport, error) {
	now := s.cfg.Now().UTC()
	report := IngestReport{
		RunID:   uuid.NewString(),
		Started: now,
	}
	if s.source == nil {
		return report, ErrNoSource
	}

	deleted, err := s.store.DeleteDay(ctx, now)
	if err != nil {
		return report, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	report.Deleted = deleted
	log.Printf("INFO: ingest %s: removed %d records of %s", report.RunID, deleted, now.Format("2006-01-02"))

	for i, city := range cities {
		if i > 0 && s.cfg.IngestPause > 0 {
			if err := sleepContext(ctx, s.cfg.IngestPause); err != nil {
				return report, err
			}
		}

		n, err := s.ingestCity(ctx, city, now, report.RunID)
		if err != nil {
			log.Printf("ERROR: ingest %s: %s: %v", report.RunID, city, err)
			report.Skipped = append(report.Skipped, city)
			continue
		}
		report.Inserted += n
		log.Printf("INFO: ingest %s: %d stations stored for %s", report.RunID, n, city)
	}

	log.Printf("INFO: ingest %s: %d records inserted, %d cities skipped", report.RunID, report.Inserted, len(report.Skipped))
	return report, nil
}

func (s *Service) ingestCity(ctx context.Context, city string, now time.Time, runID string) (int, error) {
	center, found, err := s.resolver.Resolve(ctx, city)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("place %q not found", city)
	}

	readings, err := s.source.FetchStations(ctx, center, s.cfg.IngestRadiusKm)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", s.source.Name(), err)
	}
	if len(readings) == 0 {
		return 0, nil
	}

	records := make([]PriceRecord, 0, len(readings))
	for _, r := range readings {
		records = append(records, PriceRecord{
			StationID:   r.ID,
			StationName: strings.TrimSpace(r.Name),
			Brand:       strings.TrimSpace(r.Brand),
			Street:      r.Street,
			PostCode:    r.PostCode,
			Place:       city,
			Timestamp:   now,
			Latitude:    r.Lat,
			Longitude:   r.Lng,
			E5:          r.E5,
			E10:         r.E10,
			Diesel:      r.Diesel,
		})
	}

	if err := s.store.SaveRecords(ctx, runID, records); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return len(records), nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
