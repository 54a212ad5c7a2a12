package fuel

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvalidFuelType is returned for fuel types outside e5, e10 and diesel.
	ErrInvalidFuelType = errors.New("invalid fuel type")

	// ErrGeocoderUnavailable marks a failed or timed out geocoding lookup.
	// A place that simply has no coordinates is not an error.
	ErrGeocoderUnavailable = errors.New("geocoder unavailable")

	// ErrStoreUnavailable marks a failed or timed out price store query.
	ErrStoreUnavailable = errors.New("price store unavailable")

	// ErrNoSource is returned by Ingest when no station source is configured.
	ErrNoSource = errors.New("no station source configured")
)

// PriceStore is the contract the SQL and in-memory stores satisfy.
type PriceStore interface {
	// Fetch returns records for place (case-insensitive) carrying a non-null value for
	// fuelType and observed at or after since.
	Fetch(ctx context.Context, place string, fuelType FuelType, since time.Time) ([]PriceRecord, error)

	// Places returns the distinct places present in the store, sorted.
	Places(ctx context.Context) ([]string, error)

	// SaveRecords appends records tagged with an ingestion run id.
	SaveRecords(ctx context.Context, runID string, records []PriceRecord) error

	// DeleteDay removes every record observed on the UTC calendar day of day.
	DeleteDay(ctx context.Context, day time.Time) (int64, error)
}

// Resolver maps a place name to coordinates. found is false when the place is unknown.
type Resolver interface {
	Resolve(ctx context.Context, place string) (coords Coordinates, found bool, err error)
}

// StationSource abstracts an upstream station price API (e.g. Tankerkönig).
type StationSource interface {
	Name() string
	FetchStations(ctx context.Context, center Coordinates, radiusKm float64) ([]StationReading, error)
}
