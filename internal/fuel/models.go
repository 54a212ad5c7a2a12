package fuel

import (
	"fmt"
	"strings"
	"time"
)

// FuelType identifies one of the per-station price fields.
type FuelType string

const (
	FuelE5     FuelType = "e5"
	FuelE10    FuelType = "e10"
	FuelDiesel FuelType = "diesel"
)

// FuelTypes lists the supported fuel types in display order.
var FuelTypes = []FuelType{FuelE5, FuelE10, FuelDiesel}

// ParseFuelType normalizes s into a FuelType.
func ParseFuelType(s string) (FuelType, error) {
	ft := FuelType(strings.ToLower(strings.TrimSpace(s)))
	switch ft {
	case FuelE5, FuelE10, FuelDiesel:
		return ft, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFuelType, s)
}

// Column returns the storage column holding prices of this fuel type.
// Only the fixed set of fuel types maps to a column.
func (f FuelType) Column() (string, error) {
	switch f {
	case FuelE5:
		return "e5", nil
	case FuelE10:
		return "e10", nil
	case FuelDiesel:
		return "diesel", nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFuelType, string(f))
}

// Coordinates is a WGS84 position in degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// CoordinateEntry is a persisted geocoding result, keyed by the exact place name.
type CoordinateEntry struct {
	PlaceName string    `json:"placeName"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"createdAt"`
}

// Coordinates returns the position of the entry.
func (e CoordinateEntry) Coordinates() Coordinates {
	return Coordinates{Latitude: e.Latitude, Longitude: e.Longitude}
}

// PriceRecord is one observation of a station's prices, as written by ingestion.
// A station may have several records per day.
type PriceRecord struct {
	StationID   string    `json:"stationId"`
	StationName string    `json:"name"`
	Brand       string    `json:"brand"`
	Street      string    `json:"street,omitempty"`
	PostCode    string    `json:"postCode,omitempty"`
	Place       string    `json:"place"`
	Timestamp   time.Time `json:"timestamp"` // always UTC
	Latitude    float64   `json:"lat"`
	Longitude   float64   `json:"lng"`

	E5     *float64 `json:"e5"`
	E10    *float64 `json:"e10"`
	Diesel *float64 `json:"diesel"`
}

// Price returns the price for fuel type f and whether the record carries one.
func (r PriceRecord) Price(f FuelType) (float64, bool) {
	var p *float64
	switch f {
	case FuelE5:
		p = r.E5
	case FuelE10:
		p = r.E10
	case FuelDiesel:
		p = r.Diesel
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// StationSnapshot is a PriceRecord annotated with its distance from a query center.
type StationSnapshot struct {
	PriceRecord
	DistanceKm float64 `json:"distanceKm"`
}

// ForecastPoint is a predicted price for one station on one calendar day.
type ForecastPoint struct {
	Date        time.Time `json:"date"`
	Price       float64   `json:"price"`
	StationName string    `json:"name"`
	Brand       string    `json:"brand"`
	DistanceKm  *float64  `json:"distanceKm,omitempty"`
}

// RecommendationSource tells whether a recommendation is an observed or predicted price.
type RecommendationSource string

const (
	SourceObserved RecommendationSource = "observed"
	SourceForecast RecommendationSource = "forecast"
)

// Recommendation is the single cheapest day/station across observed and forecast prices.
type Recommendation struct {
	Date        time.Time            `json:"date"`
	Price       float64              `json:"price"`
	StationName string               `json:"name"`
	Brand       string               `json:"brand"`
	DistanceKm  *float64             `json:"distanceKm,omitempty"`
	Source      RecommendationSource `json:"source"`
}

// SearchQuery is what the presentation layer asks for.
type SearchQuery struct {
	Place    string
	FuelType FuelType
	RadiusKm float64
}

// SearchResult bundles everything a search returns.
// Resolved is false when the place could not be geocoded; all other fields are then empty.
type SearchResult struct {
	Place    string       `json:"place"`
	FuelType FuelType     `json:"fuelType"`
	RadiusKm float64      `json:"radiusKm"`
	Resolved bool         `json:"resolved"`
	Center   *Coordinates `json:"center,omitempty"`

	Stations       []StationSnapshot `json:"stations"`
	CheapestToday  *StationSnapshot  `json:"cheapestToday,omitempty"`
	BestPerDay     []ForecastPoint   `json:"bestPerDay"`
	Recommendation *Recommendation   `json:"recommendation,omitempty"`
}

// StationReading is a station as reported by an upstream price source, before it is stamped
// with an ingestion time and place.
type StationReading struct {
	ID       string
	Name     string
	Brand    string
	Street   string
	PostCode string
	Lat      float64
	Lng      float64
	IsOpen   bool

	E5     *float64
	E10    *float64
	Diesel *float64
}

// IngestReport summarizes one ingestion run.
type IngestReport struct {
	RunID    string    `json:"runId"`
	Started  time.Time `json:"started"`
	Deleted  int64     `json:"deleted"`
	Inserted int       `json:"inserted"`
	Skipped  []string  `json:"skipped,omitempty"`
}

// DateOf truncates t to its UTC calendar date.
func DateOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
