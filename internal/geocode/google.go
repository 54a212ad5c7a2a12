package geocode

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/fuel-price-forecast/internal/common"
	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

var googleGeocode = geocoder.Geocoding

// GoogleLookup geocodes place names with the Google Geocoding API.
type GoogleLookup struct {
	country string
}

// NewGoogleLookup sets the process-wide API key used by kelvins/geocoder.
func NewGoogleLookup(apiKey, country string) *GoogleLookup {
	geocoder.ApiKey = apiKey
	return &GoogleLookup{country: country}
}

func (g *GoogleLookup) Lookup(ctx context.Context, place string) (fuel.Coordinates, bool, error) {
	city := strings.TrimSpace(place)
	if city == "" {
		return fuel.Coordinates{}, false, nil
	}

	type answer struct {
		loc geocoder.Location
		err error
	}
	done := make(chan answer, 1)
	go func() {
		// geocoder.Geocoding indexes the first result without a length check.
		defer func() {
			if r := recover(); r != nil {
				done <- answer{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		loc, err := googleGeocode(geocoder.Address{City: city, Country: g.country})
		done <- answer{loc: loc, err: err}
	}()

	var a answer
	select {
	case <-ctx.Done():
		return fuel.Coordinates{}, false, ctx.Err()
	case a = <-done:
	}
	if a.err != nil {
		if common.HasAny(a.err.Error(), "ZERO_RESULTS", "No results", "no results") {
			return fuel.Coordinates{}, false, nil
		}
		return fuel.Coordinates{}, false, fmt.Errorf("google geocoding: %w", a.err)
	}
	return fuel.Coordinates{Latitude: a.loc.Latitude, Longitude: a.loc.Longitude}, true, nil
}
