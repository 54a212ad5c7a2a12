package geocode

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/muesli/gominatim"

	"github.com/i474232898/fuel-price-forecast/internal/common"
	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

const DefaultNominatimURL = "https://nominatim.openstreetmap.org/"

// NominatimLookup geocodes place names with OpenStreetMap Nominatim.
type NominatimLookup struct {
	country string
}

// NewNominatimLookup points gominatim at serverURL. country, when set, is appended to every
// query to keep results inside one country.
func NewNominatimLookup(serverURL, country string) *NominatimLookup {
	if serverURL == "" {
		serverURL = DefaultNominatimURL
	}
	gominatim.SetServer(serverURL)
	return &NominatimLookup{country: country}
}

func (n *NominatimLookup) Lookup(ctx context.Context, place string) (fuel.Coordinates, bool, error) {
	q := strings.TrimSpace(place)
	if q == "" {
		return fuel.Coordinates{}, false, nil
	}
	if n.country != "" {
		q = q + ", " + n.country
	}

	type answer struct {
		lat, lon string
		found    bool
		err      error
	}
	done := make(chan answer, 1)
	go func() {
		qry := gominatim.SearchQuery{Q: q}
		res, err := qry.Get()
		if err != nil {
			// gominatim reports an empty result list as an error.
			if common.HasAny(err.Error(), "Nothing found") {
				err = nil
			}
			done <- answer{err: err}
			return
		}
		if len(res) == 0 {
			done <- answer{}
			return
		}
		done <- answer{lat: res[0].Lat, lon: res[0].Lon, found: true}
	}()

	var a answer
	select {
	case <-ctx.Done():
		return fuel.Coordinates{}, false, ctx.Err()
	case a = <-done:
	}
	if a.err != nil {
		return fuel.Coordinates{}, false, fmt.Errorf("nominatim: %w", a.err)
	}
	if !a.found {
		return fuel.Coordinates{}, false, nil
	}

	lat, err := strconv.ParseFloat(a.lat, 64)
	if err != nil {
		return fuel.Coordinates{}, false, fmt.Errorf("nominatim: invalid latitude %q: %w", a.lat, err)
	}
	lng, err := strconv.ParseFloat(a.lon, 64)
	if err != nil {
		return fuel.Coordinates{}, false, fmt.Errorf("nominatim: invalid longitude %q: %w", a.lon, err)
	}
	return fuel.Coordinates{Latitude: lat, Longitude: lng}, true, nil
}
