package fuel

import (
	"sort"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used for all distances.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance between two points on a sphere of
// radius EarthRadiusKm. s2 computes the central angle with the haversine formula.
func DistanceKm(from, to Coordinates) float64 {
	p1 := s2.LatLngFromDegrees(from.Latitude, from.Longitude)
	p2 := s2.LatLngFromDegrees(to.Latitude, to.Longitude)
	return p1.Distance(p2).Radians() * EarthRadiusKm
}

// FilterByDistance annotates records with their distance from center and keeps those
// within radiusKm that carry a price for fuelType. The result is ordered by distance,
// then station name.
func FilterByDistance(records []PriceRecord, center Coordinates, radiusKm float64, fuelType FuelType) []StationSnapshot {
	out := make([]StationSnapshot, 0, len(records))
	for _, r := range records {
		if _, ok := r.Price(fuelType); !ok {
			continue
		}
		d := DistanceKm(center, Coordinates{Latitude: r.Latitude, Longitude: r.Longitude})
		if d > radiusKm {
			continue
		}
		out = append(out, StationSnapshot{PriceRecord: r, DistanceKm: d})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].StationName < out[j].StationName
	})
	return out
}
