package fuel

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ForecastDays is how many days past a station's last observation are predicted.
const ForecastDays = 5

// stationSeries holds one station's observations inside the query window.
type stationSeries struct {
	name     string
	brand    string
	distance float64
	dates    []time.Time
	prices   []float64
}

// Forecast fits a linear trend per station and extrapolates ForecastDays days.
//
// It returns the cheapest forecast point for each future date (ordered by date) and a
// recommendation: the cheapest entry among the prices observed on the latest input date
// and all forecast points. Both are empty when the input spans fewer than two calendar
// dates. Forecast points on or before today are dropped.
//
// Predictions are rounded to two decimals before any comparison. Ties go to the earlier
// date, then to the lexicographically smaller station name.
func Forecast(snapshots []StationSnapshot, fuelType FuelType, today time.Time) ([]ForecastPoint, *Recommendation) {
	today = DateOf(today)

	series := make(map[string]*stationSeries)
	distinct := make(map[time.Time]struct{})
	var latest time.Time

	for _, s := range snapshots {
		price, ok := s.Price(fuelType)
		if !ok {
			continue
		}
		d := DateOf(s.Timestamp)
		distinct[d] = struct{}{}
		if d.After(latest) {
			latest = d
		}

		st, ok := series[s.StationName]
		if !ok {
			st = &stationSeries{name: s.StationName, brand: s.Brand, distance: s.DistanceKm}
			series[s.StationName] = st
		}
		st.dates = append(st.dates, d)
		st.prices = append(st.prices, price)
	}

	if len(distinct) < 2 {
		return nil, nil
	}

	names := make([]string, 0, len(series))
	for name := range series {
		names = append(names, name)
	}
	sort.Strings(names)

	var points []ForecastPoint
	for _, name := range names {
		points = append(points, predictStation(series[name], today)...)
	}

	var observed []Recommendation
	for _, s := range snapshots {
		price, ok := s.Price(fuelType)
		if !ok || !DateOf(s.Timestamp).Equal(latest) {
			continue
		}
		dist := s.DistanceKm
		observed = append(observed, Recommendation{
			Date:        latest,
			Price:       price,
			StationName: s.StationName,
			Brand:       s.Brand,
			DistanceKm:  &dist,
			Source:      SourceObserved,
		})
	}

	return bestPerDay(points), recommend(observed, points)
}

// predictStation returns the station's future points, or nil when it was observed on
// fewer than two distinct days.
func predictStation(st *stationSeries, today time.Time) []ForecastPoint {
	first, last := st.dates[0], st.dates[0]
	days := make(map[time.Time]struct{})
	for _, d := range st.dates {
		days[d] = struct{}{}
		if d.Before(first) {
			first = d
		}
		if d.After(last) {
			last = d
		}
	}
	if len(days) < 2 {
		return nil
	}

	x := make([]float64, len(st.dates))
	for i, d := range st.dates {
		x[i] = float64(daysBetween(first, d))
	}
	slope, intercept := fitLine(x, st.prices)

	lastOffset := daysBetween(first, last)
	points := make([]ForecastPoint, 0, ForecastDays)
	for i := 1; i <= ForecastDays; i++ {
		date := last.AddDate(0, 0, i)
		if !date.After(today) {
			continue
		}
		dist := st.distance
		points = append(points, ForecastPoint{
			Date:        date,
			Price:       RoundPrice(intercept + slope*float64(lastOffset+i)),
			StationName: st.name,
			Brand:       st.brand,
			DistanceKm:  &dist,
		})
	}
	return points
}

func bestPerDay(points []ForecastPoint) []ForecastPoint {
	best := make(map[time.Time]ForecastPoint)
	for _, p := range points {
		cur, ok := best[p.Date]
		if !ok || p.Price < cur.Price || (p.Price == cur.Price && p.StationName < cur.StationName) {
			best[p.Date] = p
		}
	}

	out := make([]ForecastPoint, 0, len(best))
	for _, p := range best {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func recommend(observed []Recommendation, points []ForecastPoint) *Recommendation {
	candidates := observed
	for _, p := range points {
		candidates = append(candidates, Recommendation{
			Date:        p.Date,
			Price:       p.Price,
			StationName: p.StationName,
			Brand:       p.Brand,
			DistanceKm:  p.DistanceKm,
			Source:      SourceForecast,
		})
	}
	if len(candidates) == 0 {
		return nil
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if cheaper(c, best) {
			best = c
		}
	}
	return &best
}

func cheaper(a, b Recommendation) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	if !a.Date.Equal(b.Date) {
		return a.Date.Before(b.Date)
	}
	return a.StationName < b.StationName
}

// RoundPrice rounds p half away from zero to two decimals.
func RoundPrice(p float64) float64 {
	f, _ := decimal.NewFromFloat(p).Round(2).Float64()
	return f
}

// daysBetween counts whole days from a to b; both are UTC midnights.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
