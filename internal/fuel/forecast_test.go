package fuel

import (
	"testing"
	"time"
)

var day0 = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

func p(v float64) *float64 { return &v }

func snap(name string, day int, e5 float64, dist float64) StationSnapshot {
	return StationSnapshot{
		PriceRecord: PriceRecord{
			StationName: name,
			Brand:       "B-" + name,
			Place:       "Berlin",
			Timestamp:   day0.AddDate(0, 0, day).Add(8 * time.Hour),
			E5:          p(e5),
		},
		DistanceKm: dist,
	}
}

func TestForecastTwoPointSlope(t *testing.T) {
	snapshots := []StationSnapshot{
		snap("Aral", 0, 1.50, 1),
		snap("Aral", 1, 1.60, 1),
	}

	best, rec := Forecast(snapshots, FuelE5, day0)
	if len(best) != ForecastDays {
		t.Fatalf("expected %d forecast days, got %d", ForecastDays, len(best))
	}
	if !best[0].Date.Equal(day0.AddDate(0, 0, 2)) {
		t.Errorf("first forecast date = %s, want %s", best[0].Date, day0.AddDate(0, 0, 2))
	}
	if best[0].Price != 1.70 {
		t.Errorf("day-2 prediction = %v, want 1.70", best[0].Price)
	}
	if rec == nil || rec.Price != 1.60 || rec.Source != SourceObserved {
		t.Errorf("unexpected recommendation: %+v", rec)
	}
}

func TestForecastInsufficientHistory(t *testing.T) {
	tests := map[string][]StationSnapshot{
		"empty": nil,
		"single day": {
			snap("Aral", 0, 1.50, 1),
			snap("Shell", 0, 1.55, 2),
		},
		"no values for fuel": {
			{PriceRecord: PriceRecord{StationName: "Aral", Timestamp: day0, Diesel: p(1.6)}},
			{PriceRecord: PriceRecord{StationName: "Aral", Timestamp: day0.AddDate(0, 0, 1), Diesel: p(1.6)}},
		},
	}
	for name, snapshots := range tests {
		t.Run(name, func(t *testing.T) {
			best, rec := Forecast(snapshots, FuelE5, day0)
			if len(best) != 0 || rec != nil {
				t.Fatalf("expected empty outputs, got %v / %+v", best, rec)
			}
		})
	}
}

func TestForecastSkipsSingleDayStations(t *testing.T) {
	snapshots := []StationSnapshot{
		snap("Aral", 0, 1.50, 1),
		snap("Aral", 1, 1.52, 1),
		// Only one day of data: contributes an observation but no forecast.
		snap("Jet", 1, 1.20, 3),
	}

	best, rec := Forecast(snapshots, FuelE5, day0.AddDate(0, 0, 1))
	for _, pt := range best {
		if pt.StationName == "Jet" {
			t.Fatalf("station with a single day was forecast: %+v", pt)
		}
	}
	if rec == nil || rec.StationName != "Jet" || rec.Source != SourceObserved {
		t.Fatalf("expected observed Jet recommendation, got %+v", rec)
	}
}

func TestForecastDropsDatesNotAfterToday(t *testing.T) {
	snapshots := []StationSnapshot{
		snap("Aral", 0, 1.50, 1),
		snap("Aral", 1, 1.50, 1),
	}

	today := day0.AddDate(0, 0, 3).Add(15 * time.Hour)
	best, _ := Forecast(snapshots, FuelE5, today)
	if len(best) != 3 {
		t.Fatalf("expected 3 remaining forecast days, got %d", len(best))
	}
	for _, pt := range best {
		if !pt.Date.After(DateOf(today)) {
			t.Errorf("forecast date %s is not after today", pt.Date)
		}
	}
}

func TestBestPerDayIsDailyMinimum(t *testing.T) {
	snapshots := []StationSnapshot{
		snap("Aral", 0, 1.70, 1), snap("Aral", 1, 1.60, 1), snap("Aral", 2, 1.55, 1),
		snap("Esso", 0, 1.50, 2), snap("Esso", 1, 1.52, 2), snap("Esso", 2, 1.56, 2),
		snap("Shell", 0, 1.58, 4), snap("Shell", 2, 1.58, 4),
	}
	today := day0.AddDate(0, 0, 2)

	best, rec := Forecast(snapshots, FuelE5, today)
	if len(best) == 0 || rec == nil {
		t.Fatal("expected forecast output")
	}

	// Rebuild all forecast points to check the per-day minimum.
	all := make(map[time.Time][]ForecastPoint)
	for _, name := range []string{"Aral", "Esso", "Shell"} {
		var series []StationSnapshot
		for _, s := range snapshots {
			if s.StationName == name {
				series = append(series, s)
			}
		}
		pts, _ := Forecast(series, FuelE5, today)
		for _, pt := range pts {
			all[pt.Date] = append(all[pt.Date], pt)
		}
	}

	seen := make(map[time.Time]bool)
	for i, b := range best {
		if seen[b.Date] {
			t.Fatalf("duplicate date %s", b.Date)
		}
		seen[b.Date] = true
		if i > 0 && !best[i-1].Date.Before(b.Date) {
			t.Fatalf("best-per-day not ordered by date")
		}
		for _, other := range all[b.Date] {
			if b.Price > other.Price {
				t.Errorf("%s: best %v > %s %v", b.Date, b.Price, other.StationName, other.Price)
			}
			if rec.Price > other.Price {
				t.Errorf("recommendation %v above forecast %v", rec.Price, other.Price)
			}
		}
	}
	for _, s := range snapshots {
		if DateOf(s.Timestamp).Equal(today) && rec.Price > *s.E5 {
			t.Errorf("recommendation %v above observed %v", rec.Price, *s.E5)
		}
	}
}

func TestForecastTieBreaks(t *testing.T) {
	snapshots := []StationSnapshot{
		snap("Zeta", 0, 1.60, 1), snap("Zeta", 1, 1.50, 1),
		snap("Alpha", 0, 1.60, 2), snap("Alpha", 1, 1.50, 2),
	}

	best, rec := Forecast(snapshots, FuelE5, day0.AddDate(0, 0, 1))
	for _, b := range best {
		if b.StationName != "Alpha" {
			t.Fatalf("tie on %s went to %s, want Alpha", b.Date, b.StationName)
		}
	}
	if rec == nil || rec.StationName != "Alpha" || !rec.Date.Equal(best[len(best)-1].Date) {
		t.Fatalf("unexpected recommendation %+v", rec)
	}

	// A flat series ties observed today with every forecast; today wins.
	flat := []StationSnapshot{snap("Aral", 0, 1.45, 1), snap("Aral", 1, 1.45, 1)}
	_, rec = Forecast(flat, FuelE5, day0.AddDate(0, 0, 1))
	if rec == nil || rec.Source != SourceObserved || !rec.Date.Equal(day0.AddDate(0, 0, 1)) {
		t.Fatalf("expected observed recommendation on the latest day, got %+v", rec)
	}
}

func TestRoundPrice(t *testing.T) {
	tests := map[float64]float64{
		1.704999: 1.70,
		1.705:    1.71,
		1.5:      1.50,
		1.23456:  1.23,
	}
	for in, want := range tests {
		if got := RoundPrice(in); got != want {
			t.Errorf("RoundPrice(%v) = %v, want %v", in, got, want)
		}
	}
}

func TestFitLine(t *testing.T) {
	slope, intercept := fitLine([]float64{0, 1, 2, 3}, []float64{1, 3, 5, 7})
	if diff := slope - 2; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("slope = %v, want 2", slope)
	}
	if diff := intercept - 1; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("intercept = %v, want 1", intercept)
	}

	slope, intercept = fitLine([]float64{2, 2}, []float64{1, 3})
	if slope != 0 || intercept != 2 {
		t.Errorf("degenerate fit = %v, %v; want 0, 2", slope, intercept)
	}
}
