package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

func TestPrintResultWithoutForecastShowsRecommendation(t *testing.T) {
	var out bytes.Buffer
	printResult(&out, fuel.SearchResult{
		Place:    "Berlin",
		FuelType: fuel.FuelE5,
		RadiusKm: 5,
		Resolved: true,
		Recommendation: &fuel.Recommendation{
			Date:        time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
			Price:       1.45,
			StationName: "Shell Wedding",
			Brand:       "Shell",
			Source:      fuel.SourceObserved,
		},
	})

	got := out.String()
	if !strings.Contains(got, "Not enough history for a forecast.") {
		t.Errorf("missing forecast notice:\n%s", got)
	}
	if !strings.Contains(got, "Recommendation: Montag, 03. März 2025 at Shell Wedding (Shell), 1.45 EUR [observed]") {
		t.Errorf("missing recommendation:\n%s", got)
	}
}

func TestValidRadius(t *testing.T) {
	for _, r := range []float64{1, 2, 5, 10, 25} {
		if !validRadius(r) {
			t.Errorf("radius %v rejected", r)
		}
	}
	if validRadius(3) {
		t.Error("radius 3 accepted")
	}
}
