package app

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/i474232898/fuel-price-forecast/internal/config"
	"github.com/i474232898/fuel-price-forecast/internal/fuel"
	"github.com/i474232898/fuel-price-forecast/internal/fuel/providers"
	"github.com/i474232898/fuel-price-forecast/internal/geocode"
	"github.com/i474232898/fuel-price-forecast/internal/store"
)

// App holds the wired components shared by the server and the CLI.
type App struct {
	Service *fuel.Service
	closers []func() error
}

// backend is what a configured store offers: prices and persisted coordinates.
type backend interface {
	fuel.PriceStore
	geocode.CoordinateStore
}

// New builds the store, geocoder cache, station source and service described by cfg.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{}

	var db backend
	switch cfg.DBDriver {
	case "memory":
		db = store.NewMemoryStore(cfg.LookbackWindow)
		log.Println("INFO: using in-memory store; data is lost on exit")
	default:
		sqlStore, err := store.Open(ctx, cfg.DBDriver, cfg.DBDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to open store: %w", err)
		}
		a.closers = append(a.closers, sqlStore.Close)
		db = sqlStore
	}

	var coords geocode.CoordinateStore = db
	if cfg.GeocodeCacheFile != "" {
		coords = geocode.NewFileStore(cfg.GeocodeCacheFile)
	}

	var lookup geocode.Lookup
	switch cfg.Geocoder {
	case "google":
		lookup = geocode.NewGoogleLookup(cfg.GoogleGeocodingAPIKey, cfg.GeocodeCountry)
	default:
		lookup = geocode.NewNominatimLookup(cfg.NominatimURL, cfg.GeocodeCountry)
	}
	resolver := geocode.NewCache(geocode.WithBreaker(cfg.Geocoder, lookup), coords, cfg.GeocodeTimeout)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	var source fuel.StationSource
	if cfg.TankerkoenigAPIKey != "" {
		source = providers.NewTankerkoenigProvider(httpClient, cfg.TankerkoenigAPIKey)
	} else {
		log.Println("INFO: TANKERKOENIG_API_KEY not set; ingestion disabled")
	}

	a.Service = fuel.NewService(db, resolver, source, fuel.ServiceConfig{
		Lookback:       cfg.LookbackWindow,
		StoreTimeout:   cfg.StoreTimeout,
		IngestRadiusKm: cfg.IngestRadiusKm,
		IngestPause:    cfg.IngestPause,
	})
	return a, nil
}

// Close releases the store.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Printf("ERROR: close: %v", err)
		}
	}
}
