package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/i474232898/fuel-price-forecast/internal/common"
)

// DefaultCities are ingested when neither CITIES nor CITIES_FILE is set.
var DefaultCities = []string{
	"Berlin", "Hamburg", "München", "Köln", "Frankfurt", "Stuttgart", "Düsseldorf",
	"Leipzig", "Dortmund", "Essen", "Bremen", "Dresden", "Hannover", "Nürnberg",
	"Duisburg", "Bochum", "Wuppertal", "Bielefeld", "Bonn", "Münster",
}

type AppConfig struct {
	Port string

	// DBDriver is sqlite, postgres or memory.
	DBDriver string
	DBDSN    string

	TankerkoenigAPIKey string

	// Geocoder is nominatim or google.
	Geocoder              string
	NominatimURL          string
	GoogleGeocodingAPIKey string
	GeocodeCountry        string

	// GeocodeCacheFile selects the JSON file cache; empty keeps coordinates in the database.
	GeocodeCacheFile string

	GeocodeTimeout time.Duration
	StoreTimeout   time.Duration
	HTTPTimeout    time.Duration

	// LookbackWindow bounds how much price history a search reads.
	LookbackWindow time.Duration

	IngestInterval time.Duration
	IngestRadiusKm float64
	IngestPause    time.Duration

	Cities []string
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Port = getenvDefault("PORT", "8080")

	cfg.DBDriver = getenvDefault("DB_DRIVER", "sqlite")
	switch cfg.DBDriver {
	case "sqlite", "postgres", "memory":
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: use sqlite, postgres or memory", cfg.DBDriver)
	}
	cfg.DBDSN = getenvDefault("DB_DSN", "./data/fuel.db")

	cfg.TankerkoenigAPIKey = os.Getenv("TANKERKOENIG_API_KEY")

	cfg.Geocoder = getenvDefault("GEOCODER", "nominatim")
	switch cfg.Geocoder {
	case "nominatim", "google":
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q: use nominatim or google", cfg.Geocoder)
	}
	cfg.NominatimURL = getenvDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org/")
	cfg.GoogleGeocodingAPIKey = os.Getenv("GOOGLE_GEOCODING_API_KEY")
	if cfg.Geocoder == "google" && cfg.GoogleGeocodingAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_GEOCODING_API_KEY is required when GEOCODER=google")
	}
	cfg.GeocodeCountry = getenvDefault("GEOCODE_COUNTRY", "Deutschland")
	cfg.GeocodeCacheFile = os.Getenv("GEOCODE_CACHE_FILE")

	var err error
	if cfg.GeocodeTimeout, err = getenvDuration("GEOCODE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.StoreTimeout, err = getenvDuration("STORE_TIMEOUT", "10s"); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	// 60 days of history.
	if cfg.LookbackWindow, err = getenvDuration("LOOKBACK_WINDOW", "1440h"); err != nil {
		return nil, err
	}
	if cfg.IngestInterval, err = getenvDuration("INGEST_INTERVAL", "6h"); err != nil {
		return nil, err
	}
	if cfg.IngestPause, err = getenvDuration("INGEST_PAUSE", "1500ms"); err != nil {
		return nil, err
	}
	cfg.IngestRadiusKm = float64(getenvInt("INGEST_RADIUS_KM", 25))

	cities, err := loadCities()
	if err != nil {
		return nil, err
	}
	cfg.Cities = cities

	return cfg, nil
}

// citiesFile is the layout of CITIES_FILE.
type citiesFile struct {
	Cities []string `yaml:"cities"`
}

func loadCities() ([]string, error) {
	if path := os.Getenv("CITIES_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read CITIES_FILE: %w", err)
		}
		var f citiesFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("invalid CITIES_FILE: %w", err)
		}
		if len(f.Cities) == 0 {
			return nil, fmt.Errorf("CITIES_FILE %s lists no cities", path)
		}
		return f.Cities, nil
	}

	if cities := common.SplitList(os.Getenv("CITIES")); len(cities) > 0 {
		return cities, nil
	}
	return append([]string(nil), DefaultCities...), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
