package geocode

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bluele/gcache"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

// Lookup asks an external geocoding service for the coordinates of a place.
// found is false when the service knows no such place.
type Lookup interface {
	Lookup(ctx context.Context, place string) (coords fuel.Coordinates, found bool, err error)
}

// CoordinateStore persists resolved coordinates keyed by exact place name.
type CoordinateStore interface {
	LoadCoordinates(ctx context.Context) (map[string]fuel.CoordinateEntry, error)
	SaveCoordinate(ctx context.Context, entry fuel.CoordinateEntry) error
}

const (
	defaultLRUSize = 1024
	defaultTimeout = 10 * time.Second
)

// Cache resolves place names through an in-memory LRU, then the persistent store, and only
// then the external lookup. It implements fuel.Resolver.
type Cache struct {
	lru     gcache.Cache
	store   CoordinateStore
	lookup  Lookup
	timeout time.Duration
	now     func() time.Time
}

// NewCache creates a Cache. A non-positive timeout falls back to 10s.
func NewCache(lookup Lookup, store CoordinateStore, timeout time.Duration) *Cache {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Cache{
		lru:     gcache.New(defaultLRUSize).LRU().Build(),
		store:   store,
		lookup:  lookup,
		timeout: timeout,
		now:     time.Now,
	}
}

// Resolve returns the coordinates of place. Unknown places return found=false and are not
// cached. Lookup failures wrap fuel.ErrGeocoderUnavailable.
func (c *Cache) Resolve(ctx context.Context, place string) (fuel.Coordinates, bool, error) {
	if v, err := c.lru.GetIFPresent(place); err == nil {
		if coords, ok := v.(fuel.Coordinates); ok {
			return coords, true, nil
		}
	}

	if entry, ok := c.loadPersisted(ctx, place); ok {
		coords := entry.Coordinates()
		c.remember(place, coords)
		return coords, true, nil
	}

	lctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	coords, found, err := c.lookup.Lookup(lctx, place)
	if err != nil {
		if errors.Is(err, fuel.ErrGeocoderUnavailable) {
			return fuel.Coordinates{}, false, err
		}
		return fuel.Coordinates{}, false, fmt.Errorf("%w: %s: %w", fuel.ErrGeocoderUnavailable, place, err)
	}
	if !found {
		return fuel.Coordinates{}, false, nil
	}

	entry := fuel.CoordinateEntry{
		PlaceName: place,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		CreatedAt: c.now().UTC(),
	}
	if err := c.store.SaveCoordinate(ctx, entry); err != nil {
		log.Printf("ERROR: failed to persist coordinates for %q: %v", place, err)
	}
	c.remember(place, coords)

	log.Printf("DEBUG: geocoded %q to %.5f,%.5f", place, coords.Latitude, coords.Longitude)
	return coords, true, nil
}

func (c *Cache) loadPersisted(ctx context.Context, place string) (fuel.CoordinateEntry, bool) {
	entries, err := c.store.LoadCoordinates(ctx)
	if err != nil {
		log.Printf("ERROR: failed to load coordinate cache: %v", err)
		return fuel.CoordinateEntry{}, false
	}
	entry, ok := entries[place]
	return entry, ok
}

func (c *Cache) remember(place string, coords fuel.Coordinates) {
	if err := c.lru.Set(place, coords); err != nil {
		log.Printf("DEBUG: lru set %q: %v", place, err)
	}
}
