package geocode

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/fuel-price-forecast/internal/fuel"
)

type lookupResult struct {
	coords fuel.Coordinates
	found  bool
}

// BreakerLookup guards a Lookup with a circuit breaker. A place that is not found counts as
// a successful call; only transport failures trip the breaker.
type BreakerLookup struct {
	next Lookup
	cb   *gobreaker.CircuitBreaker
}

func WithBreaker(name string, next Lookup) *BreakerLookup {
	return &BreakerLookup{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 3,
			Interval:    1 * time.Minute,
			Timeout:     30 * time.Second,
		}),
	}
}

func (b *BreakerLookup) Lookup(ctx context.Context, place string) (fuel.Coordinates, bool, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		coords, found, err := b.next.Lookup(ctx, place)
		if err != nil {
			return nil, err
		}
		return lookupResult{coords: coords, found: found}, nil
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fuel.Coordinates{}, false, fmt.Errorf("%w: circuit breaker open", fuel.ErrGeocoderUnavailable)
		}
		return fuel.Coordinates{}, false, err
	}

	r, ok := result.(lookupResult)
	if !ok {
		return fuel.Coordinates{}, false, fmt.Errorf("unexpected result type from circuit breaker")
	}
	return r.coords, r.found, nil
}
