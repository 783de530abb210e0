package jwkset

import (
	"context"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// FailoverSource tries a primary JWKSource and, only on failure, falls back
// to a secondary one. It does not merge the two; the secondary is a
// complete independent chain (its own retry, cache, rate limit).
type FailoverSource struct {
	primary   JWKSource
	secondary JWKSource
	bus       *EventBus
	name      string
}

// NewFailoverSource builds a FailoverSource over primary and secondary.
func NewFailoverSource(name string, primary, secondary JWKSource, bus *EventBus) *FailoverSource {
	return &FailoverSource{primary: primary, secondary: secondary, bus: bus, name: name}
}

// Select implements JWKSource.
func (f *FailoverSource) Select(ctx context.Context, now int64, selector JWKSelector) (jwk.Key, error) {
	key, err := f.primary.Select(ctx, now, selector)
	if err == nil {
		return key, nil
	}

	f.bus.Publish(FailoverEngaged{baseEvent: newBaseEvent(f.name), Err: err})
	return f.secondary.Select(ctx, now, selector)
}

// Close closes both the primary and secondary sources, returning the
// primary's error if both fail to close cleanly.
func (f *FailoverSource) Close() error {
	primaryErr := f.primary.Close()
	secondaryErr := f.secondary.Close()
	if primaryErr != nil {
		return primaryErr
	}
	return secondaryErr
}

var _ JWKSource = (*FailoverSource)(nil)
