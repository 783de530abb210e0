package jwkset

import (
	"context"

	"github.com/lestrrat-go/jwx/v2/jwk"

	"github.com/NomadCrew/jwkset-resolver/errors"
)

// JWKSelector picks a single key out of a JWKSet, e.g. by key ID or
// algorithm. It reports false when no key in the set satisfies it.
type JWKSelector func(set *JWKSet) (jwk.Key, bool)

// ByKeyID selects the key whose "kid" header matches kid.
func ByKeyID(kid string) JWKSelector {
	return func(set *JWKSet) (jwk.Key, bool) {
		if set == nil {
			return nil, false
		}
		return set.Keys().LookupKeyID(kid)
	}
}

// JWKSource is the caller-facing surface of the decorator stack: a single
// key, resolved by predicate, rather than a whole set.
type JWKSource interface {
	Select(ctx context.Context, now int64, selector JWKSelector) (jwk.Key, error)
	Close() error
}

// SelectorWrapper adapts a JWKSetSource into a JWKSource. A selector miss
// against the currently cached set triggers exactly one re-query using
// ReferenceComparison(observedSet): if the cache has moved on to a new
// instance in the meantime the re-query gets it for free; if it hasn't, the
// inner stack treats the pinned instance as stale and forces one refresh.
// Either way at most one extra call is made per miss.
type SelectorWrapper struct {
	inner JWKSetSource
}

// NewSelectorWrapper adapts inner into a JWKSource.
func NewSelectorWrapper(inner JWKSetSource) *SelectorWrapper {
	return &SelectorWrapper{inner: inner}
}

// Select implements JWKSource.
func (w *SelectorWrapper) Select(ctx context.Context, now int64, selector JWKSelector) (jwk.Key, error) {
	set, err := w.inner.Get(NoRefresh(), now, ctx)
	if err != nil {
		return nil, err
	}
	if key, ok := selector(set); ok {
		return key, nil
	}

	refreshed, err := w.inner.Get(ReferenceComparison(set), now, ctx)
	if err != nil {
		if errors.IsRateLimitReached(err) {
			return nil, errors.KeySource("no key in the JWK set satisfies the selector", nil)
		}
		return nil, err
	}
	if key, ok := selector(refreshed); ok {
		return key, nil
	}

	return nil, errors.KeySource("no key in the JWK set satisfies the selector", nil)
}

// Close implements JWKSource, closing the wrapped source.
func (w *SelectorWrapper) Close() error { return w.inner.Close() }

var _ JWKSource = (*SelectorWrapper)(nil)
