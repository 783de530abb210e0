// Package jwkset implements a composable decorator stack for resolving JSON
// Web Key Sets (JWKS) from a remote endpoint: a blocking cache with
// single-flight refresh, a refresh-ahead cache with background scheduling, a
// rate limiter, an outage-tolerant fallback cache, a retry wrapper, and a
// selector-driven application facade. Fetching and parsing the wire format
// are external concerns; this package deals only in *jwk.Set and *jwk.Key
// from github.com/lestrrat-go/jwx/v2/jwk.
package jwkset

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSet is an ordered collection of JWKs. It wraps jwk.Set and is held by
// reference through the cache: two fetches that happen to return identical
// key material are still distinguishable, because reference identity (not
// content equality) drives RefreshEvaluator.
type JWKSet struct {
	set jwk.Set
}

// NewJWKSet wraps a jwk.Set value as a JWKSet.
func NewJWKSet(set jwk.Set) *JWKSet {
	return &JWKSet{set: set}
}

// Keys returns the underlying jwx key set.
func (s *JWKSet) Keys() jwk.Set {
	if s == nil {
		return nil
	}
	return s.set
}

// Len reports the number of keys in the set.
func (s *JWKSet) Len() int {
	if s == nil || s.set == nil {
		return 0
	}
	return s.set.Len()
}

// Clone returns a distinct *JWKSet instance holding the same key material.
// OutageSource uses this so that an upper ReferenceComparison evaluator
// cannot mistake a stale-but-served set for the pinned instance it expects.
func (s *JWKSet) Clone() *JWKSet {
	if s == nil || s.set == nil {
		return &JWKSet{set: jwk.NewSet()}
	}
	clone := jwk.NewSet()
	ctx := context.Background()
	it := s.set.Keys(ctx)
	for it.Next(ctx) {
		key, _ := it.Pair().Value.(jwk.Key)
		if key != nil {
			_ = clone.AddKey(key)
		}
	}
	return &JWKSet{set: clone}
}

// Same reports whether s and other are the identical instance. This is the
// reference-identity comparison spec's design notes call for: content
// equality would mask a refresh that happened to yield identical keys.
func (s *JWKSet) Same(other *JWKSet) bool {
	return s == other
}

// nowMillis converts a time.Time to the epoch-millisecond clock the core
// threads through every call.
func nowMillis(t time.Time) int64 {
	return t.UnixMilli()
}
