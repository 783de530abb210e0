package jwkset

import "context"

// MemorySource is a leaf JWKSetSource over a fixed, in-memory JWKSet. It
// never fails and never changes, useful for tests and for embedding a
// statically-configured key set in the builder in place of a URL.
type MemorySource struct {
	set *JWKSet
}

// NewMemorySource wraps a fixed set.
func NewMemorySource(set *JWKSet) *MemorySource {
	return &MemorySource{set: set}
}

// Get implements JWKSetSource, always returning the fixed set.
func (s *MemorySource) Get(_ RefreshEvaluator, _ int64, _ context.Context) (*JWKSet, error) {
	return s.set, nil
}

// Close implements JWKSetSource; MemorySource owns no resources.
func (s *MemorySource) Close() error { return nil }

var _ JWKSetSource = (*MemorySource)(nil)
