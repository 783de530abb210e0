package jwkset

// RefreshEvaluator is the three-valued coordination token threaded through
// every call in the stack. It lets an inner decorator (the caching layer, in
// particular) tell a stale cache entry from a caller that has just observed
// a specific instance and wants *that* instance invalidated.
type RefreshEvaluator interface {
	// RequiresRefresh reports whether the given cached set, as observed by
	// this evaluator, demands a refresh.
	RequiresRefresh(set *JWKSet) bool
}

type noRefreshEvaluator struct{}

func (noRefreshEvaluator) RequiresRefresh(*JWKSet) bool { return false }

type forceRefreshEvaluator struct{}

func (forceRefreshEvaluator) RequiresRefresh(*JWKSet) bool { return true }

type referenceComparisonEvaluator struct {
	pinned *JWKSet
}

func (e referenceComparisonEvaluator) RequiresRefresh(set *JWKSet) bool {
	return set.Same(e.pinned)
}

// NoRefresh never demands a refresh: use the cache as-is.
func NoRefresh() RefreshEvaluator { return noRefreshEvaluator{} }

// ForceRefresh always demands a refresh regardless of cache state.
func ForceRefresh() RefreshEvaluator { return forceRefreshEvaluator{} }

// ReferenceComparison demands a refresh only if the candidate set is the
// same instance as pinned. A selector miss at the top of the stack arrives
// with ReferenceComparison(observedSet); if the cache has since been
// refreshed to a new instance, no second network call is made.
func ReferenceComparison(pinned *JWKSet) RefreshEvaluator {
	return referenceComparisonEvaluator{pinned: pinned}
}
