package jwkset

import (
	"context"

	"github.com/NomadCrew/jwkset-resolver/errors"
)

// RetrySource retries its inner source exactly once, and only when the
// first call fails with JWKSetUnavailable (a transient fetch/parse
// failure). Any other error kind, including RateLimitReached, is
// propagated immediately without a retry. Publishes Retrial before the
// second attempt, and never swallows the second failure.
type RetrySource struct {
	inner JWKSetSource
	bus   *EventBus
	name  string
}

// NewRetrySource wraps inner with a single-retry policy.
func NewRetrySource(name string, inner JWKSetSource, bus *EventBus) *RetrySource {
	return &RetrySource{inner: inner, bus: bus, name: name}
}

// Get implements JWKSetSource.
func (s *RetrySource) Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	set, err := s.inner.Get(evaluator, now, ctx)
	if err == nil {
		return set, nil
	}
	if !errors.IsJWKSetUnavailable(err) {
		return nil, err
	}

	s.bus.Publish(Retrial{baseEvent: newBaseEvent(s.name), Err: err})

	return s.inner.Get(evaluator, now, ctx)
}

// Close implements JWKSetSource, closing the wrapped source.
func (s *RetrySource) Close() error { return s.inner.Close() }

var _ JWKSetSource = (*RetrySource)(nil)
