package jwkset

import (
	"context"
	"sync"

	"github.com/NomadCrew/jwkset-resolver/errors"
)

// maxTokensPerInterval is fixed at two: at most two calls reach the inner
// source within any minTimeInterval window.
const maxTokensPerInterval = 2

// RateLimiter caps the call rate reaching its inner source to two calls per
// minTimeInterval, using the caller-supplied now clock rather than reading
// the wall clock, so it can be driven deterministically in tests.
type RateLimiter struct {
	inner           JWKSetSource
	bus             *EventBus
	name            string
	minIntervalMs   int64

	mu          sync.Mutex
	windowStart int64
	tokensUsed  int
}

// NewRateLimiter wraps inner with a token-bucket limit of two calls per
// minIntervalMs.
func NewRateLimiter(name string, inner JWKSetSource, bus *EventBus, minIntervalMs int64) *RateLimiter {
	return &RateLimiter{
		inner:         inner,
		bus:           bus,
		name:          name,
		minIntervalMs: minIntervalMs,
	}
}

// Get implements JWKSetSource.
func (s *RateLimiter) Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	if !s.acquire(now) {
		s.bus.Publish(RateLimited{baseEvent: newBaseEvent(s.name)})
		return nil, errors.RateLimitReached("JWK set source rate limit reached")
	}
	return s.inner.Get(evaluator, now, ctx)
}

func (s *RateLimiter) acquire(now int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now-s.windowStart >= s.minIntervalMs {
		s.windowStart = now
		s.tokensUsed = 0
	}
	if s.tokensUsed >= maxTokensPerInterval {
		return false
	}
	s.tokensUsed++
	return true
}

// Close implements JWKSetSource, closing the wrapped source.
func (s *RateLimiter) Close() error { return s.inner.Close() }

var _ JWKSetSource = (*RateLimiter)(nil)
