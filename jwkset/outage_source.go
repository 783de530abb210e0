package jwkset

import (
	"context"
	"sync"
)

// OutageSource tolerates transient failures of its inner source by serving
// the last successfully retrieved set, cloned so the caller's reference
// never aliases the value this decorator keeps, for up to maxOutageMillis
// past the last successful call. Once that window elapses it gives up and
// returns the inner error.
type OutageSource struct {
	inner           JWKSetSource
	bus             *EventBus
	name            string
	maxOutageMillis int64

	mu            sync.RWMutex
	lastGood      *JWKSet
	lastGoodAt    int64
	haveLastGood  bool
}

// NewOutageSource wraps inner with an outage tolerance window.
func NewOutageSource(name string, inner JWKSetSource, bus *EventBus, maxOutageMillis int64) *OutageSource {
	return &OutageSource{
		inner:           inner,
		bus:             bus,
		name:            name,
		maxOutageMillis: maxOutageMillis,
	}
}

// Get implements JWKSetSource.
func (s *OutageSource) Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	set, err := s.inner.Get(evaluator, now, ctx)
	if err == nil {
		s.mu.Lock()
		s.lastGood = set
		s.lastGoodAt = now
		s.haveLastGood = true
		s.mu.Unlock()
		return set, nil
	}

	s.mu.RLock()
	lastGood, lastGoodAt, haveLastGood := s.lastGood, s.lastGoodAt, s.haveLastGood
	s.mu.RUnlock()

	if !haveLastGood {
		return nil, err
	}

	elapsed := now - lastGoodAt
	remaining := s.maxOutageMillis - elapsed
	if remaining <= 0 {
		return nil, err
	}

	clone := lastGood.Clone()
	if evaluator.RequiresRefresh(clone) {
		return nil, err
	}

	s.bus.Publish(Outage{baseEvent: newBaseEvent(s.name), Err: err, RemainingTime: remaining})
	return clone, nil
}

// Close implements JWKSetSource, closing the wrapped source.
func (s *OutageSource) Close() error { return s.inner.Close() }

var _ JWKSetSource = (*OutageSource)(nil)
