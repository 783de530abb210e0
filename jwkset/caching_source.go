package jwkset

import (
	"context"
	"sync"
	"time"

	"github.com/NomadCrew/jwkset-resolver/errors"
)

// CachingSource is the central blocking cache: it serves a cached JWKSet
// while it remains valid and, on expiry or an evaluator-demanded refresh,
// lets exactly one goroutine perform the refresh while the rest wait for
// it, bounded by refreshTimeout (a real wall-clock duration independent of
// the caller's logical now). It never swallows a failure: an inner fetch
// error propagates to the caller, and a timed-out wait surfaces as
// JWKSetUnavailable rather than falling back to a stale entry. Serving
// stale data across an outage is OutageSource's job, not this one's.
//
// The single-flight lock is a buffered channel of capacity one rather than
// a sync.Mutex: a channel supports the bounded wait via select/time.After,
// which a bare mutex does not.
type CachingSource struct {
	inner         JWKSetSource
	bus           *EventBus
	name          string
	ttlMillis     int64
	refreshTimeout time.Duration

	cacheMu sync.RWMutex
	cache   *CachedObject

	refreshSem chan struct{}
	waiters    int32
	waitersMu  sync.Mutex
}

// NewCachingSource builds a CachingSource over inner with the given TTL and
// bounded wait-for-refresh timeout.
func NewCachingSource(name string, inner JWKSetSource, bus *EventBus, ttlMillis int64, refreshTimeout time.Duration) *CachingSource {
	sem := make(chan struct{}, 1)
	sem <- struct{}{}
	return &CachingSource{
		inner:          inner,
		bus:            bus,
		name:           name,
		ttlMillis:      ttlMillis,
		refreshTimeout: refreshTimeout,
		refreshSem:     sem,
	}
}

// Get implements JWKSetSource.
func (s *CachingSource) Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	if set, ok := s.freshEnough(evaluator, now); ok {
		return set, nil
	}

	select {
	case <-s.refreshSem:
		return s.refreshLocked(evaluator, now, ctx)
	default:
	}

	s.incWaiters()
	s.bus.Publish(WaitingForRefresh{baseEvent: newBaseEvent(s.name), QueueLength: int(s.loadWaiters())})

	select {
	case <-s.refreshSem:
		s.decWaiters()
		if set, ok := s.freshEnough(evaluator, now); ok {
			s.refreshSem <- struct{}{}
			return set, nil
		}
		return s.refreshLocked(evaluator, now, ctx)
	case <-time.After(s.refreshTimeout):
		s.decWaiters()
		s.bus.Publish(RefreshTimedOut{baseEvent: newBaseEvent(s.name), QueueLength: int(s.loadWaiters())})
		return nil, errors.JWKSetUnavailable("timed out waiting for JWK set refresh", ctx.Err())
	}
}

// refreshLocked assumes the caller holds refreshSem and releases it before
// returning.
func (s *CachingSource) refreshLocked(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	defer func() { s.refreshSem <- struct{}{} }()

	if set, ok := s.freshEnough(evaluator, now); ok {
		return set, nil
	}

	s.bus.Publish(RefreshInitiated{baseEvent: newBaseEvent(s.name), QueueLength: int(s.loadWaiters())})

	set, err := s.inner.Get(evaluator, now, ctx)
	if err != nil {
		s.bus.Publish(UnableToRefresh{baseEvent: newBaseEvent(s.name), Err: err})
		return nil, err
	}

	obj := NewCachedObject(set, now, s.ttlMillis)
	s.cacheMu.Lock()
	s.cache = &obj
	s.cacheMu.Unlock()

	s.bus.Publish(RefreshCompleted{baseEvent: newBaseEvent(s.name), Set: set, QueueLength: int(s.loadWaiters())})
	return set, nil
}

// freshEnough reports whether the current cache entry satisfies evaluator
// and now without a refresh, returning it if so.
func (s *CachingSource) freshEnough(evaluator RefreshEvaluator, now int64) (*JWKSet, bool) {
	cached := s.snapshot()
	if cached == nil {
		return nil, false
	}
	if !cached.IsValid(now) {
		return nil, false
	}
	if evaluator.RequiresRefresh(cached.Value) {
		return nil, false
	}
	return cached.Value, true
}

func (s *CachingSource) snapshot() *CachedObject {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	return s.cache
}

func (s *CachingSource) incWaiters() {
	s.waitersMu.Lock()
	s.waiters++
	s.waitersMu.Unlock()
}

func (s *CachingSource) decWaiters() {
	s.waitersMu.Lock()
	s.waiters--
	s.waitersMu.Unlock()
}

func (s *CachingSource) loadWaiters() int32 {
	s.waitersMu.Lock()
	defer s.waitersMu.Unlock()
	return s.waiters
}

// Close implements JWKSetSource, closing the wrapped source.
func (s *CachingSource) Close() error { return s.inner.Close() }

var _ JWKSetSource = (*CachingSource)(nil)
