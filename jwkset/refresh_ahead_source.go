package jwkset

import (
	"context"
	"sync"
	"time"
)

// RefreshAheadSource extends CachingSource with proactive background
// refresh, in two complementary modes:
//
//   - lazy (always on): once an access finds the cached entry within
//     refreshAheadMillis of its expiration, a single background task is
//     scheduled to refresh it before any caller has to block. A
//     cacheExpirationMarker (the cached entry's own pointer identity)
//     guarantees at most one scheduled refresh per cache generation.
//   - scheduled (opt-in via the scheduled constructor flag): every
//     successful foreground (blocking) refresh additionally arms a
//     one-shot timer to fire at expirationTime - refreshAheadMillis -
//     cacheRefreshTimeout, cancelling any previously armed timer. This
//     covers keys nobody accesses again before they'd otherwise go stale.
//
// Both modes submit to the same single-worker executor; a task dropped
// because the worker is busy is not retried, since the lazy path will pick
// up the slack on the next access.
type RefreshAheadSource struct {
	*CachingSource

	refreshAheadMillis int64
	scheduled          bool
	exec               *executor

	schedMu  sync.Mutex
	schedFor *CachedObject

	timerMu        sync.Mutex
	scheduledTimer *time.Timer
}

// NewRefreshAheadSource builds a RefreshAheadSource over inner. When
// scheduled is true, it also arms the timer-based refresh mode described on
// RefreshAheadSource.
func NewRefreshAheadSource(name string, inner JWKSetSource, bus *EventBus, ttlMillis int64, refreshTimeout time.Duration, refreshAheadMillis int64, scheduled bool) *RefreshAheadSource {
	s := &RefreshAheadSource{
		CachingSource:      NewCachingSource(name, inner, bus, ttlMillis, refreshTimeout),
		refreshAheadMillis: refreshAheadMillis,
		scheduled:          scheduled,
		exec:               newExecutor(1),
	}
	if scheduled {
		bus.Subscribe(func(ev Event) {
			rc, ok := ev.(RefreshCompleted)
			if !ok || rc.SourceName() != name {
				return
			}
			s.armScheduledTimer()
		})
	}
	return s
}

// Get implements JWKSetSource: it delegates to the blocking cache and then,
// on the calling goroutine's way out, checks whether a refresh-ahead should
// be scheduled.
func (s *RefreshAheadSource) Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	set, err := s.CachingSource.Get(evaluator, now, ctx)
	if err != nil {
		return nil, err
	}
	s.maybeScheduleRefreshAhead(now)
	return set, nil
}

func (s *RefreshAheadSource) maybeScheduleRefreshAhead(now int64) {
	cached := s.snapshot()
	if cached == nil || cached.ExpirationTime == NeverExpires {
		return
	}
	if cached.ExpirationTime-now > s.refreshAheadMillis {
		return
	}

	s.schedMu.Lock()
	if s.schedFor == cached {
		s.schedMu.Unlock()
		s.bus.Publish(RefreshNotScheduled{baseEvent: newBaseEvent(s.name)})
		return
	}
	s.schedFor = cached
	s.schedMu.Unlock()

	s.bus.Publish(RefreshScheduled{baseEvent: newBaseEvent(s.name)})
	s.exec.submit(func() { s.runScheduledRefresh(cached) })
}

func (s *RefreshAheadSource) runScheduledRefresh(generation *CachedObject) {
	s.bus.Publish(ScheduledRefreshInitiated{baseEvent: newBaseEvent(s.name)})

	bgNow := nowMillis(time.Now())
	set, err := s.inner.Get(ForceRefresh(), bgNow, context.Background())
	if err != nil {
		s.bus.Publish(ScheduledRefreshFailed{baseEvent: newBaseEvent(s.name), Err: err})
		s.schedMu.Lock()
		if s.schedFor == generation {
			s.schedFor = nil
		}
		s.schedMu.Unlock()
		if generation != nil && bgNow >= generation.ExpirationTime {
			s.bus.Publish(UnableToRefreshAheadOfExpiration{baseEvent: newBaseEvent(s.name)})
		}
		return
	}

	obj := NewCachedObject(set, bgNow, s.ttlMillis)
	s.cacheMu.Lock()
	s.cache = &obj
	s.cacheMu.Unlock()

	s.bus.Publish(ScheduledRefreshCompleted{baseEvent: newBaseEvent(s.name), Set: set})
}

// armScheduledTimer fires after every successful foreground refresh when
// scheduled mode is on. It computes the delay until
// expirationTime - refreshAheadMillis - cacheRefreshTimeout and arms a
// one-shot timer for it, cancelling whatever timer was previously armed:
// only the most recent cache generation's timer should ever be live.
func (s *RefreshAheadSource) armScheduledTimer() {
	cached := s.snapshot()
	if cached == nil || cached.ExpirationTime == NeverExpires {
		return
	}

	fireAt := cached.ExpirationTime - s.refreshAheadMillis - s.refreshTimeout.Milliseconds()
	delay := time.Duration(fireAt-nowMillis(time.Now())) * time.Millisecond
	if delay < 0 {
		delay = 0
	}

	s.timerMu.Lock()
	if s.scheduledTimer != nil {
		s.scheduledTimer.Stop()
	}
	s.scheduledTimer = time.AfterFunc(delay, func() {
		s.exec.submit(func() { s.runScheduledRefresh(cached) })
	})
	s.timerMu.Unlock()
}

// Close shuts down the background executor, bounded by the cache refresh
// timeout, cancels any armed scheduled timer, and then closes the wrapped
// source.
func (s *RefreshAheadSource) Close() error {
	s.timerMu.Lock()
	if s.scheduledTimer != nil {
		s.scheduledTimer.Stop()
	}
	s.timerMu.Unlock()

	_ = s.exec.shutdown(s.refreshTimeout)
	return s.CachingSource.Close()
}

var _ JWKSetSource = (*RefreshAheadSource)(nil)
