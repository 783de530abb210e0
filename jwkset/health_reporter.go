package jwkset

import (
	"context"
	"sync"
)

// HealthReporter wraps a source and publishes a HealthReport after every
// call, succeed or fail. It also keeps the most recent report so a liveness
// endpoint can query status without waiting on a fresh call.
type HealthReporter struct {
	inner JWKSetSource
	bus   *EventBus
	name  string

	mu   sync.RWMutex
	last HealthReport
}

// NewHealthReporter wraps inner with health reporting.
func NewHealthReporter(name string, inner JWKSetSource, bus *EventBus) *HealthReporter {
	return &HealthReporter{
		inner: inner,
		bus:   bus,
		name:  name,
		last:  HealthReport{baseEvent: newBaseEvent(name), Status: Healthy},
	}
}

// Get implements JWKSetSource.
func (s *HealthReporter) Get(evaluator RefreshEvaluator, now int64, ctx context.Context) (*JWKSet, error) {
	set, err := s.inner.Get(evaluator, now, ctx)

	report := HealthReport{
		baseEvent: newBaseEvent(s.name),
		Timestamp: now,
	}
	if err != nil {
		report.Status = NotHealthy
		report.Err = err
	} else {
		report.Status = Healthy
	}

	s.mu.Lock()
	s.last = report
	s.mu.Unlock()
	s.bus.Publish(report)

	return set, err
}

// LastReport returns the most recent HealthReport observed, without making
// a call of its own.
func (s *HealthReporter) LastReport() HealthReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// Close implements JWKSetSource, closing the wrapped source.
func (s *HealthReporter) Close() error { return s.inner.Close() }

var _ JWKSetSource = (*HealthReporter)(nil)
