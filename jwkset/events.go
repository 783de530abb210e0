package jwkset

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/NomadCrew/jwkset-resolver/logger"
)

// Event is the tagged-variant taxonomy emitted by decorators. Every concrete
// event type carries the name of the source that raised it. baseEvent has a
// Context field, but no decorator in this package sets it, so it is always
// nil on published events.
type Event interface {
	// SourceName identifies the decorator instance that raised the event,
	// e.g. "CachingSource" or a caller-assigned name.
	SourceName() string
	// CorrelationID is a fresh identifier stamped on each event when it is
	// built. Events raised during the same Get/Select call do not share it.
	CorrelationID() string
}

type baseEvent struct {
	Source  string
	Context interface{}
	corrID  string
}

func (e baseEvent) SourceName() string    { return e.Source }
func (e baseEvent) CorrelationID() string { return e.corrID }

// newBaseEvent builds a baseEvent stamped with a fresh correlation ID, used
// by every decorator at the point it publishes an event.
func newBaseEvent(source string) baseEvent {
	return baseEvent{Source: source, corrID: uuid.NewString()}
}

// RefreshInitiated is emitted when a CachingSource begins a synchronous
// refresh. QueueLength estimates how many goroutines are currently waiting
// on the refresh mutex.
type RefreshInitiated struct {
	baseEvent
	QueueLength int
}

// RefreshCompleted is emitted when a synchronous refresh succeeds.
type RefreshCompleted struct {
	baseEvent
	Set         *JWKSet
	QueueLength int
}

// WaitingForRefresh is emitted when a caller could not acquire the refresh
// mutex immediately and is waiting with a timeout.
type WaitingForRefresh struct {
	baseEvent
	QueueLength int
}

// RefreshTimedOut is emitted when a waiter's timed lock acquisition expires.
type RefreshTimedOut struct {
	baseEvent
	QueueLength int
}

// UnableToRefresh is emitted when a CachingSource's synchronous refresh
// fails; the inner error is then returned to the caller.
type UnableToRefresh struct {
	baseEvent
	Err error
}

// RefreshScheduled is emitted when RefreshAheadSource schedules a one-shot
// background refresh.
type RefreshScheduled struct{ baseEvent }

// RefreshNotScheduled is emitted when a scheduling attempt is skipped
// because one is already pending for the current cache generation.
type RefreshNotScheduled struct{ baseEvent }

// ScheduledRefreshInitiated is emitted when the lazy or scheduled background
// refresh task starts running.
type ScheduledRefreshInitiated struct{ baseEvent }

// ScheduledRefreshCompleted is emitted when a background refresh succeeds.
type ScheduledRefreshCompleted struct {
	baseEvent
	Set *JWKSet
}

// ScheduledRefreshFailed is emitted when a background refresh fails. The
// failure is never surfaced to a caller; it only resets internal state so a
// future request can retry.
type ScheduledRefreshFailed struct {
	baseEvent
	Err error
}

// UnableToRefreshAheadOfExpiration is emitted when a background refresh
// could not complete before its cache generation's expiry.
type UnableToRefreshAheadOfExpiration struct{ baseEvent }

// RateLimited is emitted when the RateLimiter rejects a call.
type RateLimited struct{ baseEvent }

// Retrial is emitted when RetrySource attempts its single retry.
type Retrial struct {
	baseEvent
	Err error
}

// Outage is emitted when OutageSource serves a cached set because the
// upstream call failed.
type Outage struct {
	baseEvent
	Err           error
	RemainingTime int64
}

// FailoverEngaged is emitted when FailoverSource falls back to its
// secondary JWKSource because the primary failed.
type FailoverEngaged struct {
	baseEvent
	Err error
}

// HealthStatus is the two-valued status carried by a HealthReport.
type HealthStatus int

const (
	// Healthy indicates the wrapped call succeeded.
	Healthy HealthStatus = iota
	// NotHealthy indicates the wrapped call failed; Err is always non-nil.
	NotHealthy
)

// HealthReport is emitted by HealthReporter after every call.
type HealthReport struct {
	baseEvent
	Status    HealthStatus
	Err       error
	Timestamp int64
}

// Listener receives every event published through an EventBus. Listeners
// run synchronously on the publishing goroutine's call to Publish; a slow
// listener slows the caller.
type Listener func(Event)

// eventBusMetrics mirrors the teacher's router metrics: a gauge of
// registered listeners and a counter of events published by concrete type.
type eventBusMetrics struct {
	listenerCount   prometheus.Gauge
	eventsPublished *prometheus.CounterVec
}

var (
	busMetricsOnce     sync.Once
	busMetricsInstance *eventBusMetrics
)

func getEventBusMetrics() *eventBusMetrics {
	busMetricsOnce.Do(func() {
		busMetricsInstance = &eventBusMetrics{
			listenerCount: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "jwkset_event_listeners",
				Help: "Current number of listeners registered on the JWK set event bus",
			}),
			eventsPublished: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jwkset_events_published_total",
				Help: "Total number of events published by concrete event type",
			}, []string{"event_type"}),
		}
	})
	return busMetricsInstance
}

// EventBus dispatches Events to zero or more registered Listeners. A nil
// *EventBus is valid and Publish on it is a no-op, matching the
// optional-listener design note in the specification.
type EventBus struct {
	mu        sync.RWMutex
	listeners []Listener
	log       *zap.SugaredLogger
	metrics   *eventBusMetrics
}

// NewEventBus creates an EventBus with no listeners attached.
func NewEventBus() *EventBus {
	return &EventBus{
		log:     logger.GetLogger().Named("jwkset.events"),
		metrics: getEventBusMetrics(),
	}
}

// Subscribe registers a listener invoked for every event published
// afterwards.
func (b *EventBus) Subscribe(l Listener) {
	if b == nil || l == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
	b.metrics.listenerCount.Set(float64(len(b.listeners)))
}

// Publish dispatches ev to every registered listener. Safe to call on a nil
// *EventBus.
func (b *EventBus) Publish(ev Event) {
	if b == nil {
		return
	}
	b.mu.RLock()
	listeners := make([]Listener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	eventType := fmt.Sprintf("%T", ev)
	b.metrics.eventsPublished.WithLabelValues(eventType).Inc()

	if len(listeners) == 0 {
		b.log.Debugw("event published with no listeners", "event", eventType)
		return
	}
	for _, l := range listeners {
		l(ev)
	}
}
