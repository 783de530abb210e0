package jwkset

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects Prometheus counters and histograms for the decorator
// stack, in the style of the teacher's workerPoolMetrics: a package-level
// sync.Once-guarded singleton registered lazily on first use so importing
// this package never panics a caller who registers their own collectors
// with the same names more than once.
type Metrics struct {
	RefreshesTotal       *prometheus.CounterVec
	RateLimitRejections  prometheus.Counter
	OutageServedTotal    prometheus.Counter
	WaitQueueDepth        prometheus.Gauge
	FailoverEngagedTotal prometheus.Counter
	InnerCallDuration    prometheus.Histogram
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

// GetMetrics returns the process-wide Metrics singleton, registering its
// collectors on first call.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			RefreshesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "jwkset_refreshes_total",
				Help: "Total number of JWK set refresh attempts by outcome",
			}, []string{"outcome"}),
			RateLimitRejections: promauto.NewCounter(prometheus.CounterOpts{
				Name: "jwkset_rate_limit_rejections_total",
				Help: "Total number of calls rejected by the rate limiter",
			}),
			OutageServedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "jwkset_outage_served_total",
				Help: "Total number of calls served from the outage fallback cache",
			}),
			WaitQueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "jwkset_wait_queue_depth",
				Help: "Current number of goroutines waiting on an in-progress refresh",
			}),
			FailoverEngagedTotal: promauto.NewCounter(prometheus.CounterOpts{
				Name: "jwkset_failover_engaged_total",
				Help: "Total number of times the secondary JWK source was used after a primary failure",
			}),
			InnerCallDuration: promauto.NewHistogram(prometheus.HistogramOpts{
				Name:    "jwkset_inner_call_duration_seconds",
				Help:    "Duration of calls to the innermost (leaf) JWK set source",
				Buckets: prometheus.DefBuckets,
			}),
		}
	})
	return metricsInstance
}

// Observe subscribes a Listener on bus that feeds Metrics from published
// Events, decoupling every decorator from Prometheus directly.
func (m *Metrics) Observe(bus *EventBus) {
	bus.Subscribe(func(ev Event) {
		switch e := ev.(type) {
		case RefreshCompleted:
			m.RefreshesTotal.WithLabelValues("success").Inc()
			m.WaitQueueDepth.Set(float64(e.QueueLength))
		case UnableToRefresh:
			m.RefreshesTotal.WithLabelValues("failure").Inc()
		case ScheduledRefreshCompleted:
			m.RefreshesTotal.WithLabelValues("scheduled_success").Inc()
		case ScheduledRefreshFailed:
			m.RefreshesTotal.WithLabelValues("scheduled_failure").Inc()
		case RateLimited:
			m.RateLimitRejections.Inc()
		case Outage:
			m.OutageServedTotal.Inc()
		case FailoverEngaged:
			m.FailoverEngagedTotal.Inc()
		case WaitingForRefresh:
			m.WaitQueueDepth.Set(float64(e.QueueLength))
		}
	})
}
