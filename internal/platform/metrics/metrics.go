package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application. Construction
// takes an explicit registerer so tests can use isolated registries.
type Metrics struct {
	EventsRecorded       prometheus.Counter
	TransitionsTotal     *prometheus.CounterVec
	ScoringFailures      prometheus.Counter
	ConcurrencyConflicts prometheus.Counter
	ActiveEvents         prometheus.Gauge
	PartRequestsTotal    prometheus.Counter
	HTTPDuration         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "craneguard_events_recorded_total",
			Help: "Total number of telemetry events recorded",
		}),
		TransitionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "craneguard_event_transitions_total",
			Help: "Total number of successful event lifecycle transitions by action",
		}, []string{"action"}),
		ScoringFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "craneguard_scoring_failures_total",
			Help: "Total number of scoring/prescription adapter failures",
		}),
		ConcurrencyConflicts: factory.NewCounter(prometheus.CounterOpts{
			Name: "craneguard_concurrency_conflicts_total",
			Help: "Total number of optimistic concurrency conflicts on event mutations",
		}),
		ActiveEvents: factory.NewGauge(prometheus.GaugeOpts{
			Name: "craneguard_active_events",
			Help: "Number of events currently in active status",
		}),
		PartRequestsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "craneguard_part_requests_total",
			Help: "Total number of spare part restock requests",
		}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "craneguard_http_request_duration_seconds",
			Help:    "HTTP request latency by route and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}
