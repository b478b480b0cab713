package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Status transitions, by entity level and edge.
	StatusTransitionCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_transition_count",
			Help: "Total number of status transitions applied",
		},
		[]string{"level", "from", "to"},
	)

	// Cascade duration (seconds).
	CascadeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cascade_duration_seconds",
			Help:    "Complete-all cascade duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"level"},
	)

	// Available resource slots per category.
	PoolAvailableSlots = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pool_available_slots",
			Help: "Number of available resource slots per category",
		},
		[]string{"category"},
	)

	// Resource compile duration (seconds).
	CompileDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "resource_compile_duration_seconds",
			Help:    "Resource compilation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
		},
		[]string{"outcome"}, // outcome: success, pool_exhausted, conflict, sync_failure
	)

	// External content sync latency (milliseconds).
	SyncPushLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_push_latency_ms",
			Help:    "External content push latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10), // 10ms to ~10s
		},
		[]string{"status"},
	)

	// HTTP request latency (seconds).
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"method", "path", "status"},
	)
)

func RecordStatusTransition(level, from, to string) {
	StatusTransitionCount.WithLabelValues(level, from, to).Inc()
}

func RecordCascadeDuration(level string, duration time.Duration) {
	CascadeDuration.WithLabelValues(level).Observe(duration.Seconds())
}

func SetPoolAvailable(category string, n int) {
	PoolAvailableSlots.WithLabelValues(category).Set(float64(n))
}

func RecordCompileDuration(outcome string, duration time.Duration) {
	CompileDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func RecordSyncPushLatency(status string, duration time.Duration) {
	SyncPushLatency.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
}

func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
