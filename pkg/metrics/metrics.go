// Package metrics exposes Prometheus instrumentation for content
// operations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// OperationsTotal counts content operations by name and outcome. The
	// outcome label is "ok" or the error code name.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "contents",
			Name:      "operations_total",
			Help:      "Content operations by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// OperationDuration observes content operation latency.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "inkwell",
			Subsystem: "contents",
			Name:      "operation_duration_seconds",
			Help:      "Content operation latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// HTTPRequestsTotal counts API requests by method, route pattern, and
	// status code.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "inkwell",
			Subsystem: "api",
			Name:      "requests_total",
			Help:      "API requests by method, route, and status.",
		},
		[]string{"method", "route", "status"},
	)
)

// ObserveOperation records one content operation with its latency and
// outcome.
func ObserveOperation(operation, outcome string, start time.Time) {
	OperationsTotal.WithLabelValues(operation, outcome).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler returns the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
