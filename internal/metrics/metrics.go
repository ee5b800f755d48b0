package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP request metrics for the API server
var (
	// HTTPRequestDuration tracks the duration of HTTP requests
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests by method, path, and status",
			Buckets: prometheus.DefBuckets, // Default: .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestsTotal counts the total number of HTTP requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests by method, path, and status",
		},
		[]string{"method", "path", "status"},
	)
)

// Upstream (gateway and billing) metrics
var (
	// UpstreamRequestDuration tracks response time of upstream calls
	UpstreamRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "dashboard_upstream_request_duration_seconds",
			Help: "Response time of upstream calls by upstream host and outcome",
			// Buckets: 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s, 5s, 10s, 30s
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
		},
		[]string{"upstream", "outcome"},
	)

	// UpstreamErrors counts failed upstream calls by kind (unreachable, http, unknown)
	UpstreamErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_upstream_errors_total",
			Help: "Total number of failed upstream calls by upstream host and error kind",
		},
		[]string{"upstream", "kind"},
	)

	// AggregateDegraded counts aggregate sources replaced by their default value
	AggregateDegraded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_aggregate_degraded_total",
			Help: "Total number of dashboard aggregates built with a defaulted source",
		},
		[]string{"source"},
	)
)

// RecordHTTPRequest records the duration and increments the counter for an HTTP request
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
}

// RecordUpstreamCall records the response time of an upstream call
func RecordUpstreamCall(upstream, outcome string, duration time.Duration) {
	UpstreamRequestDuration.WithLabelValues(upstream, outcome).Observe(duration.Seconds())
}

// RecordUpstreamError increments the upstream error counter
func RecordUpstreamError(upstream, kind string) {
	UpstreamErrors.WithLabelValues(upstream, kind).Inc()
}

// RecordDegraded increments the degraded-source counter
func RecordDegraded(source string) {
	AggregateDegraded.WithLabelValues(source).Inc()
}
