package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP labels use the registered route pattern, never the raw URL, so that
// cardinality stays bounded.
func (r *Registry) initHTTPMetrics() {
	r.HTTPRequestsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "aco_http_requests_total",
			Help: "API requests, by method, route and status code",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aco_http_request_duration_seconds",
			Help:    "API request latency; step requests include one colony iteration",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 9),
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestsInFlight = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_http_requests_in_flight",
			Help: "API requests currently being served, open event streams included",
		},
	)

	r.HTTPResponseSizeBytes = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aco_http_response_size_bytes",
			Help:    "API response body size; snapshots grow with the square of the node count",
			Buckets: prometheus.ExponentialBuckets(128, 4, 8),
		},
		[]string{"method", "path"},
	)
}
