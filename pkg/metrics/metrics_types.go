package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds all metrics for the application
type Registry struct {
	// HTTP Metrics
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	HTTPRequestsInFlight  prometheus.Gauge
	HTTPResponseSizeBytes *prometheus.HistogramVec

	// Simulation Metrics
	IterationsTotal       prometheus.Counter
	AgentsTotal           *prometheus.CounterVec
	IterationDuration     prometheus.Histogram
	BestCost              prometheus.Gauge
	IterationBestCost     prometheus.Gauge
	NoPathIterationsTotal prometheus.Counter
	ImprovementsTotal     prometheus.Counter
	DisruptionsTotal      *prometheus.CounterVec
	SessionState          *prometheus.GaugeVec
	PheromoneMax          prometheus.Gauge
	PheromoneMean         prometheus.Gauge

	// Broadcast Metrics
	BroadcastFramesTotal *prometheus.CounterVec
	BroadcastFrameBytes  prometheus.Histogram

	// System Metrics
	UptimeSeconds    prometheus.Gauge
	GoRoutines       prometheus.Gauge
	MemoryAllocBytes prometheus.Gauge
	MemorySysBytes   prometheus.Gauge

	registry *prometheus.Registry
	started  time.Time
	mu       sync.Mutex
}

var (
	// Global registry instance
	defaultRegistry *Registry
	once            sync.Once
)

// DefaultRegistry returns the global metrics registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{
		registry: prometheus.NewRegistry(),
		started:  time.Now(),
	}

	r.initHTTPMetrics()
	r.initSimulationMetrics()
	r.initBroadcastMetrics()
	r.initSystemMetrics()

	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
