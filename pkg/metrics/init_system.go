package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// System gauges are refreshed by UpdateSystemMetrics, not on every scrape.
func (r *Registry) initSystemMetrics() {
	r.UptimeSeconds = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_uptime_seconds",
			Help: "Seconds since the metrics registry was created",
		},
	)

	r.GoRoutines = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_goroutines",
			Help: "Live goroutines, wagon workers included",
		},
	)

	r.MemoryAllocBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_memory_alloc_bytes",
			Help: "Heap bytes currently allocated",
		},
	)

	r.MemorySysBytes = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_memory_sys_bytes",
			Help: "Bytes of memory obtained from the OS",
		},
	)
}
