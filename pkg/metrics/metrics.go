package metrics

import (
	"math"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
)

// sessionStates are the label values of SessionState. They match
// simulation.State names.
var sessionStates = []string{"idle", "running", "paused", "completed"}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// RecordHTTPRequest records an HTTP request with its duration
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordResponseSize records the size of an HTTP response body.
func (r *Registry) RecordResponseSize(method, path string, size float64) {
	r.HTTPResponseSizeBytes.WithLabelValues(method, path).Observe(size)
}

// IncHTTPRequestsInFlight increments the in-flight request gauge.
func (r *Registry) IncHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Inc()
}

// DecHTTPRequestsInFlight decrements the in-flight request gauge.
func (r *Registry) DecHTTPRequestsInFlight() {
	r.HTTPRequestsInFlight.Dec()
}

// RecordIteration records one committed colony iteration.
func (r *Registry) RecordIteration(res colony.Result, tau pheromone.Stats) {
	r.IterationsTotal.Inc()
	r.AgentsTotal.WithLabelValues("arrived").Add(float64(res.Arrived))
	r.AgentsTotal.WithLabelValues("stuck").Add(float64(res.Stuck))
	r.IterationDuration.Observe(res.Duration.Seconds())

	r.BestCost.Set(gaugeValue(res.Best.Cost))
	r.IterationBestCost.Set(gaugeValue(res.IterationBest.Cost))
	if res.NoPathFound {
		r.NoPathIterationsTotal.Inc()
	}
	if res.Improved {
		r.ImprovementsTotal.Inc()
	}

	r.PheromoneMax.Set(tau.Max)
	r.PheromoneMean.Set(tau.Mean)
}

// RecordDisruption counts a disruption request.
func (r *Registry) RecordDisruption(applied bool) {
	r.DisruptionsTotal.WithLabelValues(strconv.FormatBool(applied)).Inc()
}

// RecordState sets the current session state
func (r *Registry) RecordState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Reset all states
	for _, s := range sessionStates {
		r.SessionState.WithLabelValues(s).Set(0)
	}
	r.SessionState.WithLabelValues(state).Set(1)
}

// RecordBroadcast records one frame sent (or not) to the broadcast socket.
func (r *Registry) RecordBroadcast(size int, err error) {
	if err != nil {
		r.BroadcastFramesTotal.WithLabelValues("error").Inc()
		return
	}
	r.BroadcastFramesTotal.WithLabelValues("sent").Inc()
	r.BroadcastFrameBytes.Observe(float64(size))
}

// UpdateSystemMetrics refreshes uptime, goroutine and memory gauges.
func (r *Registry) UpdateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	r.UptimeSeconds.Set(time.Since(r.started).Seconds())
	r.GoRoutines.Set(float64(runtime.NumGoroutine()))
	r.MemoryAllocBytes.Set(float64(m.Alloc))
	r.MemorySysBytes.Set(float64(m.Sys))
}

// gaugeValue maps "no route" (+Inf) to NaN, which Prometheus renders as a gap.
func gaugeValue(cost float64) float64 {
	if math.IsInf(cost, 0) {
		return math.NaN()
	}
	return cost
}
