package metrics

import (
	"errors"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/dd0wney/cluso-aco/pkg/api/middleware"
	"github.com/dd0wney/cluso-aco/pkg/broadcast"
	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
)

var (
	_ simulation.Recorder        = (*Registry)(nil)
	_ middleware.MetricsRecorder = (*Registry)(nil)
	_ broadcast.Recorder         = (*Registry)(nil)
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Counter.GetValue()
}

func gaugeValueOf(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	return m.Gauge.GetValue()
}

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	if r.HTTPRequestsTotal == nil {
		t.Error("HTTPRequestsTotal not initialized")
	}
	if r.IterationsTotal == nil {
		t.Error("IterationsTotal not initialized")
	}
	if r.BroadcastFramesTotal == nil {
		t.Error("BroadcastFramesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	if DefaultRegistry() != DefaultRegistry() {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	r := NewRegistry()

	r.RecordHTTPRequest("GET", "/session", "200", 10*time.Millisecond)
	r.RecordHTTPRequest("GET", "/session", "200", 20*time.Millisecond)
	r.RecordHTTPRequest("POST", "/session/step", "409", 5*time.Millisecond)

	if got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("GET", "/session", "200")); got != 2 {
		t.Errorf("GET /session 200 = %v, want 2", got)
	}
	if got := counterValue(t, r.HTTPRequestsTotal.WithLabelValues("POST", "/session/step", "409")); got != 1 {
		t.Errorf("POST /session/step 409 = %v, want 1", got)
	}
}

func TestHTTPInFlightAndSize(t *testing.T) {
	r := NewRegistry()

	r.IncHTTPRequestsInFlight()
	r.IncHTTPRequestsInFlight()
	r.DecHTTPRequestsInFlight()
	if got := gaugeValueOf(t, r.HTTPRequestsInFlight); got != 1 {
		t.Errorf("in-flight = %v, want 1", got)
	}

	r.RecordResponseSize("GET", "GET /session", 4096)
	var m dto.Metric
	h := r.HTTPResponseSizeBytes.WithLabelValues("GET", "GET /session").(prometheus.Histogram)
	if err := h.Write(&m); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if m.Histogram.GetSampleCount() != 1 || m.Histogram.GetSampleSum() != 4096 {
		t.Errorf("response size histogram = %d samples, sum %v", m.Histogram.GetSampleCount(), m.Histogram.GetSampleSum())
	}
}

func TestRecordIteration(t *testing.T) {
	r := NewRegistry()

	r.RecordIteration(colony.Result{
		Iteration:     1,
		Arrived:       3,
		Stuck:         2,
		IterationBest: colony.Route{Path: []int{0, 1}, Cost: 40},
		Best:          colony.Route{Path: []int{0, 1}, Cost: 40},
		Found:         true,
		Improved:      true,
		Duration:      time.Millisecond,
	}, pheromone.Stats{Min: 0.01, Max: 4.5, Mean: 1.2})

	r.RecordIteration(colony.Result{
		Iteration:     2,
		Stuck:         5,
		IterationBest: colony.Route{Cost: math.Inf(1)},
		Best:          colony.Route{Path: []int{0, 1}, Cost: 40},
		Found:         true,
		NoPathFound:   true,
	}, pheromone.Stats{Min: 0.01, Max: 3.8, Mean: 1.0})

	if got := counterValue(t, r.IterationsTotal); got != 2 {
		t.Errorf("IterationsTotal = %v, want 2", got)
	}
	if got := counterValue(t, r.AgentsTotal.WithLabelValues("arrived")); got != 3 {
		t.Errorf("arrived = %v, want 3", got)
	}
	if got := counterValue(t, r.AgentsTotal.WithLabelValues("stuck")); got != 7 {
		t.Errorf("stuck = %v, want 7", got)
	}
	if got := counterValue(t, r.NoPathIterationsTotal); got != 1 {
		t.Errorf("NoPathIterationsTotal = %v, want 1", got)
	}
	if got := counterValue(t, r.ImprovementsTotal); got != 1 {
		t.Errorf("ImprovementsTotal = %v, want 1", got)
	}
	if got := gaugeValueOf(t, r.BestCost); got != 40 {
		t.Errorf("BestCost = %v, want 40", got)
	}
	if got := gaugeValueOf(t, r.IterationBestCost); !math.IsNaN(got) {
		t.Errorf("IterationBestCost = %v, want NaN", got)
	}
	if got := gaugeValueOf(t, r.PheromoneMax); got != 3.8 {
		t.Errorf("PheromoneMax = %v, want 3.8", got)
	}
}

func TestRecordDisruption(t *testing.T) {
	r := NewRegistry()
	r.RecordDisruption(true)
	r.RecordDisruption(true)
	r.RecordDisruption(false)

	if got := counterValue(t, r.DisruptionsTotal.WithLabelValues("true")); got != 2 {
		t.Errorf("applied = %v, want 2", got)
	}
	if got := counterValue(t, r.DisruptionsTotal.WithLabelValues("false")); got != 1 {
		t.Errorf("ignored = %v, want 1", got)
	}
}

func TestRecordState(t *testing.T) {
	r := NewRegistry()
	r.RecordState("running")
	r.RecordState("paused")

	for _, tt := range []struct {
		state string
		want  float64
	}{
		{"idle", 0},
		{"running", 0},
		{"paused", 1},
		{"completed", 0},
	} {
		if got := gaugeValueOf(t, r.SessionState.WithLabelValues(tt.state)); got != tt.want {
			t.Errorf("SessionState{%s} = %v, want %v", tt.state, got, tt.want)
		}
	}
}

func TestRecordBroadcast(t *testing.T) {
	r := NewRegistry()
	r.RecordBroadcast(512, nil)
	r.RecordBroadcast(0, errors.New("closed"))

	if got := counterValue(t, r.BroadcastFramesTotal.WithLabelValues("sent")); got != 1 {
		t.Errorf("sent = %v, want 1", got)
	}
	if got := counterValue(t, r.BroadcastFramesTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("error = %v, want 1", got)
	}
}

func TestUpdateSystemMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpdateSystemMetrics()

	if got := gaugeValueOf(t, r.GoRoutines); got < 1 {
		t.Errorf("GoRoutines = %v, want >= 1", got)
	}
	if got := gaugeValueOf(t, r.MemorySysBytes); got <= 0 {
		t.Errorf("MemorySysBytes = %v, want > 0", got)
	}
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.IterationsTotal.Add(3)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "aco_iterations_total 3") {
		t.Errorf("exposition missing aco_iterations_total:\n%s", body)
	}
}
