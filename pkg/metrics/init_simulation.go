package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func (r *Registry) initSimulationMetrics() {
	r.IterationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "aco_iterations_total",
			Help: "Total number of committed colony iterations",
		},
	)

	r.AgentsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "aco_agents_total",
			Help: "Wagons released, by outcome",
		},
		[]string{"outcome"},
	)

	r.IterationDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "aco_iteration_duration_seconds",
			Help:    "Wall time of one colony iteration",
			Buckets: prometheus.ExponentialBuckets(0.00005, 2, 14),
		},
	)

	r.BestCost = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_best_cost",
			Help: "Cost of the best route since the last reset (NaN when none)",
		},
	)

	r.IterationBestCost = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_iteration_best_cost",
			Help: "Cost of the cheapest route found by the latest iteration (NaN when none)",
		},
	)

	r.NoPathIterationsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "aco_no_path_iterations_total",
			Help: "Iterations in which every wagon got stuck",
		},
	)

	r.ImprovementsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "aco_best_improvements_total",
			Help: "Iterations that replaced the best route",
		},
	)

	r.DisruptionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "aco_disruptions_total",
			Help: "Disruption requests, by whether an edge was changed",
		},
		[]string{"applied"},
	)

	r.SessionState = promauto.With(r.registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "aco_session_state",
			Help: "1 for the current session state, 0 otherwise",
		},
		[]string{"state"},
	)

	r.PheromoneMax = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_pheromone_max",
			Help: "Highest off-diagonal pheromone level",
		},
	)

	r.PheromoneMean = promauto.With(r.registry).NewGauge(
		prometheus.GaugeOpts{
			Name: "aco_pheromone_mean",
			Help: "Mean off-diagonal pheromone level",
		},
	)
}
