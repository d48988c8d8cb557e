package simulation

import (
	"encoding/json"
	"math"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
)

// Snapshot is a point-in-time copy of a session. Costs use +Inf for missing
// edges and BestCost is +Inf while no route has been found; the JSON encoding
// writes both as null.
type Snapshot struct {
	ID             string
	State          State
	Seed           int64
	Configured     bool
	Config         Config
	Iteration      int
	MaxIterations  int
	Progress       float64
	Nodes          []network.Node
	BestPath       []int
	BestPathNames  []string
	BestCost       float64
	Found          bool
	Reachable      bool
	LastIteration  *colony.Result
	Pheromone      network.Matrix
	PheromoneStats pheromone.Stats
	Costs          network.Matrix
	Edges          []network.EdgeState
	LastTick       time.Time
}

// IterationReport is the wire form of a colony.Result.
type IterationReport struct {
	Iteration         int      `json:"iteration"`
	Arrived           int      `json:"arrived"`
	Stuck             int      `json:"stuck"`
	IterationBestPath []int    `json:"iterationBestPath"`
	IterationBestCost *float64 `json:"iterationBestCost"`
	Improved          bool     `json:"improved"`
	NoPathFound       bool     `json:"noPathFound"`
	DurationMillis    float64  `json:"durationMs"`
}

// EdgeReport is the wire form of a network.EdgeState.
type EdgeReport struct {
	A         int      `json:"a"`
	B         int      `json:"b"`
	Cost      *float64 `json:"cost"`
	Baseline  *float64 `json:"baseline"`
	Disrupted bool     `json:"disrupted"`
	Pheromone float64  `json:"pheromone"`
}

type snapshotJSON struct {
	ID             string           `json:"id"`
	State          State            `json:"state"`
	Seed           int64            `json:"seed"`
	Configured     bool             `json:"configured"`
	Config         Config           `json:"config"`
	Iteration      int              `json:"iteration"`
	MaxIterations  int              `json:"maxIterations"`
	Progress       float64          `json:"progress"`
	Nodes          []network.Node   `json:"nodes"`
	BestPath       []int            `json:"bestPath"`
	BestPathNames  []string         `json:"bestPathNames"`
	BestCost       *float64         `json:"bestCost"`
	Found          bool             `json:"found"`
	Reachable      bool             `json:"reachable"`
	LastIteration  *IterationReport `json:"lastIteration"`
	Pheromone      network.Matrix   `json:"pheromone"`
	PheromoneStats pheromone.Stats  `json:"pheromoneStats"`
	Costs          [][]*float64     `json:"costs"`
	Edges          []EdgeReport     `json:"edges"`
	LastTick       *time.Time       `json:"lastTick,omitempty"`
}

// MarshalJSON encodes the snapshot with null in place of infinite costs.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		ID:             s.ID,
		State:          s.State,
		Seed:           s.Seed,
		Configured:     s.Configured,
		Config:         s.Config,
		Iteration:      s.Iteration,
		MaxIterations:  s.MaxIterations,
		Progress:       s.Progress,
		Nodes:          s.Nodes,
		BestPath:       s.BestPath,
		BestPathNames:  s.BestPathNames,
		BestCost:       finite(s.BestCost),
		Found:          s.Found,
		Reachable:      s.Reachable,
		Pheromone:      s.Pheromone,
		PheromoneStats: s.PheromoneStats,
		Costs:          finiteMatrix(s.Costs),
		Edges:          s.EdgeReports(),
	}
	if s.LastIteration != nil {
		r := NewIterationReport(*s.LastIteration)
		out.LastIteration = &r
	}
	if !s.LastTick.IsZero() {
		out.LastTick = &s.LastTick
	}
	return json.Marshal(out)
}

// EdgeReports pairs every edge with its current pheromone level.
func (s Snapshot) EdgeReports() []EdgeReport {
	out := make([]EdgeReport, len(s.Edges))
	for i, e := range s.Edges {
		out[i] = EdgeReport{
			A:         e.A,
			B:         e.B,
			Cost:      finite(e.Cost),
			Baseline:  finite(e.Baseline),
			Disrupted: e.Disrupted(),
		}
		if e.A < len(s.Pheromone) && e.B < len(s.Pheromone) {
			out[i].Pheromone = s.Pheromone[e.A][e.B]
		}
	}
	return out
}

// NewIterationReport converts a colony result to its wire form.
func NewIterationReport(r colony.Result) IterationReport {
	return IterationReport{
		Iteration:         r.Iteration,
		Arrived:           r.Arrived,
		Stuck:             r.Stuck,
		IterationBestPath: r.IterationBest.Path,
		IterationBestCost: finite(r.IterationBest.Cost),
		Improved:          r.Improved,
		NoPathFound:       r.NoPathFound,
		DurationMillis:    float64(r.Duration) / float64(time.Millisecond),
	}
}

// finite returns nil for infinities and NaN.
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func finiteMatrix(m network.Matrix) [][]*float64 {
	out := make([][]*float64, len(m))
	for i, row := range m {
		out[i] = make([]*float64, len(row))
		for j, v := range row {
			out[i][j] = finite(v)
		}
	}
	return out
}
