package simulation

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
)

// TestRunInvariants checks, over random seeds and disruption schedules on the
// rail network, that the best cost never rises within a run, the pheromone
// floor holds after every iteration, and costs stay symmetric.
func TestRunInvariants(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping property-based test in short mode")
	}

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25

	properties := gopter.NewProperties(parameters)

	properties.Property("best cost is monotone and the floor holds", prop.ForAll(
		func(seed int64, edges []int, multipliers []float64) bool {
			g := network.RailNetwork()
			all := g.Edges()

			s, err := New(g, WithSeed(seed), WithTickInterval(time.Millisecond), WithWorkers(2))
			if err != nil {
				return false
			}
			defer s.Close()

			cfg := railConfig(30)
			cfg.Agents = 10
			if s.Configure(cfg) != nil {
				return false
			}

			last := math.Inf(1)
			for i := 0; i < 30; i++ {
				if i < len(edges) && i < len(multipliers) {
					e := all[edges[i]%len(all)]
					if applied, err := s.Disrupt(e.A, e.B, multipliers[i]); err != nil || !applied {
						return false
					}
				}
				res, err := s.Step()
				if err != nil {
					return false
				}
				if res.Best.Cost > last {
					return false
				}
				last = res.Best.Cost

				snap := s.Snapshot()
				if snap.PheromoneStats.Min < pheromone.Floor || !snap.Costs.Symmetric() || !snap.Pheromone.Symmetric() {
					return false
				}
			}
			return s.State() == Completed
		},
		gen.Int64(),
		gen.SliceOfN(10, gen.IntRange(0, 1000)),
		gen.SliceOfN(10, gen.Float64Range(0.5, 8)),
	))

	properties.TestingRun(t)
}
