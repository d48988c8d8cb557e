package colony

import (
	"math"
	"math/rand"

	"github.com/dd0wney/cluso-aco/pkg/network"
)

// State is the lifecycle stage of a wagon.
type State int

const (
	// Walking wagons still have a move to make.
	Walking State = iota
	// Arrived wagons reached their destination; their path counts.
	Arrived
	// Stuck wagons ran out of unvisited neighbours; their path is discarded.
	Stuck
)

func (s State) String() string {
	switch s {
	case Walking:
		return "walking"
	case Arrived:
		return "arrived"
	case Stuck:
		return "stuck"
	default:
		return "unknown"
	}
}

// Wagon is a single agent constructing one path from Start to End.
// A wagon is owned by one goroutine for its whole walk.
type Wagon struct {
	Start   int
	End     int
	Current int
	Path    []int
	Cost    float64
	State   State

	visited []bool
}

// NewWagon places a wagon at start in a network of n nodes. A wagon whose
// start is its destination has already arrived.
func NewWagon(start, end, n int) *Wagon {
	w := &Wagon{
		Start:   start,
		End:     end,
		Current: start,
		Path:    []int{start},
		visited: make([]bool, n),
	}
	w.visited[start] = true
	if start == end {
		w.State = Arrived
	}
	return w
}

// Step makes one move. It returns the state after the move; a wagon that is
// no longer Walking does not move.
func (w *Wagon) Step(tau, costs network.Matrix, p Params, rng *rand.Rand) State {
	if w.State != Walking {
		return w.State
	}

	next, ok := chooseNext(w.Current, w.visited, tau, costs, p.Alpha, p.Beta, rng)
	if !ok {
		w.State = Stuck
		return w.State
	}

	w.Cost += costs[w.Current][next]
	w.Current = next
	w.Path = append(w.Path, next)
	w.visited[next] = true
	if next == w.End {
		w.State = Arrived
	}
	return w.State
}

// Walk steps until the wagon arrives or gets stuck. Every move visits a new
// node, so a walk takes at most n-1 steps.
func (w *Wagon) Walk(tau, costs network.Matrix, p Params, rng *rand.Rand) State {
	for w.Step(tau, costs, p, rng) == Walking {
	}
	return w.State
}

// chooseNext applies the transition rule at current. Candidates are the
// unvisited nodes with a finite edge from current, in index order, weighted
// tau^alpha * (1/cost)^beta. One uniform draw r picks the first candidate
// whose cumulative probability reaches r, or the last candidate if rounding
// leaves none. When the weights cannot be normalized (all zero, or an
// overflow) the same draw selects uniformly among the candidates.
func chooseNext(current int, visited []bool, tau, costs network.Matrix, alpha, beta float64, rng *rand.Rand) (int, bool) {
	row := costs[current]

	var (
		candidates = make([]int, 0, len(row))
		weights    = make([]float64, 0, len(row))
		sum        float64
	)
	for j, c := range row {
		if visited[j] || math.IsInf(c, 1) {
			continue
		}
		w := math.Pow(tau[current][j], alpha) * math.Pow(1/c, beta)
		candidates = append(candidates, j)
		weights = append(weights, w)
		sum += w
	}
	if len(candidates) == 0 {
		return 0, false
	}

	r := rng.Float64()
	if !(sum > 0) || math.IsInf(sum, 0) || math.IsNaN(sum) {
		return candidates[int(r*float64(len(candidates)))], true
	}

	var cumulative float64
	for k, w := range weights {
		cumulative += w / sum
		if cumulative >= r {
			return candidates[k], true
		}
	}
	return candidates[len(candidates)-1], true
}
