// Package pheromone holds the trail matrix that the colony reinforces and
// decays every iteration.
//
// The matrix runs parallel to the network cost matrix: entry [i][j] is the
// trail level on the pair (i, j), kept symmetric. Levels start at
// InitialLevel and never drop below Floor, so no pair becomes permanently
// unattractive through evaporation alone.
package pheromone

import (
	"sync"

	"github.com/dd0wney/cluso-aco/pkg/network"
)

const (
	// InitialLevel is the uniform level every pair starts from.
	InitialLevel = 1.0
	// Floor is the lowest level evaporation can leave behind.
	Floor = 0.01
)

// Field is a symmetric pheromone matrix. It is safe for concurrent use.
type Field struct {
	mu     sync.RWMutex
	levels network.Matrix
}

// New returns a field of order n initialized to InitialLevel.
func New(n int) *Field {
	return &Field{levels: network.NewMatrix(n, InitialLevel)}
}

// Size returns the matrix order.
func (f *Field) Size() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.levels)
}

// Initialize resets every entry, non-edges included, to InitialLevel.
func (f *Field) Initialize() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.levels {
		for j := range f.levels[i] {
			f.levels[i][j] = InitialLevel
		}
	}
}

// Evaporate scales every entry by (1 - rate) and lifts anything below Floor
// back up to Floor.
func (f *Field) Evaporate(rate float64) {
	keep := 1 - rate

	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.levels {
		row := f.levels[i]
		for j := range row {
			row[j] *= keep
			if row[j] < Floor {
				row[j] = Floor
			}
		}
	}
}

// Deposit adds q/cost to both directions of every consecutive pair in path.
// Paths with fewer than two nodes or a non-positive cost deposit nothing.
// Indices outside the field are skipped.
func (f *Field) Deposit(path []int, cost, q float64) {
	if len(path) < 2 || !(cost > 0) {
		return
	}
	amount := q / cost

	f.mu.Lock()
	defer f.mu.Unlock()
	n := len(f.levels)
	for k := 0; k+1 < len(path); k++ {
		u, v := path[k], path[k+1]
		if u < 0 || u >= n || v < 0 || v >= n {
			continue
		}
		f.levels[u][v] += amount
		f.levels[v][u] += amount
	}
}

// Level returns the trail level on (i, j).
func (f *Field) Level(i, j int) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.levels[i][j]
}

// Snapshot returns a copy of the matrix.
func (f *Field) Snapshot() network.Matrix {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.levels.Clone()
}

// Stats summarizes the field over off-diagonal entries.
type Stats struct {
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
}

// Stats computes min, max and mean over all off-diagonal entries.
func (f *Field) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	n := len(f.levels)
	if n < 2 {
		return Stats{}
	}
	s := Stats{Min: f.levels[0][1], Max: f.levels[0][1]}
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			v := f.levels[i][j]
			sum += v
			if v < s.Min {
				s.Min = v
			}
			if v > s.Max {
				s.Max = v
			}
		}
	}
	s.Mean = sum / float64(n*(n-1))
	return s
}
