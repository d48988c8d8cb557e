package network

import (
	"math"
	"sync"
)

// NoEdge is the cost sentinel for a pair without a direct connection.
var NoEdge = math.Inf(1)

// Node is a named point in the network. Index is its position in every matrix.
type Node struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// Edge is an undirected weighted connection between two node indices.
type Edge struct {
	A    int     `json:"a"`
	B    int     `json:"b"`
	Cost float64 `json:"cost"`
}

// EdgeState describes an edge as it currently is and as it was built.
type EdgeState struct {
	A        int     `json:"a"`
	B        int     `json:"b"`
	Cost     float64 `json:"cost"`
	Baseline float64 `json:"baseline"`
}

// Disrupted reports whether the live cost differs from the baseline.
func (e EdgeState) Disrupted() bool {
	return e.Cost != e.Baseline
}

// Matrix is a dense square matrix indexed by node index.
type Matrix [][]float64

// NewMatrix returns an n×n matrix with every entry set to fill.
func NewMatrix(n int, fill float64) Matrix {
	m := make(Matrix, n)
	backing := make([]float64, n*n)
	for i := range backing {
		backing[i] = fill
	}
	for i := 0; i < n; i++ {
		m[i] = backing[i*n : (i+1)*n : (i+1)*n]
	}
	return m
}

// Clone returns a deep copy of m.
func (m Matrix) Clone() Matrix {
	n := len(m)
	out := NewMatrix(n, 0)
	for i := range m {
		copy(out[i], m[i])
	}
	return out
}

// Size returns the matrix order.
func (m Matrix) Size() int {
	return len(m)
}

// Symmetric reports whether m[i][j] == m[j][i] for every pair.
func (m Matrix) Symmetric() bool {
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if m[i][j] != m[j][i] {
				return false
			}
		}
	}
	return true
}

// Graph is the live cost topology of a logistics network.
//
// The node set and baseline costs are fixed at construction; live costs change
// only through Disrupt and ResetToBaseline. All methods are safe for
// concurrent use, and every read of a matrix returns a copy.
type Graph struct {
	mu       sync.RWMutex
	nodes    []Node
	index    map[string]int
	cost     Matrix
	baseline Matrix
}
