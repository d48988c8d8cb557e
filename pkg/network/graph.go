package network

import (
	"fmt"
	"math"
	"strings"
)

// BuildGraph constructs a graph from node names and an explicit edge list.
// Pairs that are not listed have cost NoEdge; the diagonal is zero.
func BuildGraph(names []string, edges []Edge) (*Graph, error) {
	const op = "BuildGraph"

	n := len(names)
	if n == 0 {
		return nil, newGraphError(op, "nodes", ErrEmptyGraph)
	}

	g := &Graph{
		nodes: make([]Node, n),
		index: make(map[string]int, n),
		cost:  NewMatrix(n, NoEdge),
	}

	for i, name := range names {
		field := fmt.Sprintf("nodes[%d]", i)
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, newGraphError(op, field, ErrInvalidName)
		}
		if _, dup := g.index[name]; dup {
			return nil, newGraphError(op, field, fmt.Errorf("%w: %q", ErrDuplicateName, name))
		}
		g.nodes[i] = Node{Index: i, Name: name}
		g.index[name] = i
		g.cost[i][i] = 0
	}

	for k, e := range edges {
		field := fmt.Sprintf("edges[%d]", k)
		switch {
		case e.A < 0 || e.A >= n || e.B < 0 || e.B >= n:
			return nil, newGraphError(op, field, fmt.Errorf("%w: (%d, %d) with %d nodes", ErrNodeOutOfRange, e.A, e.B, n))
		case e.A == e.B:
			return nil, newGraphError(op, field, ErrSelfLoop)
		case math.IsNaN(e.Cost) || math.IsInf(e.Cost, 0) || e.Cost <= 0:
			return nil, newGraphError(op, field, fmt.Errorf("%w: %v", ErrInvalidCost, e.Cost))
		case !math.IsInf(g.cost[e.A][e.B], 1):
			return nil, newGraphError(op, field, fmt.Errorf("%w: (%d, %d)", ErrDuplicateEdge, e.A, e.B))
		}
		g.cost[e.A][e.B] = e.Cost
		g.cost[e.B][e.A] = e.Cost
	}

	g.baseline = g.cost.Clone()
	return g, nil
}

// Size returns the number of nodes.
func (g *Graph) Size() int {
	return len(g.nodes)
}

// Nodes returns a copy of the node list in index order.
func (g *Graph) Nodes() []Node {
	out := make([]Node, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Names returns the node names in index order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.Name
	}
	return out
}

// Name returns the display name of node i, or "" when i is out of range.
func (g *Graph) Name(i int) string {
	if !g.Contains(i) {
		return ""
	}
	return g.nodes[i].Name
}

// Lookup resolves a node name to its index.
func (g *Graph) Lookup(name string) (int, bool) {
	i, ok := g.index[strings.TrimSpace(name)]
	return i, ok
}

// Contains reports whether i is a valid node index.
func (g *Graph) Contains(i int) bool {
	return i >= 0 && i < len(g.nodes)
}

// PathNames maps a path of indices to display names.
func (g *Graph) PathNames(path []int) []string {
	if path == nil {
		return nil
	}
	out := make([]string, len(path))
	for k, i := range path {
		out[k] = g.Name(i)
	}
	return out
}

// Cost returns the live cost between a and b (NoEdge when not adjacent).
func (g *Graph) Cost(a, b int) float64 {
	if !g.Contains(a) || !g.Contains(b) {
		return NoEdge
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cost[a][b]
}

// HasEdge reports whether a and b are directly connected.
func (g *Graph) HasEdge(a, b int) bool {
	return a != b && !math.IsInf(g.Cost(a, b), 1)
}

// Costs returns a copy of the live cost matrix. The copy is the snapshot an
// iteration walks against; later disruptions never reach it.
func (g *Graph) Costs() Matrix {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cost.Clone()
}

// BaselineCosts returns a copy of the costs the graph was built with.
func (g *Graph) BaselineCosts() Matrix {
	return g.baseline.Clone()
}

// Edges lists every edge once (a < b) with its live and baseline cost.
func (g *Graph) Edges() []EdgeState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []EdgeState
	for a := range g.cost {
		for b := a + 1; b < len(g.cost); b++ {
			if math.IsInf(g.baseline[a][b], 1) {
				continue
			}
			out = append(out, EdgeState{A: a, B: b, Cost: g.cost[a][b], Baseline: g.baseline[a][b]})
		}
	}
	return out
}

// Disrupt multiplies the live cost of edge (a, b) and its mirror by
// multiplier, compounding on any earlier disruption. It reports whether an
// edge existed; a missing edge (including a == b or an out-of-range index)
// leaves the graph untouched. The baseline is never modified.
//
// Multipliers that are not finite and positive are ignored; callers that need
// to report them validate first. A product that overflows is held at
// math.MaxFloat64 so the edge never turns into NoEdge.
func (g *Graph) Disrupt(a, b int, multiplier float64) bool {
	if a == b || !g.Contains(a) || !g.Contains(b) {
		return false
	}
	if math.IsNaN(multiplier) || math.IsInf(multiplier, 0) || multiplier <= 0 {
		return false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if math.IsInf(g.cost[a][b], 1) {
		return false
	}
	c := g.cost[a][b] * multiplier
	if math.IsInf(c, 1) {
		c = math.MaxFloat64
	}
	g.cost[a][b] = c
	g.cost[b][a] = c
	return true
}

// ResetToBaseline restores every live cost from the baseline snapshot.
func (g *Graph) ResetToBaseline() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := range g.cost {
		copy(g.cost[i], g.baseline[i])
	}
}

// Disrupted reports whether any live cost differs from the baseline.
func (g *Graph) Disrupted() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for i := range g.cost {
		for j := range g.cost[i] {
			if g.cost[i][j] != g.baseline[i][j] {
				return true
			}
		}
	}
	return false
}
