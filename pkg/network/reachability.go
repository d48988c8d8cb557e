package network

import "math"

// Reachable reports whether end can be reached from start over live edges.
// Level-by-level breadth-first search on the cost matrix; a node counts as
// reachable from itself.
func (g *Graph) Reachable(start, end int) bool {
	if !g.Contains(start) || !g.Contains(end) {
		return false
	}
	if start == end {
		return true
	}

	costs := g.Costs()
	visited := make([]bool, len(costs))
	visited[start] = true
	level := []int{start}

	for len(level) > 0 {
		var next []int
		for _, u := range level {
			for v, c := range costs[u] {
				if visited[v] || u == v || math.IsInf(c, 1) {
					continue
				}
				if v == end {
					return true
				}
				visited[v] = true
				next = append(next, v)
			}
		}
		level = next
	}
	return false
}
