package network

import "math"

// ShortestRoute returns the cheapest route from start to end over live costs
// and its cost, or nil and +Inf when end cannot be reached. It is the exact
// answer the colony's search is measured against.
func (g *Graph) ShortestRoute(start, end int) ([]int, float64) {
	if !g.Contains(start) || !g.Contains(end) {
		return nil, math.Inf(1)
	}
	if start == end {
		return []int{start}, 0
	}

	// Dense Dijkstra; networks are small and stored as a full matrix.
	costs := g.Costs()
	n := len(costs)
	dist := make([]float64, n)
	parent := make([]int, n)
	done := make([]bool, n)
	for i := range dist {
		dist[i] = math.Inf(1)
		parent[i] = -1
	}
	dist[start] = 0

	for {
		u := -1
		for v := range n {
			if !done[v] && !math.IsInf(dist[v], 1) && (u < 0 || dist[v] < dist[u]) {
				u = v
			}
		}
		if u < 0 || u == end {
			break
		}
		done[u] = true
		for v, c := range costs[u] {
			if done[v] || u == v || math.IsInf(c, 1) {
				continue
			}
			if d := dist[u] + c; d < dist[v] {
				dist[v] = d
				parent[v] = u
			}
		}
	}

	if math.IsInf(dist[end], 1) {
		return nil, math.Inf(1)
	}

	var path []int
	for v := end; v != -1; v = parent[v] {
		path = append(path, v)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, dist[end]
}
