package network

// Rail yard network shipped with the server. Costs are transit minutes.
var (
	railNodes = []string{
		"Bokaro Steel", "Main Yard", "Junction Alpha", "Coal Feeder",
		"Maintenance", "Junction Bravo", "Customer A", "Stockyard Gamma",
		"Scrapyard", "Customer B",
	}

	railEdges = []Edge{
		{0, 1, 15}, {1, 2, 20}, {1, 3, 18}, {2, 3, 12}, {2, 5, 22},
		{3, 4, 25}, {4, 5, 15}, {5, 6, 18}, {1, 7, 30}, {7, 8, 20},
		{8, 6, 25}, {5, 9, 28}, {3, 5, 20}, {7, 6, 35}, {4, 8, 22},
		{2, 4, 30}, {0, 7, 40}, {3, 7, 28}, {4, 9, 30}, {6, 9, 20},
	}
)

// Default route on the rail network: Bokaro Steel to Customer A.
const (
	RailDefaultStart = 0
	RailDefaultEnd   = 6
)

// RailNetwork returns a fresh copy of the built-in ten-node rail network.
func RailNetwork() *Graph {
	g, err := BuildGraph(railNodes, railEdges)
	if err != nil {
		// Static data; a failure here is a programming error.
		panic(err)
	}
	return g
}
