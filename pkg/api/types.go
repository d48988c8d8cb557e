package api

import (
	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// NetworkResponse describes the graph the session runs on.
type NetworkResponse struct {
	Nodes     []network.Node          `json:"nodes"`
	Edges     []simulation.EdgeReport `json:"edges"`
	Disrupted bool                    `json:"disrupted"`
	Shortest  *RouteResponse          `json:"shortest"`
}

// RouteResponse is the exact cheapest route between the session's start and
// end nodes over the current costs. Path is empty when end is unreachable.
type RouteResponse struct {
	Start int      `json:"start"`
	End   int      `json:"end"`
	Path  []int    `json:"path"`
	Names []string `json:"names"`
	Cost  *float64 `json:"cost"`
}

// StepResponse carries the iteration a step ran and the state afterwards.
type StepResponse struct {
	Report   simulation.IterationReport `json:"report"`
	Snapshot simulation.Snapshot        `json:"snapshot"`
}

// DisruptResponse reports whether an edge changed. A pair without a direct
// edge is not an error; Applied is false.
type DisruptResponse struct {
	Applied    bool                `json:"applied"`
	NodeA      int                 `json:"nodeA"`
	NodeB      int                 `json:"nodeB"`
	Multiplier float64             `json:"multiplier"`
	Snapshot   simulation.Snapshot `json:"snapshot"`
}
