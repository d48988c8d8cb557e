package network

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// File is the YAML representation of a network definition:
//
//	nodes: [Depot, Yard, Port]
//	edges:
//	  - {from: Depot, to: Yard, cost: 10}
//	  - {from: 1, to: 2, cost: 7.5}
//
// Edge endpoints may be node names or indices.
type File struct {
	Nodes []string   `yaml:"nodes"`
	Edges []FileEdge `yaml:"edges"`
}

// FileEdge is one undirected edge in a network file.
type FileEdge struct {
	From string  `yaml:"from"`
	To   string  `yaml:"to"`
	Cost float64 `yaml:"cost"`
}

// LoadFile reads and builds a network definition from path.
func LoadFile(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	return Parse(data)
}

// Parse builds a graph from YAML network definition bytes.
func Parse(data []byte) (*Graph, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, newGraphError("Parse", "", fmt.Errorf("invalid network YAML: %w", err))
	}
	return f.Build()
}

// Build resolves endpoint references and constructs the graph.
func (f File) Build() (*Graph, error) {
	index := make(map[string]int, len(f.Nodes))
	for i, name := range f.Nodes {
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	edges := make([]Edge, 0, len(f.Edges))
	for k, fe := range f.Edges {
		a, err := resolveEndpoint(index, len(f.Nodes), fe.From)
		if err != nil {
			return nil, newGraphError("Build", fmt.Sprintf("edges[%d].from", k), err)
		}
		b, err := resolveEndpoint(index, len(f.Nodes), fe.To)
		if err != nil {
			return nil, newGraphError("Build", fmt.Sprintf("edges[%d].to", k), err)
		}
		edges = append(edges, Edge{A: a, B: b, Cost: fe.Cost})
	}

	return BuildGraph(f.Nodes, edges)
}

// Encode renders the graph's baseline topology as a network file.
func (g *Graph) Encode() ([]byte, error) {
	f := File{Nodes: g.Names()}
	for _, e := range g.Edges() {
		f.Edges = append(f.Edges, FileEdge{From: g.Name(e.A), To: g.Name(e.B), Cost: e.Baseline})
	}
	return yaml.Marshal(f)
}

// resolveEndpoint accepts a node name, falling back to a numeric index.
func resolveEndpoint(index map[string]int, n int, ref string) (int, error) {
	if i, ok := index[ref]; ok {
		return i, nil
	}
	i, err := strconv.Atoi(ref)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnknownNode, ref)
	}
	if i < 0 || i >= n {
		return 0, fmt.Errorf("%w: %d", ErrNodeOutOfRange, i)
	}
	return i, nil
}
