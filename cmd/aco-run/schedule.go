package main

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-aco/pkg/network"
)

// disruption scales one edge before a given iteration runs.
type disruption struct {
	a, b       string
	sep        string
	iteration  int
	multiplier float64
}

func (d disruption) String() string {
	return fmt.Sprintf("%s%s%s@%dx%g", d.a, d.sep, d.b, d.iteration, d.multiplier)
}

// schedule collects repeated -disrupt flags. It implements flag.Value.
type schedule struct {
	items             []disruption
	defaultMultiplier float64
}

func (s *schedule) String() string {
	if s == nil {
		return ""
	}
	parts := make([]string, len(s.items))
	for i, d := range s.items {
		parts[i] = d.String()
	}
	return strings.Join(parts, ",")
}

// Set parses one or more comma-separated entries of the form
// a-b@iteration or a-b@iterationxmultiplier. Node names that contain a
// hyphen can be paired with '~' instead: a~b@iteration.
func (s *schedule) Set(value string) error {
	for _, entry := range strings.Split(value, ",") {
		d, err := parseDisruption(strings.TrimSpace(entry), s.defaultMultiplier)
		if err != nil {
			return err
		}
		s.items = append(s.items, d)
	}
	slices.SortStableFunc(s.items, func(x, y disruption) int { return x.iteration - y.iteration })
	return nil
}

func parseDisruption(entry string, defaultMultiplier float64) (disruption, error) {
	pair, when, ok := strings.Cut(entry, "@")
	if !ok {
		return disruption{}, fmt.Errorf("disruption %q: want a-b@iteration[xmultiplier]", entry)
	}
	sep := "-"
	if strings.Contains(pair, "~") {
		sep = "~"
	}
	a, b, ok := strings.Cut(pair, sep)
	if !ok || a == "" || b == "" {
		return disruption{}, fmt.Errorf("disruption %q: want a node pair a-b or a~b", entry)
	}

	d := disruption{a: a, b: b, sep: sep, multiplier: defaultMultiplier}
	iter, mult, hasMult := strings.Cut(when, "x")
	n, err := strconv.Atoi(iter)
	if err != nil || n < 1 {
		return disruption{}, fmt.Errorf("disruption %q: iteration must be a positive integer", entry)
	}
	d.iteration = n
	if hasMult {
		m, err := strconv.ParseFloat(mult, 64)
		if err != nil || m <= 0 {
			return disruption{}, fmt.Errorf("disruption %q: multiplier must be a positive number", entry)
		}
		d.multiplier = m
	}
	return d, nil
}

// resolveNode accepts a node index or a node name.
func resolveNode(g *network.Graph, ref string) (int, error) {
	if i, err := strconv.Atoi(ref); err == nil {
		if !g.Contains(i) {
			return 0, fmt.Errorf("node %d is out of range", i)
		}
		return i, nil
	}
	if i, ok := g.Lookup(ref); ok {
		return i, nil
	}
	return 0, fmt.Errorf("unknown node %q", ref)
}

// resolvePair resolves both ends of d. A '-' pair is split at whichever hyphen
// names two known nodes, so hyphenated names work when only one split fits.
func resolvePair(g *network.Graph, d disruption) (int, int, error) {
	if d.sep == "-" {
		joined := d.a + "-" + d.b
		type split struct{ a, b int }
		var found []split
		for i := 0; i < len(joined); i++ {
			if joined[i] != '-' {
				continue
			}
			a, errA := resolveNode(g, joined[:i])
			b, errB := resolveNode(g, joined[i+1:])
			if errA == nil && errB == nil {
				found = append(found, split{a, b})
			}
		}
		switch len(found) {
		case 1:
			return found[0].a, found[0].b, nil
		case 0:
		default:
			return 0, 0, fmt.Errorf("node pair %q is ambiguous; separate the names with '~'", joined)
		}
	}

	a, err := resolveNode(g, d.a)
	if err != nil {
		return 0, 0, err
	}
	b, err := resolveNode(g, d.b)
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

// due returns the disruptions that apply before iteration runs.
func (s *schedule) due(iteration int) []disruption {
	var out []disruption
	for _, d := range s.items {
		if d.iteration == iteration {
			out = append(out, d)
		}
	}
	return out
}
