// Package graphql exposes a simulation session through a graphql-go schema:
// queries for the snapshot and the network, mutations for every run control.
package graphql

import (
	"fmt"
	"math"
	"strconv"

	"github.com/graphql-go/graphql"

	"github.com/dd0wney/cluso-aco/pkg/simulation"
	"github.com/dd0wney/cluso-aco/pkg/validation"
)

// Options tunes the schema.
type Options struct {
	// Disruption is the multiplier used when disrupt is called without one.
	Disruption float64
}

// NewSchema builds the schema over s.
func NewSchema(s *simulation.Session, opts Options) (graphql.Schema, error) {
	if opts.Disruption <= 0 {
		opts.Disruption = simulation.DefaultDisruption
	}
	t := newTypes()
	r := &resolver{session: s, disruption: opts.Disruption}

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"snapshot": &graphql.Field{
				Type:    graphql.NewNonNull(t.snapshot),
				Resolve: r.snapshot,
			},
			"network": &graphql.Field{
				Type:    graphql.NewNonNull(t.network),
				Resolve: r.network,
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"configure": &graphql.Field{
				Type:        t.snapshot,
				Description: "Merge the arguments over the current configuration; rejected while a run is active",
				Args:        runArgs(),
				Resolve:     r.configure,
			},
			"start": &graphql.Field{
				Type:        t.snapshot,
				Description: "Configure from the arguments when any are given, then start or resume",
				Args:        runArgs(),
				Resolve:     r.start,
			},
			"step": &graphql.Field{
				Type:    t.iteration,
				Resolve: r.step,
			},
			"pause": &graphql.Field{
				Type:    t.snapshot,
				Resolve: r.pause,
			},
			"reset": &graphql.Field{
				Type: t.snapshot,
				Args: graphql.FieldConfigArgument{
					"baseline": &graphql.ArgumentConfig{
						Type:         graphql.Boolean,
						DefaultValue: false,
						Description:  "Also restore every edge to its baseline cost",
					},
				},
				Resolve: r.reset,
			},
			"disrupt": &graphql.Field{
				Type: t.disrupt,
				Args: graphql.FieldConfigArgument{
					"nodeA":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"nodeB":      &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Int)},
					"multiplier": &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: r.disrupt,
			},
		},
	})

	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
	if err != nil {
		return graphql.Schema{}, fmt.Errorf("build schema: %w", err)
	}
	return schema, nil
}

type resolver struct {
	session    *simulation.Session
	disruption float64
}

func (r *resolver) snapshot(p graphql.ResolveParams) (any, error) {
	return snapshotView(r.session.Snapshot()), nil
}

func (r *resolver) network(p graphql.ResolveParams) (any, error) {
	snap := r.session.Snapshot()
	nodes := make([]map[string]any, len(snap.Nodes))
	for i, n := range snap.Nodes {
		nodes[i] = map[string]any{"index": n.Index, "name": n.Name}
	}
	return map[string]any{
		"nodes":     nodes,
		"edges":     edgeViews(snap),
		"disrupted": r.session.Graph().Disrupted(),
	}, nil
}

func (r *resolver) configure(p graphql.ResolveParams) (any, error) {
	if _, err := r.session.ConfigureRequest(runRequest(p.Args)); err != nil {
		return nil, err
	}
	return snapshotView(r.session.Snapshot()), nil
}

func (r *resolver) start(p graphql.ResolveParams) (any, error) {
	if err := r.session.StartWith(runRequest(p.Args)); err != nil {
		return nil, err
	}
	return snapshotView(r.session.Snapshot()), nil
}

func (r *resolver) step(p graphql.ResolveParams) (any, error) {
	res, err := r.session.Step()
	if err != nil {
		return nil, err
	}
	return iterationView(simulation.NewIterationReport(res)), nil
}

func (r *resolver) pause(p graphql.ResolveParams) (any, error) {
	if err := r.session.Pause(); err != nil {
		return nil, err
	}
	return snapshotView(r.session.Snapshot()), nil
}

func (r *resolver) reset(p graphql.ResolveParams) (any, error) {
	if err := r.session.Reset(); err != nil {
		return nil, err
	}
	if baseline, _ := p.Args["baseline"].(bool); baseline {
		r.session.ResetToBaseline()
	}
	return snapshotView(r.session.Snapshot()), nil
}

func (r *resolver) disrupt(p graphql.ResolveParams) (any, error) {
	a, _ := p.Args["nodeA"].(int)
	b, _ := p.Args["nodeB"].(int)
	req := &validation.DisruptRequest{NodeA: &a, NodeB: &b}
	if m, ok := p.Args["multiplier"].(float64); ok {
		req.Multiplier = &m
	}
	if err := validation.ValidateDisruptRequest(req, r.session.Graph().Size()); err != nil {
		return nil, err
	}

	multiplier := r.disruption
	if req.Multiplier != nil {
		multiplier = *req.Multiplier
	}
	applied, err := r.session.Disrupt(a, b, multiplier)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"applied":  applied,
		"snapshot": snapshotView(r.session.Snapshot()),
	}, nil
}

// runRequest lifts optional mutation arguments into a RunRequest.
func runRequest(args map[string]any) *validation.RunRequest {
	req := &validation.RunRequest{}
	intArg := func(name string) *int {
		if v, ok := args[name].(int); ok {
			return &v
		}
		return nil
	}
	floatArg := func(name string) *float64 {
		switch v := args[name].(type) {
		case float64:
			return &v
		case int:
			f := float64(v)
			return &f
		}
		return nil
	}
	req.Start = intArg("start")
	req.End = intArg("end")
	req.Agents = intArg("agents")
	req.MaxIterations = intArg("maxIterations")
	req.Alpha = floatArg("alpha")
	req.Beta = floatArg("beta")
	req.Evaporation = floatArg("evaporation")
	req.Deposit = floatArg("deposit")
	return req
}

func snapshotView(s simulation.Snapshot) map[string]any {
	v := map[string]any{
		"id":            s.ID,
		"state":         s.State.String(),
		"seed":          strconv.FormatInt(s.Seed, 10),
		"configured":    s.Configured,
		"iteration":     s.Iteration,
		"maxIterations": s.MaxIterations,
		"progress":      s.Progress,
		"bestPath":      s.BestPath,
		"bestPathNames": s.BestPathNames,
		"bestCost":      nullable(s.BestCost),
		"found":         s.Found,
		"reachable":     s.Reachable,
		"pheromoneStats": map[string]any{
			"min":  s.PheromoneStats.Min,
			"max":  s.PheromoneStats.Max,
			"mean": s.PheromoneStats.Mean,
		},
		"edges": edgeViews(s),
	}
	if s.Configured {
		c := s.Config
		v["config"] = map[string]any{
			"start":         c.Start,
			"end":           c.End,
			"alpha":         c.Alpha,
			"beta":          c.Beta,
			"evaporation":   c.Evaporation,
			"deposit":       c.Deposit,
			"agents":        c.Agents,
			"maxIterations": c.MaxIterations,
		}
	}
	if s.LastIteration != nil {
		v["lastIteration"] = iterationView(simulation.NewIterationReport(*s.LastIteration))
	}
	return v
}

func iterationView(r simulation.IterationReport) map[string]any {
	v := map[string]any{
		"iteration":         r.Iteration,
		"arrived":           r.Arrived,
		"stuck":             r.Stuck,
		"iterationBestPath": r.IterationBestPath,
		"improved":          r.Improved,
		"noPathFound":       r.NoPathFound,
		"durationMs":        r.DurationMillis,
	}
	if r.IterationBestCost != nil {
		v["iterationBestCost"] = *r.IterationBestCost
	}
	return v
}

func edgeViews(s simulation.Snapshot) []map[string]any {
	reports := s.EdgeReports()
	out := make([]map[string]any, len(reports))
	for i, e := range reports {
		out[i] = map[string]any{
			"a":         e.A,
			"b":         e.B,
			"cost":      valueOrNil(e.Cost),
			"baseline":  valueOrNil(e.Baseline),
			"disrupted": e.Disrupted,
			"pheromone": e.Pheromone,
		}
		if e.A < len(s.Nodes) && e.B < len(s.Nodes) {
			out[i]["aName"] = s.Nodes[e.A].Name
			out[i]["bName"] = s.Nodes[e.B].Name
		}
	}
	return out
}

func valueOrNil(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

// nullable maps infinite costs to a GraphQL null.
func nullable(v float64) any {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return v
}
