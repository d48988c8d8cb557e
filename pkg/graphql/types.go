package graphql

import (
	"github.com/graphql-go/graphql"
)

// Object types are built once per schema; graphql-go rejects two types with
// the same name in one schema, so they live in a struct rather than globals.
type types struct {
	node      *graphql.Object
	edge      *graphql.Object
	network   *graphql.Object
	config    *graphql.Object
	iteration *graphql.Object
	pheromone *graphql.Object
	snapshot  *graphql.Object
	disrupt   *graphql.Object
}

func newTypes() *types {
	t := &types{}

	t.node = graphql.NewObject(graphql.ObjectConfig{
		Name: "Node",
		Fields: graphql.Fields{
			"index": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"name":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	t.edge = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Edge",
		Description: "An undirected edge with its live and baseline cost",
		Fields: graphql.Fields{
			"a":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"b":         &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
			"aName":     &graphql.Field{Type: graphql.String},
			"bName":     &graphql.Field{Type: graphql.String},
			"cost":      &graphql.Field{Type: graphql.Float},
			"baseline":  &graphql.Field{Type: graphql.Float},
			"disrupted": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"pheromone": &graphql.Field{Type: graphql.Float},
		},
	})

	t.network = graphql.NewObject(graphql.ObjectConfig{
		Name: "Network",
		Fields: graphql.Fields{
			"nodes":     &graphql.Field{Type: graphql.NewList(t.node)},
			"edges":     &graphql.Field{Type: graphql.NewList(t.edge)},
			"disrupted": &graphql.Field{Type: graphql.Boolean},
		},
	})

	t.config = graphql.NewObject(graphql.ObjectConfig{
		Name: "RunConfig",
		Fields: graphql.Fields{
			"start":         &graphql.Field{Type: graphql.Int},
			"end":           &graphql.Field{Type: graphql.Int},
			"alpha":         &graphql.Field{Type: graphql.Float},
			"beta":          &graphql.Field{Type: graphql.Float},
			"evaporation":   &graphql.Field{Type: graphql.Float},
			"deposit":       &graphql.Field{Type: graphql.Float},
			"agents":        &graphql.Field{Type: graphql.Int},
			"maxIterations": &graphql.Field{Type: graphql.Int},
		},
	})

	t.iteration = graphql.NewObject(graphql.ObjectConfig{
		Name: "IterationReport",
		Fields: graphql.Fields{
			"iteration":         &graphql.Field{Type: graphql.Int},
			"arrived":           &graphql.Field{Type: graphql.Int},
			"stuck":             &graphql.Field{Type: graphql.Int},
			"iterationBestPath": &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"iterationBestCost": &graphql.Field{Type: graphql.Float},
			"improved":          &graphql.Field{Type: graphql.Boolean},
			"noPathFound":       &graphql.Field{Type: graphql.Boolean},
			"durationMs":        &graphql.Field{Type: graphql.Float},
		},
	})

	t.pheromone = graphql.NewObject(graphql.ObjectConfig{
		Name: "PheromoneStats",
		Fields: graphql.Fields{
			"min":  &graphql.Field{Type: graphql.Float},
			"max":  &graphql.Field{Type: graphql.Float},
			"mean": &graphql.Field{Type: graphql.Float},
		},
	})

	t.snapshot = graphql.NewObject(graphql.ObjectConfig{
		Name:        "Snapshot",
		Description: "Point-in-time view of the session; bestCost is null until a route is found",
		Fields: graphql.Fields{
			"id":             &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"state":          &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"seed":           &graphql.Field{Type: graphql.String},
			"configured":     &graphql.Field{Type: graphql.Boolean},
			"config":         &graphql.Field{Type: t.config},
			"iteration":      &graphql.Field{Type: graphql.Int},
			"maxIterations":  &graphql.Field{Type: graphql.Int},
			"progress":       &graphql.Field{Type: graphql.Float},
			"bestPath":       &graphql.Field{Type: graphql.NewList(graphql.Int)},
			"bestPathNames":  &graphql.Field{Type: graphql.NewList(graphql.String)},
			"bestCost":       &graphql.Field{Type: graphql.Float},
			"found":          &graphql.Field{Type: graphql.Boolean},
			"reachable":      &graphql.Field{Type: graphql.Boolean},
			"lastIteration":  &graphql.Field{Type: t.iteration},
			"pheromoneStats": &graphql.Field{Type: t.pheromone},
			"edges":          &graphql.Field{Type: graphql.NewList(t.edge)},
		},
	})

	t.disrupt = graphql.NewObject(graphql.ObjectConfig{
		Name: "DisruptResult",
		Fields: graphql.Fields{
			"applied":  &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"snapshot": &graphql.Field{Type: t.snapshot},
		},
	})

	return t
}

// runArgs are the optional configure/start arguments.
func runArgs() graphql.FieldConfigArgument {
	return graphql.FieldConfigArgument{
		"start":         &graphql.ArgumentConfig{Type: graphql.Int},
		"end":           &graphql.ArgumentConfig{Type: graphql.Int},
		"alpha":         &graphql.ArgumentConfig{Type: graphql.Float},
		"beta":          &graphql.ArgumentConfig{Type: graphql.Float},
		"evaporation":   &graphql.ArgumentConfig{Type: graphql.Float},
		"deposit":       &graphql.ArgumentConfig{Type: graphql.Float},
		"agents":        &graphql.ArgumentConfig{Type: graphql.Int},
		"maxIterations": &graphql.ArgumentConfig{Type: graphql.Int},
	}
}
