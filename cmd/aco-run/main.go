// Command aco-run runs a rerouting search headlessly and prints the route it
// settles on. Disruptions can be scheduled at chosen iterations to watch the
// colony reroute.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
	"github.com/dd0wney/cluso-aco/pkg/validation"
)

type options struct {
	networkFile string
	start, end  string
	seed        int64
	iterations  int
	agents      int
	alpha       float64
	beta        float64
	evaporation float64
	workers     int
	jsonOut     bool
	verbose     bool
	schedule    schedule
}

func main() {
	opts := options{schedule: schedule{defaultMultiplier: simulation.DefaultDisruption}}
	flag.StringVar(&opts.networkFile, "network", "", "YAML network file (default: built-in rail network)")
	flag.StringVar(&opts.start, "start", "", "start node index or name (default: rail origin or node 0)")
	flag.StringVar(&opts.end, "end", "", "end node index or name (default: rail destination or last node)")
	flag.Int64Var(&opts.seed, "seed", 1, "random seed")
	flag.IntVar(&opts.iterations, "iterations", simulation.DefaultMaxIterations, "number of iterations")
	flag.IntVar(&opts.agents, "agents", 0, "wagons per iteration (default from colony parameters)")
	flag.Float64Var(&opts.alpha, "alpha", 0, "pheromone weight")
	flag.Float64Var(&opts.beta, "beta", 0, "heuristic weight")
	flag.Float64Var(&opts.evaporation, "evaporation", 0, "evaporation rate in (0,1)")
	flag.IntVar(&opts.workers, "workers", 0, "goroutines wagons are spread over (default GOMAXPROCS)")
	flag.BoolVar(&opts.jsonOut, "json", false, "print the final snapshot as JSON")
	flag.BoolVar(&opts.verbose, "v", false, "log every iteration")
	flag.Var(&opts.schedule, "disrupt", "disruption a-b@iteration[xmultiplier], or a~b@... when names contain '-'; repeatable")
	flag.Parse()

	level := logging.WarnLevel
	if opts.verbose {
		level = logging.DebugLevel
	}
	logger := logging.NewJSONLogger(os.Stderr, level)

	if err := run(opts, os.Stdout, logger); err != nil {
		fmt.Fprintln(os.Stderr, "aco-run:", err)
		os.Exit(1)
	}
}

func loadGraph(path string) (*network.Graph, error) {
	if path == "" {
		return network.RailNetwork(), nil
	}
	return network.LoadFile(path)
}

// runRequest builds the configuration request from flags; zero values keep
// the defaults.
func (o options) runRequest(g *network.Graph) (*validation.RunRequest, error) {
	req := &validation.RunRequest{MaxIterations: &o.iterations}

	start, end := 0, g.Size()-1
	if o.networkFile == "" {
		start, end = network.RailDefaultStart, network.RailDefaultEnd
	}
	var err error
	if o.start != "" {
		if start, err = resolveNode(g, o.start); err != nil {
			return nil, fmt.Errorf("-start: %w", err)
		}
	}
	if o.end != "" {
		if end, err = resolveNode(g, o.end); err != nil {
			return nil, fmt.Errorf("-end: %w", err)
		}
	}
	req.Start, req.End = &start, &end

	if o.agents != 0 {
		req.Agents = &o.agents
	}
	if o.alpha != 0 {
		req.Alpha = &o.alpha
	}
	if o.beta != 0 {
		req.Beta = &o.beta
	}
	if o.evaporation != 0 {
		req.Evaporation = &o.evaporation
	}
	return req, nil
}

func run(opts options, out io.Writer, logger logging.Logger) error {
	g, err := loadGraph(opts.networkFile)
	if err != nil {
		return err
	}

	sessionOpts := []simulation.Option{
		simulation.WithSeed(opts.seed),
		simulation.WithLogger(logger),
	}
	if opts.workers > 0 {
		sessionOpts = append(sessionOpts, simulation.WithWorkers(opts.workers))
	}
	session, err := simulation.New(g, sessionOpts...)
	if err != nil {
		return err
	}
	defer session.Close()

	req, err := opts.runRequest(g)
	if err != nil {
		return err
	}
	cfg, err := session.ConfigureRequest(req)
	if err != nil {
		return err
	}

	// Resolve the whole schedule before running so a typo fails fast.
	type edge struct{ a, b int }
	resolved := make(map[disruption]edge, len(opts.schedule.items))
	for _, d := range opts.schedule.items {
		a, b, err := resolvePair(g, d)
		if err != nil {
			return fmt.Errorf("-disrupt %s: %w", d, err)
		}
		resolved[d] = edge{a, b}
	}

	var history []string
	steps := func() error {
		for iteration := 1; iteration <= cfg.MaxIterations; iteration++ {
			for _, d := range opts.schedule.due(iteration) {
				e := resolved[d]
				applied, err := session.Disrupt(e.a, e.b, d.multiplier)
				if err != nil {
					return fmt.Errorf("-disrupt %s: %w", d, err)
				}
				if !applied {
					logger.Warn("no direct edge to disrupt", logging.String("disruption", d.String()))
					continue
				}
				history = append(history, fmt.Sprintf("iteration %4d  disrupted %s x%g",
					iteration, strings.Join(g.PathNames([]int{e.a, e.b}), " - "), d.multiplier))
			}

			res, err := session.Step()
			if err != nil {
				return err
			}
			if res.Improved {
				history = append(history, fmt.Sprintf("iteration %4d  cost %8.2f  %s",
					res.Iteration, res.Best.Cost, describe(g, res.Best)))
			}
		}
		return nil
	}

	timer := logging.StartTimer(logger, "run finished",
		logging.Int("iterations", cfg.MaxIterations),
		logging.Int("agents", cfg.Agents),
	)
	if err := steps(); err != nil {
		timer.EndError(err)
		return err
	}
	snap := session.Snapshot()
	timer.End(logging.Bool("found", snap.Found), logging.Cost(snap.BestCost))
	if opts.jsonOut {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}

	fmt.Fprintf(out, "network: %d nodes, seed %d, %d wagons x %d iterations\n",
		g.Size(), snap.Seed, cfg.Agents, cfg.MaxIterations)
	for _, line := range history {
		fmt.Fprintln(out, line)
	}
	if !snap.Found {
		fmt.Fprintf(out, "no route from %s to %s\n", g.Name(cfg.Start), g.Name(cfg.End))
		return nil
	}
	fmt.Fprintf(out, "best route: %s\n", strings.Join(snap.BestPathNames, " -> "))
	fmt.Fprintf(out, "best cost:  %.2f\n", snap.BestCost)
	if _, optimum := g.ShortestRoute(cfg.Start, cfg.End); optimum > 0 {
		fmt.Fprintf(out, "optimum:    %.2f (gap %.1f%%)\n", optimum, 100*(snap.BestCost-optimum)/optimum)
	}
	return nil
}

func describe(g *network.Graph, r colony.Route) string {
	return strings.Join(g.PathNames(r.Path), " -> ")
}
