// Package colony runs the ant colony search over a network cost matrix.
//
// A Colony owns the pheromone field, the running best route and the
// iteration counter. Each Iterate call releases a batch of wagons against a
// fixed snapshot of costs and pheromones, waits for all of them, and only
// then evaporates, deposits and updates the best route. Wagon randomness is
// derived per agent from a single seeded stream, so a given seed and call
// sequence produce the same routes whatever the worker count.
package colony

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/parallel"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
)

var (
	// ErrSizeMismatch is returned when a cost matrix does not match the colony.
	ErrSizeMismatch = errors.New("cost matrix size does not match colony")
	// ErrEndpointOutOfRange is returned for a start or end outside the network.
	ErrEndpointOutOfRange = errors.New("endpoint out of range")
	// ErrClosed is returned by Iterate after Close.
	ErrClosed = errors.New("colony is closed")
)

// Route is a node sequence and its summed edge cost.
type Route struct {
	Path []int   `json:"path"`
	Cost float64 `json:"cost"`
}

func (r Route) clone() Route {
	return Route{Path: append([]int(nil), r.Path...), Cost: r.Cost}
}

// Result reports one committed iteration.
type Result struct {
	// Iteration is the counter value after this iteration (1 for the first).
	Iteration int
	Arrived   int
	Stuck     int
	// IterationBest is the cheapest route found by this batch, if any arrived.
	IterationBest Route
	// Best is the best route since the last reset.
	Best  Route
	Found bool
	// Improved reports whether this iteration replaced Best.
	Improved bool
	// NoPathFound is set when every wagon got stuck.
	NoPathFound bool
	Duration    time.Duration
}

// Colony is safe for concurrent use, but Iterate and Reset calls are
// serialized internally.
type Colony struct {
	iterMu sync.Mutex

	mu        sync.RWMutex
	n         int
	field     *pheromone.Field
	seed      int64
	rng       *rand.Rand
	best      Route
	found     bool
	iteration int

	pool     *parallel.WorkerPool
	ownsPool bool
	workers  int
	logger   logging.Logger
}

// Option configures a Colony.
type Option func(*Colony)

// WithSeed fixes the random seed. Without it the colony seeds from the clock.
func WithSeed(seed int64) Option {
	return func(c *Colony) { c.seed = seed }
}

// WithWorkers sets the size of the colony's own worker pool.
func WithWorkers(n int) Option {
	return func(c *Colony) { c.workers = n }
}

// WithPool runs wagons on an existing pool. The colony does not close it.
func WithPool(pool *parallel.WorkerPool) Option {
	return func(c *Colony) { c.pool = pool }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *Colony) { c.logger = logger }
}

// New returns a colony for a network of n nodes with a fresh pheromone field.
func New(n int, opts ...Option) (*Colony, error) {
	if n < 1 {
		return nil, fmt.Errorf("colony size must be >= 1, got %d", n)
	}

	c := &Colony{
		n:     n,
		field: pheromone.New(n),
		seed:  time.Now().UnixNano(),
		best:  Route{Cost: math.Inf(1)},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrNop(c.logger).With(logging.Component("colony"))

	if c.pool == nil {
		pool, err := parallel.NewWorkerPool(c.workers, c.logger)
		if err != nil {
			return nil, fmt.Errorf("create worker pool: %w", err)
		}
		c.pool = pool
		c.ownsPool = true
	}
	c.rng = rand.New(rand.NewSource(c.seed))
	return c, nil
}

// Seed returns the seed the random stream restarts from on Reset.
func (c *Colony) Seed() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.seed
}

// Size returns the number of nodes the colony was built for.
func (c *Colony) Size() int {
	return c.n
}

// Workers returns the number of goroutines wagons are spread over.
func (c *Colony) Workers() int {
	return c.pool.Workers()
}

// Iterate runs one iteration of p.Agents wagons from start to end over costs.
// costs is read but never written; callers pass a snapshot.
func (c *Colony) Iterate(costs network.Matrix, start, end int, p Params) (Result, error) {
	if err := p.Validate(); err != nil {
		return Result{}, err
	}
	if costs.Size() != c.n {
		return Result{}, fmt.Errorf("%w: got %d, want %d", ErrSizeMismatch, costs.Size(), c.n)
	}
	if start < 0 || start >= c.n || end < 0 || end >= c.n {
		return Result{}, fmt.Errorf("%w: start=%d end=%d with %d nodes", ErrEndpointOutOfRange, start, end, c.n)
	}

	c.iterMu.Lock()
	defer c.iterMu.Unlock()

	began := time.Now()

	// Pheromones and per-wagon seeds are fixed before any wagon moves.
	tau := c.field.Snapshot()
	seeds := make([]int64, p.Agents)
	c.mu.Lock()
	for i := range seeds {
		seeds[i] = deriveSeed(c.rng.Int63(), uint64(i))
	}
	c.mu.Unlock()

	wagons := make([]*Wagon, p.Agents)
	err := c.pool.Run(p.Agents, func(i int) {
		w := NewWagon(start, end, c.n)
		w.Walk(tau, costs, p, rand.New(rand.NewSource(seeds[i])))
		wagons[i] = w
	})
	if errors.Is(err, parallel.ErrPoolClosed) {
		return Result{}, ErrClosed
	}
	if err != nil {
		return Result{}, fmt.Errorf("run wagons: %w", err)
	}

	res := Result{IterationBest: Route{Cost: math.Inf(1)}}
	arrived := make([]Route, 0, len(wagons))
	for _, w := range wagons {
		if w.State != Arrived {
			res.Stuck++
			continue
		}
		res.Arrived++
		r := Route{Path: w.Path, Cost: w.Cost}
		arrived = append(arrived, r)
		if r.Cost < res.IterationBest.Cost {
			res.IterationBest = r
		}
	}
	res.NoPathFound = res.Arrived == 0

	c.field.Evaporate(p.Evaporation)
	for _, r := range arrived {
		c.field.Deposit(r.Path, r.Cost, p.Deposit)
	}

	c.mu.Lock()
	if !res.NoPathFound && res.IterationBest.Cost < c.best.Cost {
		c.best = res.IterationBest.clone()
		c.found = true
		res.Improved = true
	}
	c.iteration++
	res.Iteration = c.iteration
	res.Best = c.best.clone()
	res.Found = c.found
	c.mu.Unlock()

	res.Duration = time.Since(began)

	c.logger.Debug("iteration committed",
		logging.Iteration(res.Iteration),
		logging.Int("arrived", res.Arrived),
		logging.Int("stuck", res.Stuck),
		logging.Cost(res.Best.Cost),
		logging.Bool("improved", res.Improved),
		logging.Latency(res.Duration),
	)
	return res, nil
}

// Reset restores pheromones to their initial level, forgets the best route,
// zeroes the iteration counter and restarts the random stream from the seed.
func (c *Colony) Reset() {
	c.iterMu.Lock()
	defer c.iterMu.Unlock()

	c.field.Initialize()

	c.mu.Lock()
	c.best = Route{Cost: math.Inf(1)}
	c.found = false
	c.iteration = 0
	c.rng = rand.New(rand.NewSource(c.seed))
	c.mu.Unlock()
}

// Best returns the best route since the last reset and whether one exists.
func (c *Colony) Best() (Route, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.best.clone(), c.found
}

// Iteration returns the number of committed iterations since the last reset.
func (c *Colony) Iteration() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.iteration
}

// Pheromones returns a copy of the pheromone matrix.
func (c *Colony) Pheromones() network.Matrix {
	return c.field.Snapshot()
}

// PheromoneStats summarizes the pheromone matrix.
func (c *Colony) PheromoneStats() pheromone.Stats {
	return c.field.Stats()
}

// Close releases the worker pool if the colony created it.
func (c *Colony) Close() {
	if c.ownsPool {
		c.pool.Close()
	}
}

// deriveSeed mixes a parent draw with a stream id (SplitMix64 finalizer) so
// that neighbouring wagons get decorrelated streams.
func deriveSeed(parent int64, stream uint64) int64 {
	x := uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return int64(x)
}
