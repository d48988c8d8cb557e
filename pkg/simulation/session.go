// Package simulation drives a colony over a live network: it owns the run
// state, advances iterations on a ticker or on demand, applies disruptions
// and publishes what happened.
//
// Iterations are serialized. An iteration already in progress always
// finishes; Pause and Reset take effect between iterations. Disruptions
// change the live graph immediately but are only seen by the next iteration,
// because each iteration walks a copy of the costs taken when it starts.
package simulation

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
)

// Session is one simulation over one network. It is safe for concurrent use.
type Session struct {
	id     string
	graph  *network.Graph
	colony *colony.Colony

	logger   logging.Logger
	recorder Recorder
	events   *pubsub.PubSub
	tick     time.Duration
	seed     int64
	seeded   bool
	workers  int
	defaults *Config

	// iterMu serializes iterations with everything that changes run state.
	// Lock order: iterMu, then mu.
	iterMu sync.Mutex

	mu         sync.RWMutex
	state      State
	cfg        Config
	configured bool
	last       *colony.Result
	lastTick   time.Time
	started    time.Time
	cancel     context.CancelFunc
	closed     bool

	loops sync.WaitGroup
}

// Option configures a Session.
type Option func(*Session)

// WithID sets the session ID. The default is a random UUID.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithRecorder sets the telemetry sink.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithPubSub publishes iteration and state events on ps.
func WithPubSub(ps *pubsub.PubSub) Option {
	return func(s *Session) { s.events = ps }
}

// WithSeed fixes the random seed so that runs are reproducible.
func WithSeed(seed int64) Option {
	return func(s *Session) {
		s.seed = seed
		s.seeded = true
	}
}

// WithTickInterval sets the delay between iterations while running.
func WithTickInterval(d time.Duration) Option {
	return func(s *Session) { s.tick = d }
}

// WithWorkers sets how many goroutines wagons are spread over.
func WithWorkers(n int) Option {
	return func(s *Session) { s.workers = n }
}

// WithDefaults sets the configuration that ConfigureRequest and StartWith
// build on before the session has been configured. The default runs from the
// first node to the last with DefaultConfig parameters.
func WithDefaults(cfg Config) Option {
	return func(s *Session) { s.defaults = &cfg }
}

// New creates an idle, unconfigured session over g.
func New(g *network.Graph, opts ...Option) (*Session, error) {
	if g == nil || g.Size() == 0 {
		return nil, fmt.Errorf("%w: session needs a non-empty network", ErrInvalidParameter)
	}

	s := &Session{
		id:    uuid.NewString(),
		graph: g,
		tick:  DefaultTickInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.tick < MinTickInterval {
		return nil, fmt.Errorf("%w: tick interval %v is below %v", ErrInvalidParameter, s.tick, MinTickInterval)
	}
	if !s.seeded {
		s.seed = time.Now().UnixNano()
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.defaults == nil {
		cfg := DefaultConfig(0, g.Size()-1)
		s.defaults = &cfg
	}
	if err := s.defaults.Validate(g.Size()); err != nil {
		return nil, fmt.Errorf("default configuration: %w", err)
	}
	s.logger = logging.OrNop(s.logger).With(logging.Component("simulation"), logging.Session(s.id))

	c, err := colony.New(g.Size(),
		colony.WithSeed(s.seed),
		colony.WithWorkers(s.workers),
		colony.WithLogger(s.logger),
	)
	if err != nil {
		return nil, err
	}
	s.colony = c
	s.recorder.RecordState(Idle.String())
	return s, nil
}

// ID returns the session ID.
func (s *Session) ID() string { return s.id }

// Graph returns the live network.
func (s *Session) Graph() *network.Graph { return s.graph }

// Seed returns the random seed.
func (s *Session) Seed() int64 { return s.seed }

// TickInterval returns the delay between iterations while running.
func (s *Session) TickInterval() time.Duration { return s.tick }

// State returns the current run state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Config returns the stored configuration and whether one has been set.
func (s *Session) Config() (Config, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg, s.configured
}

// LastTick returns when the last iteration committed.
func (s *Session) LastTick() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastTick
}

// Heartbeat returns the later of the last iteration commit and the last
// Start. A running session that is making progress keeps it recent.
func (s *Session) Heartbeat() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastTick.After(s.started) {
		return s.lastTick
	}
	return s.started
}

// Configure stores the route and parameters for the next run. It is rejected
// while a run is in progress, running or paused. Configuring a completed
// session returns it to idle; its results stay visible until the next run.
func (s *Session) Configure(cfg Config) error {
	if err := cfg.Validate(s.graph.Size()); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.state.Active() {
		return fmt.Errorf("%w: state is %s", ErrSessionActive, s.state)
	}

	s.cfg = cfg
	s.configured = true
	if s.state == Completed {
		s.setStateLocked(Idle)
	}

	s.logger.Info("session configured",
		logging.NodeIndex("start", cfg.Start),
		logging.NodeIndex("end", cfg.End),
		logging.Float64("alpha", cfg.Alpha),
		logging.Float64("beta", cfg.Beta),
		logging.Float64("evaporation", cfg.Evaporation),
		logging.Float64("deposit", cfg.Deposit),
		logging.Int("agents", cfg.Agents),
		logging.Int("max_iterations", cfg.MaxIterations),
	)
	if !s.graph.Reachable(cfg.Start, cfg.End) {
		s.logger.Warn("end is not reachable from start; every wagon will get stuck",
			logging.String("start_name", s.graph.Name(cfg.Start)),
			logging.String("end_name", s.graph.Name(cfg.End)),
		)
	}
	return nil
}

// Start begins a run, or resumes a paused one. Starting an idle or completed
// session first clears pheromones, the best route and the iteration counter.
// Starting a running session does nothing.
func (s *Session) Start() error {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if !s.configured {
		return ErrNotConfigured
	}

	switch s.state {
	case Running:
		return nil
	case Idle, Completed:
		s.clearLocked()
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.started = time.Now()
	s.loops.Add(1)
	go s.run(ctx)

	s.setStateLocked(Running)
	return nil
}

// Step runs exactly one iteration synchronously and returns its result.
// Stepping an idle session begins a new run and leaves it paused.
func (s *Session) Step() (colony.Result, error) {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()

	s.mu.Lock()
	switch {
	case s.closed:
		s.mu.Unlock()
		return colony.Result{}, ErrClosed
	case !s.configured:
		s.mu.Unlock()
		return colony.Result{}, ErrNotConfigured
	case s.state == Running:
		s.mu.Unlock()
		return colony.Result{}, ErrSessionRunning
	case s.state == Completed:
		s.mu.Unlock()
		return colony.Result{}, ErrRunComplete
	case s.state == Idle:
		s.clearLocked()
		s.setStateLocked(Paused)
	}
	s.mu.Unlock()

	return s.iterate()
}

// Pause stops a running session between iterations. It does nothing unless
// the session is running.
func (s *Session) Pause() error {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	if s.state != Running {
		return nil
	}
	s.stopLoopLocked()
	s.setStateLocked(Paused)
	return nil
}

// Reset stops any run and clears pheromones, the best route and the
// iteration counter. Edge costs, including disruptions, are kept; see
// ResetToBaseline.
func (s *Session) Reset() error {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrClosed
	}
	s.stopLoopLocked()
	s.clearLocked()
	s.setStateLocked(Idle)
	s.logger.Info("session reset", logging.Bool("disrupted", s.graph.Disrupted()))
	return nil
}

// ResetToBaseline restores every edge to the cost it was built with. It can
// be called in any state; a running iteration keeps the costs it started with.
func (s *Session) ResetToBaseline() {
	s.graph.ResetToBaseline()
	s.logger.Info("edge costs restored to baseline")
}

// Disrupt multiplies the cost of the edge between a and b in both
// directions. It reports whether an edge was changed; a pair without an edge
// is left alone and is not an error.
func (s *Session) Disrupt(a, b int, multiplier float64) (bool, error) {
	n := s.graph.Size()
	if a < 0 || a >= n || b < 0 || b >= n {
		return false, fmt.Errorf("%w: node pair (%d, %d) outside [0, %d)", ErrInvalidParameter, a, b, n)
	}
	if !(multiplier > 0) || math.IsInf(multiplier, 1) {
		return false, fmt.Errorf("%w: multiplier must be finite and positive, got %v", ErrInvalidParameter, multiplier)
	}
	if s.isClosed() {
		return false, ErrClosed
	}

	before := s.graph.Cost(a, b)
	if !math.IsInf(before, 1) && math.IsInf(before*multiplier, 1) {
		return false, fmt.Errorf("%w: multiplier %v would push the cost of (%d, %d) past the largest finite value",
			ErrInvalidParameter, multiplier, a, b)
	}
	applied := s.graph.Disrupt(a, b, multiplier)
	s.recorder.RecordDisruption(applied)

	if !applied {
		s.logger.Warn("disruption ignored: no direct edge",
			logging.NodeIndex("node_a", a), logging.NodeIndex("node_b", b))
		return false, nil
	}
	s.logger.Info("edge disrupted",
		logging.NodeIndex("node_a", a),
		logging.NodeIndex("node_b", b),
		logging.Float64("multiplier", multiplier),
		logging.Float64("cost_before", before),
		logging.Float64("cost_after", s.graph.Cost(a, b)),
	)
	return true, nil
}

// Snapshot returns a copy of everything a caller may want to render. It waits
// for an in-flight iteration so the colony fields and LastIteration agree.
func (s *Session) Snapshot() Snapshot {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()

	s.mu.RLock()
	snap := Snapshot{
		ID:         s.id,
		State:      s.state,
		Seed:       s.seed,
		Configured: s.configured,
		Config:     s.cfg,
		LastTick:   s.lastTick,
	}
	if s.last != nil {
		last := *s.last
		snap.LastIteration = &last
	}
	s.mu.RUnlock()

	snap.Iteration = s.colony.Iteration()
	snap.MaxIterations = snap.Config.MaxIterations
	snap.Progress = progress(snap.Iteration, snap.MaxIterations)
	snap.Nodes = s.graph.Nodes()
	snap.Costs = s.graph.Costs()
	snap.Edges = s.graph.Edges()
	snap.Pheromone = s.colony.Pheromones()
	snap.PheromoneStats = s.colony.PheromoneStats()

	best, found := s.colony.Best()
	snap.BestCost = best.Cost
	snap.Found = found
	if found {
		snap.BestPath = best.Path
		snap.BestPathNames = s.graph.PathNames(best.Path)
	}
	if snap.Configured {
		snap.Reachable = s.graph.Reachable(snap.Config.Start, snap.Config.End)
	}
	return snap
}

// Close stops the session and releases its workers. It is safe to call more
// than once.
func (s *Session) Close() {
	s.iterMu.Lock()
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.iterMu.Unlock()
		return
	}
	s.closed = true
	s.stopLoopLocked()
	s.mu.Unlock()
	s.iterMu.Unlock()

	s.loops.Wait()
	s.colony.Close()
	s.logger.Info("session closed")
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// run advances the session once per tick until ctx is cancelled or the run
// completes.
func (s *Session) run(ctx context.Context) {
	defer s.loops.Done()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		if done := s.tickOnce(ctx); done {
			return
		}
	}
}

// tickOnce runs one iteration for the loop. It reports whether the loop
// should exit.
func (s *Session) tickOnce(ctx context.Context) bool {
	s.iterMu.Lock()
	defer s.iterMu.Unlock()

	// Pause, Reset and Close cancel while holding iterMu, so a cancelled
	// loop never commits another iteration.
	if ctx.Err() != nil {
		return true
	}

	if _, err := s.iterate(); err != nil {
		s.logger.Error("iteration failed; pausing", logging.Error(err))
		s.mu.Lock()
		if s.state == Running {
			s.stopLoopLocked()
			s.setStateLocked(Paused)
		}
		s.mu.Unlock()
		return true
	}
	return s.State() != Running
}

// iterate runs and commits one iteration. Callers hold iterMu.
func (s *Session) iterate() (colony.Result, error) {
	s.mu.RLock()
	cfg := s.cfg
	s.mu.RUnlock()

	if s.colony.Iteration() >= cfg.MaxIterations {
		return colony.Result{}, ErrRunComplete
	}

	res, err := s.colony.Iterate(s.graph.Costs(), cfg.Start, cfg.End, cfg.Params)
	if err != nil {
		return colony.Result{}, fmt.Errorf("iteration %d: %w", s.colony.Iteration()+1, err)
	}
	now := time.Now()

	s.mu.Lock()
	last := res
	s.last = &last
	s.lastTick = now
	if res.Iteration >= cfg.MaxIterations {
		s.stopLoopLocked()
		s.setStateLocked(Completed)
	}
	state := s.state
	s.mu.Unlock()

	tau := s.colony.PheromoneStats()
	s.recorder.RecordIteration(res, tau)

	var names []string
	if res.Found {
		names = s.graph.PathNames(res.Best.Path)
	}
	if s.events != nil {
		s.events.Publish(pubsub.TopicIteration, newIterationEvent(s.id, state, cfg, res, names, now))
	}

	if res.Improved {
		s.logger.Info("new best route",
			logging.Iteration(res.Iteration),
			logging.Route(res.Best.Path),
			logging.Any("names", names),
			logging.Cost(res.Best.Cost),
		)
	}
	if res.NoPathFound {
		s.logger.Debug("no wagon arrived", logging.Iteration(res.Iteration), logging.Count(res.Stuck))
	}
	if state == Completed {
		s.logger.Info("run completed",
			logging.Iteration(res.Iteration),
			logging.Bool("found", res.Found),
			logging.Cost(res.Best.Cost),
		)
	}
	return res, nil
}

// clearLocked starts a fresh run. Callers hold iterMu and mu.
func (s *Session) clearLocked() {
	s.colony.Reset()
	s.last = nil
	s.lastTick = time.Time{}
}

func (s *Session) stopLoopLocked() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) setStateLocked(to State) {
	from := s.state
	if from == to {
		return
	}
	s.state = to
	s.recorder.RecordState(to.String())
	if s.events != nil {
		s.events.Publish(pubsub.TopicState, StateEvent{
			SessionID: s.id,
			From:      from,
			To:        to,
			Iteration: s.colony.Iteration(),
			Time:      time.Now(),
		})
	}
	s.logger.Debug("state changed", logging.String("from", from.String()), logging.State(to.String()))
}
