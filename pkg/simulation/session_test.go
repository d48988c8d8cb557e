package simulation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/network"
	"github.com/dd0wney/cluso-aco/pkg/pheromone"
	"github.com/dd0wney/cluso-aco/pkg/pubsub"
)

func abcd(t *testing.T) *network.Graph {
	t.Helper()
	g, err := network.BuildGraph([]string{"A", "B", "C", "D"}, []network.Edge{
		{A: 0, B: 1, Cost: 10},
		{A: 1, B: 2, Cost: 10},
		{A: 0, B: 2, Cost: 30},
		{A: 2, B: 3, Cost: 5},
	})
	if err != nil {
		t.Fatalf("BuildGraph() error = %v", err)
	}
	return g
}

func newSession(t *testing.T, g *network.Graph, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithSeed(42), WithTickInterval(time.Millisecond)}, opts...)
	s, err := New(g, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func configured(t *testing.T, g *network.Graph, cfg Config, opts ...Option) *Session {
	t.Helper()
	s := newSession(t, g, opts...)
	if err := s.Configure(cfg); err != nil {
		t.Fatalf("Configure() error = %v", err)
	}
	return s
}

func railConfig(maxIterations int) Config {
	cfg := DefaultConfig(network.RailDefaultStart, network.RailDefaultEnd)
	cfg.MaxIterations = maxIterations
	return cfg
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestNewRejects(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("New(nil) error = %v", err)
	}
	if _, err := New(abcd(t), WithTickInterval(time.Microsecond)); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("New() with tiny tick error = %v", err)
	}
}

func TestConfigureValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"start out of range", func(c *Config) { c.Start = 4 }},
		{"negative end", func(c *Config) { c.End = -1 }},
		{"zero alpha", func(c *Config) { c.Alpha = 0 }},
		{"nan beta", func(c *Config) { c.Beta = math.NaN() }},
		{"evaporation one", func(c *Config) { c.Evaporation = 1 }},
		{"zero deposit", func(c *Config) { c.Deposit = 0 }},
		{"no agents", func(c *Config) { c.Agents = 0 }},
		{"no iterations", func(c *Config) { c.MaxIterations = 0 }},
	}

	s := newSession(t, abcd(t))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig(0, 3)
			tt.mutate(&cfg)
			if err := s.Configure(cfg); !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("Configure() error = %v, want ErrInvalidParameter", err)
			}
		})
	}
	if _, ok := s.Config(); ok {
		t.Error("rejected configurations should not be stored")
	}
}

func TestRequiresConfiguration(t *testing.T) {
	s := newSession(t, abcd(t))
	if err := s.Start(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Start() error = %v, want ErrNotConfigured", err)
	}
	if _, err := s.Step(); !errors.Is(err, ErrNotConfigured) {
		t.Errorf("Step() error = %v, want ErrNotConfigured", err)
	}
	if s.State() != Idle {
		t.Errorf("State() = %v, want idle", s.State())
	}
}

func TestStepLifecycle(t *testing.T) {
	cfg := DefaultConfig(0, 3)
	cfg.MaxIterations = 3
	s := configured(t, abcd(t), cfg)

	for i := 1; i <= 3; i++ {
		res, err := s.Step()
		if err != nil {
			t.Fatalf("Step() %d error = %v", i, err)
		}
		if res.Iteration != i {
			t.Errorf("Iteration = %d, want %d", res.Iteration, i)
		}
		want := Paused
		if i == 3 {
			want = Completed
		}
		if s.State() != want {
			t.Errorf("after step %d State() = %v, want %v", i, s.State(), want)
		}
	}

	if _, err := s.Step(); !errors.Is(err, ErrRunComplete) {
		t.Errorf("Step() past the budget error = %v, want ErrRunComplete", err)
	}

	// Reconfiguring a completed run makes it idle; the next step starts over.
	cfg.MaxIterations = 10
	if err := s.Configure(cfg); err != nil {
		t.Fatalf("Configure() after completion error = %v", err)
	}
	if s.State() != Idle {
		t.Errorf("State() = %v, want idle", s.State())
	}
	res, err := s.Step()
	if err != nil || res.Iteration != 1 {
		t.Errorf("Step() = %d, %v; want iteration 1", res.Iteration, err)
	}
}

func TestConvergesOnABCD(t *testing.T) {
	cfg := DefaultConfig(0, 3)
	cfg.MaxIterations = 60
	s := configured(t, abcd(t), cfg)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "completion", func() bool { return s.State() == Completed })

	snap := s.Snapshot()
	if snap.Iteration != 60 || snap.Progress != 1 {
		t.Errorf("Iteration/Progress = %d/%v", snap.Iteration, snap.Progress)
	}
	if !reflect.DeepEqual(snap.BestPath, []int{0, 1, 2, 3}) || snap.BestCost != 25 {
		t.Errorf("best = %v @ %v, want [0 1 2 3] @ 25", snap.BestPath, snap.BestCost)
	}
	if !reflect.DeepEqual(snap.BestPathNames, []string{"A", "B", "C", "D"}) {
		t.Errorf("BestPathNames = %v", snap.BestPathNames)
	}
	if !snap.Found || !snap.Reachable {
		t.Errorf("Found/Reachable = %v/%v", snap.Found, snap.Reachable)
	}
}

func TestPauseAndResume(t *testing.T) {
	s := configured(t, network.RailNetwork(), railConfig(1000000))

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Errorf("Start() while running error = %v", err)
	}
	waitFor(t, "three iterations", func() bool { return s.Snapshot().Iteration >= 3 })

	if _, err := s.Step(); !errors.Is(err, ErrSessionRunning) {
		t.Errorf("Step() while running error = %v, want ErrSessionRunning", err)
	}
	if err := s.Configure(railConfig(10)); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Configure() while running error = %v, want ErrSessionActive", err)
	}

	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	if s.State() != Paused {
		t.Fatalf("State() = %v, want paused", s.State())
	}
	paused := s.Snapshot().Iteration
	time.Sleep(20 * time.Millisecond)
	if got := s.Snapshot().Iteration; got != paused {
		t.Fatalf("iteration moved from %d to %d while paused", paused, got)
	}
	if err := s.Configure(railConfig(10)); !errors.Is(err, ErrSessionActive) {
		t.Errorf("Configure() while paused error = %v, want ErrSessionActive", err)
	}

	// A paused run can be stepped by hand.
	res, err := s.Step()
	if err != nil || res.Iteration != paused+1 {
		t.Fatalf("Step() while paused = %d, %v; want %d", res.Iteration, err, paused+1)
	}

	// Resuming keeps the counter.
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "progress after resume", func() bool { return s.Snapshot().Iteration > paused+3 })
	if err := s.Pause(); err != nil {
		t.Fatal(err)
	}
	if err := s.Pause(); err != nil {
		t.Errorf("second Pause() error = %v", err)
	}
}

// gatedRecorder holds the first recorded iteration until opened, which keeps
// the run loop inside an iteration.
type gatedRecorder struct {
	nopRecorder
	entered   chan struct{}
	release   chan struct{}
	first     sync.Once
	releaseMu sync.Once
}

func newGatedRecorder() *gatedRecorder {
	return &gatedRecorder{entered: make(chan struct{}), release: make(chan struct{})}
}

func (r *gatedRecorder) RecordIteration(colony.Result, pheromone.Stats) {
	r.first.Do(func() {
		close(r.entered)
		<-r.release
	})
}

func (r *gatedRecorder) open() { r.releaseMu.Do(func() { close(r.release) }) }

func TestPauseCommitsInFlightIteration(t *testing.T) {
	rec := newGatedRecorder()
	s := configured(t, network.RailNetwork(), railConfig(1000000), WithRecorder(rec))
	t.Cleanup(rec.open)

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	select {
	case <-rec.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first iteration")
	}

	paused := make(chan error, 1)
	go func() { paused <- s.Pause() }()
	select {
	case err := <-paused:
		t.Fatalf("Pause() = %v before the in-flight iteration finished", err)
	case <-time.After(20 * time.Millisecond):
	}

	rec.open()
	select {
	case err := <-paused:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Pause() never returned")
	}

	snap := s.Snapshot()
	if snap.State != Paused || snap.Iteration != 1 {
		t.Fatalf("after pause: state=%v iteration=%d, want paused at 1", snap.State, snap.Iteration)
	}
	if snap.LastIteration == nil || snap.LastIteration.Iteration != 1 {
		t.Fatalf("LastIteration = %+v, want iteration 1 committed", snap.LastIteration)
	}
	time.Sleep(20 * time.Millisecond)
	if got := s.Snapshot().Iteration; got != 1 {
		t.Errorf("iteration moved to %d after pause", got)
	}
}

func TestSnapshotMatchesLastIteration(t *testing.T) {
	s := configured(t, network.RailNetwork(), railConfig(1000000))
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Pause() })
	waitFor(t, "first iteration", func() bool { return s.Snapshot().Iteration >= 1 })

	var wg sync.WaitGroup
	errs := make(chan string, 4)
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				snap := s.Snapshot()
				last := snap.LastIteration
				switch {
				case last == nil:
					errs <- "LastIteration = nil after the first iteration"
					return
				case last.Iteration != snap.Iteration:
					errs <- fmt.Sprintf("Iteration = %d but LastIteration.Iteration = %d", snap.Iteration, last.Iteration)
					return
				case last.Best.Cost != snap.BestCost && !(math.IsInf(last.Best.Cost, 1) && math.IsInf(snap.BestCost, 1)):
					errs <- fmt.Sprintf("BestCost = %v but LastIteration.Best.Cost = %v", snap.BestCost, last.Best.Cost)
					return
				}
			}
		}()
	}
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}

func TestStartAfterCompletionRestarts(t *testing.T) {
	cfg := DefaultConfig(0, 3)
	cfg.MaxIterations = 2
	s := configured(t, abcd(t), cfg)

	s.Step()
	s.Step()
	if s.State() != Completed {
		t.Fatalf("State() = %v, want completed", s.State())
	}

	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "second completion", func() bool { return s.State() == Completed })
	if got := s.Snapshot().Iteration; got != 2 {
		t.Errorf("Iteration = %d, want 2 after restart", got)
	}
}

func TestResetKeepsDisruptions(t *testing.T) {
	g := abcd(t)
	s := configured(t, g, DefaultConfig(0, 3))

	applied, err := s.Disrupt(1, 2, 4)
	if err != nil || !applied {
		t.Fatalf("Disrupt() = %v, %v", applied, err)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.Step(); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.State != Idle || snap.Iteration != 0 || snap.Found || snap.LastIteration != nil {
		t.Errorf("after reset: state=%v iteration=%d found=%v", snap.State, snap.Iteration, snap.Found)
	}
	if !math.IsInf(snap.BestCost, 1) {
		t.Errorf("BestCost = %v, want +Inf", snap.BestCost)
	}
	if snap.PheromoneStats.Min != pheromone.InitialLevel || snap.PheromoneStats.Max != pheromone.InitialLevel {
		t.Errorf("pheromones not reinitialized: %+v", snap.PheromoneStats)
	}
	if snap.Costs[1][2] != 40 || snap.Costs[2][1] != 40 {
		t.Errorf("disrupted cost = %v, want 40 kept after reset", snap.Costs[1][2])
	}

	s.ResetToBaseline()
	if got := g.Cost(1, 2); got != 10 {
		t.Errorf("cost after ResetToBaseline = %v, want 10", got)
	}
}

func TestDisrupt(t *testing.T) {
	g := abcd(t)
	s := newSession(t, g)

	tests := []struct {
		name       string
		a, b       int
		multiplier float64
		applied    bool
		wantErr    error
	}{
		{name: "edge", a: 0, b: 1, multiplier: 2, applied: true},
		{name: "compounds", a: 1, b: 0, multiplier: 3, applied: true},
		{name: "no edge", a: 1, b: 3, multiplier: 4},
		{name: "same node", a: 2, b: 2, multiplier: 4},
		{name: "out of range", a: 0, b: 9, multiplier: 4, wantErr: ErrInvalidParameter},
		{name: "negative index", a: -1, b: 0, multiplier: 4, wantErr: ErrInvalidParameter},
		{name: "zero multiplier", a: 0, b: 1, multiplier: 0, wantErr: ErrInvalidParameter},
		{name: "infinite multiplier", a: 0, b: 1, multiplier: math.Inf(1), wantErr: ErrInvalidParameter},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			applied, err := s.Disrupt(tt.a, tt.b, tt.multiplier)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Disrupt() error = %v, want %v", err, tt.wantErr)
			}
			if applied != tt.applied {
				t.Errorf("Disrupt() = %v, want %v", applied, tt.applied)
			}
		})
	}

	if got := g.Cost(0, 1); got != 60 || g.Cost(1, 0) != 60 {
		t.Errorf("compounded cost = %v, want 60 both ways", got)
	}
	if !g.Costs().Symmetric() {
		t.Error("costs lost symmetry")
	}
}

func TestDisruptRejectsOverflow(t *testing.T) {
	g := abcd(t)
	s := configured(t, g, DefaultConfig(0, 3))

	if applied, err := s.Disrupt(0, 1, 1e300); err != nil || !applied {
		t.Fatalf("Disrupt(1e300) = %v, %v", applied, err)
	}
	before := g.Cost(0, 1)
	for i := 0; i < 3; i++ {
		applied, err := s.Disrupt(0, 1, 1e300)
		if !errors.Is(err, ErrInvalidParameter) || applied {
			t.Fatalf("Disrupt() #%d past MaxFloat64 = %v, %v; want ErrInvalidParameter", i, applied, err)
		}
	}
	if got := g.Cost(0, 1); got != before || math.IsInf(got, 0) {
		t.Errorf("cost = %v, want %v kept", got, before)
	}

	if _, err := s.Step(); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(s.Snapshot())
	if err != nil {
		t.Fatalf("Marshal() after heavy disruption error = %v", err)
	}
	var decoded struct {
		Edges []EdgeReport `json:"edges"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	for _, e := range decoded.Edges {
		if e.Cost == nil || e.Baseline == nil {
			t.Errorf("edge (%d, %d) lost its cost: %+v", e.A, e.B, e)
		}
	}
}

func TestDisruptReroutes(t *testing.T) {
	cfg := DefaultConfig(0, 3)
	cfg.MaxIterations = 200
	s := configured(t, abcd(t), cfg)

	for i := 0; i < 30; i++ {
		s.Step()
	}
	if snap := s.Snapshot(); snap.BestCost != 25 {
		t.Fatalf("BestCost = %v before disruption, want 25", snap.BestCost)
	}

	// A-B-C-D now costs 10*10+10+5 = 115; A-C-D is 35. The running best is
	// monotone, so it is a reset that lets the colony see the new optimum.
	if _, err := s.Disrupt(0, 1, 10); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 30; i++ {
		s.Step()
	}
	snap := s.Snapshot()
	if !reflect.DeepEqual(snap.BestPath, []int{0, 2, 3}) || snap.BestCost != 35 {
		t.Errorf("best after disruption = %v @ %v, want [0 2 3] @ 35", snap.BestPath, snap.BestCost)
	}
}

func TestUnreachableEnd(t *testing.T) {
	g, err := network.BuildGraph([]string{"A", "B", "C"}, []network.Edge{{A: 0, B: 1, Cost: 1}})
	if err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig(0, 2)
	cfg.Agents = 5
	s := configured(t, g, cfg)

	res, err := s.Step()
	if err != nil {
		t.Fatal(err)
	}
	if !res.NoPathFound {
		t.Error("NoPathFound = false on an unreachable end")
	}
	snap := s.Snapshot()
	if snap.Found || snap.Reachable {
		t.Errorf("Found/Reachable = %v/%v, want false/false", snap.Found, snap.Reachable)
	}
}

func sequence(t *testing.T, workers int) []Snapshot {
	t.Helper()
	s := configured(t, network.RailNetwork(), railConfig(100), WithSeed(1234), WithWorkers(workers))

	var out []Snapshot
	for i := 1; i <= 40; i++ {
		switch i {
		case 10:
			s.Disrupt(5, 6, 4)
		case 20:
			s.Disrupt(1, 2, 2.5)
		case 30:
			s.Reset()
		}
		if _, err := s.Step(); err != nil {
			t.Fatal(err)
		}
		snap := s.Snapshot()
		snap.ID, snap.LastTick, snap.LastIteration = "", time.Time{}, nil
		out = append(out, snap)
	}
	return out
}

func TestDeterministic(t *testing.T) {
	a := sequence(t, 1)
	b := sequence(t, 1)
	c := sequence(t, 6)

	for i := range a {
		if !reflect.DeepEqual(a[i], b[i]) {
			t.Fatalf("step %d differs between identical runs", i+1)
		}
		if !reflect.DeepEqual(a[i], c[i]) {
			t.Fatalf("step %d differs between 1 and 6 workers", i+1)
		}
	}
}

func TestSnapshotJSON(t *testing.T) {
	s := configured(t, abcd(t), DefaultConfig(0, 3))

	decode := func() map[string]any {
		t.Helper()
		data, err := json.Marshal(s.Snapshot())
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var out map[string]any
		if err := json.Unmarshal(data, &out); err != nil {
			t.Fatal(err)
		}
		return out
	}

	before := decode()
	if before["bestCost"] != nil {
		t.Errorf("bestCost = %v before any run, want null", before["bestCost"])
	}
	if before["state"] != "idle" {
		t.Errorf("state = %v", before["state"])
	}
	costs := before["costs"].([]any)
	if costs[0].([]any)[3] != nil {
		t.Errorf("costs[0][3] = %v, want null for a missing edge", costs[0].([]any)[3])
	}
	if costs[0].([]any)[1] != 10.0 {
		t.Errorf("costs[0][1] = %v, want 10", costs[0].([]any)[1])
	}

	s.Step()
	after := decode()
	if after["bestCost"] == nil {
		t.Error("bestCost is null after a successful step")
	}
	last := after["lastIteration"].(map[string]any)
	if last["iteration"] != 1.0 {
		t.Errorf("lastIteration.iteration = %v", last["iteration"])
	}
	if len(after["edges"].([]any)) != 4 {
		t.Errorf("edges = %v", after["edges"])
	}
	cfg := after["config"].(map[string]any)
	if cfg["alpha"] != colony.DefaultAlpha || cfg["maxIterations"] != float64(DefaultMaxIterations) {
		t.Errorf("config = %v", cfg)
	}
}

func TestPublishesEvents(t *testing.T) {
	ps := pubsub.NewPubSub(0)
	defer ps.Shutdown()

	ctx := context.Background()
	iters, err := ps.Subscribe(ctx, pubsub.TopicIteration)
	if err != nil {
		t.Fatal(err)
	}
	states, err := ps.Subscribe(ctx, pubsub.TopicState)
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig(0, 3)
	cfg.MaxIterations = 1
	s := configured(t, abcd(t), cfg, WithPubSub(ps), WithID("s-1"))
	s.Step()

	ev := (<-iters.Channel()).(IterationEvent)
	if ev.SessionID != "s-1" || ev.Report.Iteration != 1 || ev.State != Completed || ev.Progress != 1 {
		t.Errorf("iteration event = %+v", ev)
	}

	var transitions []State
	for len(transitions) < 2 {
		select {
		case msg := <-states.Channel():
			transitions = append(transitions, msg.(StateEvent).To)
		case <-time.After(time.Second):
			t.Fatalf("got transitions %v", transitions)
		}
	}
	if !reflect.DeepEqual(transitions, []State{Paused, Completed}) {
		t.Errorf("transitions = %v, want [paused completed]", transitions)
	}
}

type countingRecorder struct {
	mu          sync.Mutex
	iterations  int
	disruptions map[bool]int
	states      []string
}

func (r *countingRecorder) RecordIteration(colony.Result, pheromone.Stats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.iterations++
}

func (r *countingRecorder) RecordDisruption(applied bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.disruptions[applied]++
}

func (r *countingRecorder) RecordState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func TestRecorder(t *testing.T) {
	rec := &countingRecorder{disruptions: map[bool]int{}}
	s := configured(t, abcd(t), DefaultConfig(0, 3), WithRecorder(rec))

	s.Step()
	s.Step()
	s.Disrupt(0, 1, 2)
	s.Disrupt(0, 3, 2)
	s.Reset()

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.iterations != 2 {
		t.Errorf("iterations = %d, want 2", rec.iterations)
	}
	if rec.disruptions[true] != 1 || rec.disruptions[false] != 1 {
		t.Errorf("disruptions = %v", rec.disruptions)
	}
	if want := []string{"idle", "paused", "idle"}; !reflect.DeepEqual(rec.states, want) {
		t.Errorf("states = %v, want %v", rec.states, want)
	}
}

func TestClose(t *testing.T) {
	s, err := New(network.RailNetwork(), WithSeed(1), WithTickInterval(time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Configure(railConfig(1000000)); err != nil {
		t.Fatal(err)
	}
	if err := s.Start(); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "first iteration", func() bool { return s.Snapshot().Iteration > 0 })

	s.Close()
	s.Close()

	if err := s.Start(); !errors.Is(err, ErrClosed) {
		t.Errorf("Start() after Close error = %v", err)
	}
	if _, err := s.Step(); !errors.Is(err, ErrClosed) {
		t.Errorf("Step() after Close error = %v", err)
	}
	if _, err := s.Disrupt(0, 1, 2); !errors.Is(err, ErrClosed) {
		t.Errorf("Disrupt() after Close error = %v", err)
	}
}

func TestConcurrentControl(t *testing.T) {
	s := configured(t, network.RailNetwork(), railConfig(1000000))

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				switch (i + w) % 6 {
				case 0:
					s.Start()
				case 1:
					s.Pause()
				case 2:
					s.Step()
				case 3:
					s.Disrupt(5, 6, 1.1)
				case 4:
					_ = s.Snapshot()
				case 5:
					if i%12 == 5 {
						s.Reset()
					}
				}
			}
		}(w)
	}
	wg.Wait()

	s.Pause()
	if st := s.State(); st == Running {
		t.Errorf("State() = %v after final pause", st)
	}
	if !s.Graph().Costs().Symmetric() {
		t.Error("costs lost symmetry under concurrent disruption")
	}
}
