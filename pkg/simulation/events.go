package simulation

import (
	"time"

	"github.com/dd0wney/cluso-aco/pkg/colony"
)

// IterationEvent is published on pubsub.TopicIteration after every
// committed iteration.
type IterationEvent struct {
	SessionID     string          `json:"sessionId"`
	State         State           `json:"state"`
	MaxIterations int             `json:"maxIterations"`
	Progress      float64         `json:"progress"`
	BestPath      []int           `json:"bestPath"`
	BestPathNames []string        `json:"bestPathNames"`
	BestCost      *float64        `json:"bestCost"`
	Found         bool            `json:"found"`
	Report        IterationReport `json:"report"`
	Time          time.Time       `json:"time"`
}

// StateEvent is published on pubsub.TopicState on every state transition.
type StateEvent struct {
	SessionID string    `json:"sessionId"`
	From      State     `json:"from"`
	To        State     `json:"to"`
	Iteration int       `json:"iteration"`
	Time      time.Time `json:"time"`
}

func newIterationEvent(id string, state State, cfg Config, res colony.Result, names []string, at time.Time) IterationEvent {
	ev := IterationEvent{
		SessionID:     id,
		State:         state,
		MaxIterations: cfg.MaxIterations,
		Progress:      progress(res.Iteration, cfg.MaxIterations),
		Found:         res.Found,
		Report:        NewIterationReport(res),
		Time:          at,
	}
	if res.Found {
		ev.BestPath = res.Best.Path
		ev.BestPathNames = names
		ev.BestCost = finite(res.Best.Cost)
	}
	return ev
}

func progress(iteration, max int) float64 {
	if max <= 0 {
		return 0
	}
	p := float64(iteration) / float64(max)
	if p > 1 {
		p = 1
	}
	return p
}
