package simulation

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/colony"
	"github.com/dd0wney/cluso-aco/pkg/validation"
)

// Defaults for a run on the built-in rail network.
const (
	DefaultMaxIterations = 200
	DefaultTickInterval  = 40 * time.Millisecond
	DefaultDisruption    = 4.0
	MinTickInterval      = time.Millisecond
)

// Config selects the route to search and the algorithm parameters.
type Config struct {
	Start         int `json:"start" yaml:"start"`
	End           int `json:"end" yaml:"end"`
	colony.Params `yaml:",inline"`
	MaxIterations int `json:"maxIterations" yaml:"max_iterations"`
}

// DefaultConfig returns the stock parameters for a start/end pair.
func DefaultConfig(start, end int) Config {
	return Config{
		Start:         start,
		End:           end,
		Params:        colony.DefaultParams(),
		MaxIterations: DefaultMaxIterations,
	}
}

// Validate checks cfg against a network of n nodes. Failures wrap
// ErrInvalidParameter.
func (c Config) Validate(n int) error {
	err := validation.NewConfigValidator("Simulation").
		Index("Start", c.Start, n).
		Index("End", c.End, n).
		PositiveFloat("Alpha", c.Alpha).
		PositiveFloat("Beta", c.Beta).
		OpenRangeFloat("Evaporation", c.Evaporation, 0, 1).
		PositiveFloat("Deposit", c.Deposit).
		MinInt("Agents", c.Agents, 1).
		MinInt("MaxIterations", c.MaxIterations, 1).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}
	return nil
}

// Apply returns c with every field set in req overriding the current value.
// req must already have passed validation.ValidateRunRequest.
func (c Config) Apply(req *validation.RunRequest) Config {
	if req == nil {
		return c
	}
	set := func(dst *int, v *int) {
		if v != nil {
			*dst = *v
		}
	}
	setf := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Start, req.Start)
	set(&c.End, req.End)
	set(&c.Agents, req.Agents)
	set(&c.MaxIterations, req.MaxIterations)
	setf(&c.Alpha, req.Alpha)
	setf(&c.Beta, req.Beta)
	setf(&c.Evaporation, req.Evaporation)
	setf(&c.Deposit, req.Deposit)
	return c
}
