package colony

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidParams is returned when algorithm parameters are out of range.
var ErrInvalidParams = errors.New("invalid colony parameters")

// Default parameters, tuned on the built-in rail network.
const (
	DefaultAlpha       = 1.0
	DefaultBeta        = 2.5
	DefaultEvaporation = 0.15
	DefaultDeposit     = 100.0
	DefaultAgents      = 50
)

// Params are the tunables of a single iteration. They are passed into every
// Iterate call; the colony keeps no configuration of its own.
type Params struct {
	// Alpha weights the pheromone level in the transition rule.
	Alpha float64 `json:"alpha" yaml:"alpha"`
	// Beta weights the inverse edge cost in the transition rule.
	Beta float64 `json:"beta" yaml:"beta"`
	// Evaporation is the fraction of pheromone removed each iteration.
	Evaporation float64 `json:"evaporation" yaml:"evaporation"`
	// Deposit is the constant Q; an arrived path deposits Q/cost per hop.
	Deposit float64 `json:"deposit" yaml:"deposit"`
	// Agents is the number of wagons released per iteration.
	Agents int `json:"agents" yaml:"agents"`
}

// DefaultParams returns the stock parameter set.
func DefaultParams() Params {
	return Params{
		Alpha:       DefaultAlpha,
		Beta:        DefaultBeta,
		Evaporation: DefaultEvaporation,
		Deposit:     DefaultDeposit,
		Agents:      DefaultAgents,
	}
}

// Validate checks every parameter against its allowed range.
func (p Params) Validate() error {
	switch {
	case !positive(p.Alpha):
		return fmt.Errorf("%w: alpha must be finite and > 0, got %v", ErrInvalidParams, p.Alpha)
	case !positive(p.Beta):
		return fmt.Errorf("%w: beta must be finite and > 0, got %v", ErrInvalidParams, p.Beta)
	case !(p.Evaporation > 0 && p.Evaporation < 1):
		return fmt.Errorf("%w: evaporation must be in (0, 1), got %v", ErrInvalidParams, p.Evaporation)
	case !positive(p.Deposit):
		return fmt.Errorf("%w: deposit must be finite and > 0, got %v", ErrInvalidParams, p.Deposit)
	case p.Agents < 1:
		return fmt.Errorf("%w: agents must be >= 1, got %d", ErrInvalidParams, p.Agents)
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}
