package validation

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// ErrValidation marks every error produced by this package.
var ErrValidation = errors.New("validation failed")

var (
	// validate is a singleton validator instance
	validate *validator.Validate

	// MaxDisruptFactor caps a single disruption multiplier.
	MaxDisruptFactor = 1e6
)

func init() {
	validate = validator.New()
}

// RunRequest is the body of configure and start calls. Nil fields keep the
// session's current value.
type RunRequest struct {
	Start         *int     `json:"start" validate:"omitempty,min=0"`
	End           *int     `json:"end" validate:"omitempty,min=0"`
	Alpha         *float64 `json:"alpha" validate:"omitempty,gt=0"`
	Beta          *float64 `json:"beta" validate:"omitempty,gt=0"`
	Evaporation   *float64 `json:"evaporation" validate:"omitempty,gt=0,lt=1"`
	Deposit       *float64 `json:"deposit" validate:"omitempty,gt=0"`
	Agents        *int     `json:"agents" validate:"omitempty,min=1,max=10000"`
	MaxIterations *int     `json:"maxIterations" validate:"omitempty,min=1,max=1000000"`
}

// Empty reports whether no field is set.
func (r *RunRequest) Empty() bool {
	return r.Start == nil && r.End == nil && r.Alpha == nil && r.Beta == nil &&
		r.Evaporation == nil && r.Deposit == nil && r.Agents == nil && r.MaxIterations == nil
}

// DisruptRequest asks for the edge between NodeA and NodeB to be made more
// expensive. A nil Multiplier selects the server default.
type DisruptRequest struct {
	NodeA      *int     `json:"nodeA" validate:"required,min=0"`
	NodeB      *int     `json:"nodeB" validate:"required,min=0"`
	Multiplier *float64 `json:"multiplier" validate:"omitempty,gt=0"`
}

// ValidateRunRequest validates a run request against a network of n nodes.
func ValidateRunRequest(req *RunRequest, n int) error {
	if req == nil {
		return fmt.Errorf("%w: run request cannot be nil", ErrValidation)
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	for _, f := range []struct {
		name string
		v    *float64
	}{
		{"Alpha", req.Alpha}, {"Beta", req.Beta}, {"Deposit", req.Deposit},
	} {
		if f.v != nil && math.IsInf(*f.v, 0) {
			return fmt.Errorf("%w: %s: must be finite", ErrValidation, f.name)
		}
	}
	if err := nodeInRange("Start", req.Start, n); err != nil {
		return err
	}
	return nodeInRange("End", req.End, n)
}

// ValidateDisruptRequest validates a disruption against a network of n nodes.
func ValidateDisruptRequest(req *DisruptRequest, n int) error {
	if req == nil {
		return fmt.Errorf("%w: disrupt request cannot be nil", ErrValidation)
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	if m := req.Multiplier; m != nil && (math.IsInf(*m, 0) || *m > MaxDisruptFactor) {
		return fmt.Errorf("%w: Multiplier: must be finite and at most %g", ErrValidation, MaxDisruptFactor)
	}
	if err := nodeInRange("NodeA", req.NodeA, n); err != nil {
		return err
	}
	return nodeInRange("NodeB", req.NodeB, n)
}

func nodeInRange(field string, idx *int, n int) error {
	if idx != nil && *idx >= n {
		return fmt.Errorf("%w: %s: node %d does not exist (network has %d nodes)", ErrValidation, field, *idx, n)
	}
	return nil
}

// formatValidationError converts validator errors to a more user-friendly format
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Return the first validation error in a user-friendly format
	for _, e := range validationErrs {
		field := e.Field()
		param := e.Param()

		switch e.Tag() {
		case "required":
			return fmt.Errorf("%w: %s: field is required", ErrValidation, field)
		case "min", "gte":
			return fmt.Errorf("%w: %s: must be at least %s", ErrValidation, field, param)
		case "max", "lte":
			return fmt.Errorf("%w: %s: must not exceed %s", ErrValidation, field, param)
		case "gt":
			return fmt.Errorf("%w: %s: must be greater than %s", ErrValidation, field, param)
		case "lt":
			return fmt.Errorf("%w: %s: must be less than %s", ErrValidation, field, param)
		default:
			return fmt.Errorf("%w: %s: validation failed (%s)", ErrValidation, field, e.Tag())
		}
	}

	return fmt.Errorf("%w: %v", ErrValidation, err)
}
