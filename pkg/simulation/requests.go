package simulation

import (
	"fmt"

	"github.com/dd0wney/cluso-aco/pkg/validation"
)

// Defaults returns the configuration requests are merged over before the
// session has been configured.
func (s *Session) Defaults() Config {
	return *s.defaults
}

// ConfigureRequest validates req, merges it over the current configuration
// (or Defaults when there is none) and configures the session with the
// result. Validation failures wrap both ErrInvalidParameter and
// validation.ErrValidation.
func (s *Session) ConfigureRequest(req *validation.RunRequest) (Config, error) {
	if req == nil {
		req = &validation.RunRequest{}
	}
	if err := validation.ValidateRunRequest(req, s.graph.Size()); err != nil {
		return Config{}, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	base, ok := s.Config()
	if !ok {
		base = s.Defaults()
	}
	cfg := base.Apply(req)
	if err := s.Configure(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// StartWith configures the session from req when req sets any field or the
// session has never been configured, then starts it. An empty request on a
// paused session resumes it.
func (s *Session) StartWith(req *validation.RunRequest) error {
	_, configured := s.Config()
	if !configured || (req != nil && !req.Empty()) {
		if _, err := s.ConfigureRequest(req); err != nil {
			return err
		}
	}
	return s.Start()
}
