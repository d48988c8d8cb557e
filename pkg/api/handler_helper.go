package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dd0wney/cluso-aco/pkg/logging"
	"github.com/dd0wney/cluso-aco/pkg/simulation"
	"github.com/dd0wney/cluso-aco/pkg/validation"
)

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("error encoding JSON response", logging.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}

// respondErr maps a session or validation error to its status code.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", logging.Error(err))
		s.respondError(w, status, "internal error")
		return
	}
	s.respondError(w, status, err.Error())
}

// statusFor picks 400 for bad input, 409 for requests the session's current
// state forbids and 503 once the session is closed.
func statusFor(err error) int {
	switch {
	case errors.Is(err, validation.ErrValidation),
		errors.Is(err, simulation.ErrInvalidParameter),
		errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, simulation.ErrSessionActive),
		errors.Is(err, simulation.ErrSessionRunning),
		errors.Is(err, simulation.ErrNotConfigured),
		errors.Is(err, simulation.ErrRunComplete):
		return http.StatusConflict
	case errors.Is(err, simulation.ErrClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadBody = errors.New("invalid request body")

// decodeJSON decodes an optional JSON body into v. An empty body leaves v
// untouched; unknown fields and trailing data are rejected.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", errBadBody, tooLarge.Limit)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadBody)
	}
	return nil
}
