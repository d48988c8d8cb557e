package simulation

import "errors"

var (
	// ErrInvalidParameter is returned for out-of-range configuration values,
	// node indices or disruption multipliers.
	ErrInvalidParameter = errors.New("invalid parameter")
	// ErrSessionActive is returned by Configure while a run is in progress.
	ErrSessionActive = errors.New("session has an active run")
	// ErrSessionRunning is returned by Step while the session advances itself.
	ErrSessionRunning = errors.New("session is running")
	// ErrNotConfigured is returned by Start and Step before Configure.
	ErrNotConfigured = errors.New("session is not configured")
	// ErrRunComplete is returned by Step once the iteration budget is spent.
	ErrRunComplete = errors.New("run is complete")
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("session is closed")
)
