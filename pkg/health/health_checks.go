package health

import (
	"fmt"
	"time"

	"github.com/dd0wney/cluso-aco/pkg/simulation"
)

// StallTicks is how many tick intervals a running session may go without
// committing an iteration before it is reported as degraded.
const StallTicks = 25

// SessionProbe is the part of a session the session check reads.
type SessionProbe interface {
	State() simulation.State
	Heartbeat() time.Time
	TickInterval() time.Duration
}

// Alive is a liveness check that always passes while the process can answer.
func Alive() Check {
	return Check{Name: "process", Status: StatusHealthy}
}

// SessionCheck reports a running session that has stopped ticking as
// degraded. Idle, paused and completed sessions are healthy.
func SessionCheck(s SessionProbe) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "session",
			Details: make(map[string]any),
		}

		state := s.State()
		check.Details["state"] = state.String()
		check.Status = StatusHealthy
		check.Message = "Session " + state.String()

		if state != simulation.Running {
			return check
		}

		limit := StallTicks * s.TickInterval()
		since := time.Since(s.Heartbeat())
		check.Details["since_last_tick_ms"] = since.Milliseconds()
		if since > limit {
			check.Status = StatusDegraded
			check.Message = fmt.Sprintf("No iteration for %v (limit %v)", since.Round(time.Millisecond), limit)
		}
		return check
	}
}

// BroadcastCheck reports the status broadcaster. A nil ping means
// broadcasting is disabled.
func BroadcastCheck(ping func() error) CheckFunc {
	return func() Check {
		check := Check{Name: "broadcast"}

		switch {
		case ping == nil:
			check.Status = StatusHealthy
			check.Message = "Broadcast disabled"
		default:
			if err := ping(); err != nil {
				check.Status = StatusUnhealthy
				check.Message = err.Error()
			} else {
				check.Status = StatusHealthy
				check.Message = "Publishing"
			}
		}
		return check
	}
}

// MemoryCheck creates a health check for memory usage
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func() Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["alloc_bytes"] = alloc
		check.Details["sys_bytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys) > 0.9 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}

		return check
	}
}
