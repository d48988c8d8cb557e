package simulation

import "fmt"

// State is the run state of a session.
type State int

const (
	Idle State = iota
	Running
	Paused
	Completed
)

var stateNames = [...]string{"idle", "running", "paused", "completed"}

// States lists every state in declaration order.
func States() []State {
	return []State{Idle, Running, Paused, Completed}
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Active reports whether the state holds an unfinished run.
func (s State) Active() bool {
	return s == Running || s == Paused
}
