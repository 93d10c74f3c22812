package ws

import "time"

// State is the push channel lifecycle phase. Transitions run
// Disconnected -> Connecting -> Connected -> Disconnected and never skip.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	}
	return "UNKNOWN"
}

// Transition is one timestamped state change, kept as the manager's
// diagnostic log.
type Transition struct {
	At     time.Time
	From   State
	To     State
	Reason string
}

// StateChange is delivered to the observer on every transition. Err is
// non-nil when the transition was caused by a failure.
type StateChange struct {
	State  State
	Reason string
	Err    error
}
