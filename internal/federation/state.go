package federation

import "hostlink/internal/domain"

// Phase is a downstream connection's lifecycle phase.
type Phase string

const (
	PhaseConfigured Phase = "configured"
	PhaseStarting   Phase = "starting"
	PhaseHealthy    Phase = "healthy"
	PhaseRestarting Phase = "restarting"
	PhaseFailed     Phase = "failed"
)

// Event drives connection state transitions.
type Event string

const (
	// EventStart begins the initial connection attempt.
	EventStart Event = "start"
	// EventUp records a successful connect plus tool discovery.
	EventUp Event = "up"
	// EventDown records a failed connect, probe, or discovery.
	EventDown Event = "down"
)

// ConnectionState pairs a phase with the reconnect attempt counter, which
// is meaningful only while restarting.
type ConnectionState struct {
	Phase   Phase
	Attempt int
}

// Transition applies one event to a state and returns the next state.
// Failed is terminal; events on it and other unmatched pairs leave the
// state unchanged.
func Transition(state ConnectionState, event Event) ConnectionState {
	switch state.Phase {
	case PhaseConfigured:
		if event == EventStart {
			return ConnectionState{Phase: PhaseStarting}
		}
	case PhaseStarting:
		switch event {
		case EventUp:
			return ConnectionState{Phase: PhaseHealthy}
		case EventDown:
			return ConnectionState{Phase: PhaseFailed}
		}
	case PhaseHealthy:
		if event == EventDown {
			return ConnectionState{Phase: PhaseRestarting, Attempt: 1}
		}
	case PhaseRestarting:
		switch event {
		case EventUp:
			return ConnectionState{Phase: PhaseHealthy}
		case EventDown:
			if state.Attempt+1 > domain.MaxReconnectAttempts {
				return ConnectionState{Phase: PhaseFailed}
			}
			return ConnectionState{Phase: PhaseRestarting, Attempt: state.Attempt + 1}
		}
	}
	return state
}
