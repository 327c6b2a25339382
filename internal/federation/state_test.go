package federation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name  string
		from  ConnectionState
		event Event
		want  ConnectionState
	}{
		{"configured start", ConnectionState{Phase: PhaseConfigured}, EventStart, ConnectionState{Phase: PhaseStarting}},
		{"starting up", ConnectionState{Phase: PhaseStarting}, EventUp, ConnectionState{Phase: PhaseHealthy}},
		{"starting down", ConnectionState{Phase: PhaseStarting}, EventDown, ConnectionState{Phase: PhaseFailed}},
		{"healthy down", ConnectionState{Phase: PhaseHealthy}, EventDown, ConnectionState{Phase: PhaseRestarting, Attempt: 1}},
		{"restarting up", ConnectionState{Phase: PhaseRestarting, Attempt: 3}, EventUp, ConnectionState{Phase: PhaseHealthy}},
		{"restarting down increments", ConnectionState{Phase: PhaseRestarting, Attempt: 2}, EventDown, ConnectionState{Phase: PhaseRestarting, Attempt: 3}},
		{"restarting exhausts to failed", ConnectionState{Phase: PhaseRestarting, Attempt: 5}, EventDown, ConnectionState{Phase: PhaseFailed}},
		{"failed is terminal on up", ConnectionState{Phase: PhaseFailed}, EventUp, ConnectionState{Phase: PhaseFailed}},
		{"failed is terminal on down", ConnectionState{Phase: PhaseFailed}, EventDown, ConnectionState{Phase: PhaseFailed}},
		{"healthy ignores up", ConnectionState{Phase: PhaseHealthy}, EventUp, ConnectionState{Phase: PhaseHealthy}},
		{"configured ignores down", ConnectionState{Phase: PhaseConfigured}, EventDown, ConnectionState{Phase: PhaseConfigured}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Transition(tc.from, tc.event))
		})
	}
}

func TestTransitionFullRetryCycle(t *testing.T) {
	state := ConnectionState{Phase: PhaseHealthy}
	state = Transition(state, EventDown)
	require.Equal(t, ConnectionState{Phase: PhaseRestarting, Attempt: 1}, state)

	for i := 0; i < 4; i++ {
		state = Transition(state, EventDown)
		require.Equal(t, PhaseRestarting, state.Phase)
	}
	require.Equal(t, 5, state.Attempt)

	state = Transition(state, EventDown)
	require.Equal(t, PhaseFailed, state.Phase)
}
