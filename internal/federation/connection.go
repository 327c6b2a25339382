package federation

import (
	"time"

	"hostlink/internal/domain"
)

// Connection tracks one configured downstream: its spec, lifecycle state,
// active peer, and the tool catalog discovered at the last successful
// connect. Access is guarded by the owning Manager's lock.
type Connection struct {
	Spec     domain.DownstreamSpec
	State    ConnectionState
	Peer     domain.Peer
	Tools    []domain.ToolDefinition
	LastSeen time.Time
}

func newConnection(spec domain.DownstreamSpec) *Connection {
	return &Connection{
		Spec:  spec,
		State: ConnectionState{Phase: PhaseConfigured},
	}
}

// markUp installs a live peer and its discovered catalog.
func (c *Connection) markUp(peer domain.Peer, tools []domain.ToolDefinition, now time.Time) {
	c.State = Transition(c.State, EventUp)
	c.Peer = peer
	c.Tools = tools
	c.LastSeen = now
}

// markDown clears the peer and catalog so stale tools are never served.
func (c *Connection) markDown() {
	c.State = Transition(c.State, EventDown)
	if c.Peer != nil {
		_ = c.Peer.Close()
		c.Peer = nil
	}
	c.Tools = nil
}

// filterExposed drops tools not matched by the spec's expose list. An
// empty list exposes everything.
func filterExposed(spec domain.DownstreamSpec, tools []domain.ToolDefinition) []domain.ToolDefinition {
	if len(spec.Expose) == 0 {
		return tools
	}
	allowed := make(map[string]struct{}, len(spec.Expose))
	for _, name := range spec.Expose {
		allowed[name] = struct{}{}
	}
	kept := make([]domain.ToolDefinition, 0, len(tools))
	for _, t := range tools {
		if _, ok := allowed[t.Name]; ok {
			kept = append(kept, t)
		}
	}
	return kept
}
