package domain

import (
	"context"
	"encoding/json"
)

// Provider is the capability contract implemented by every tool
// namespace in a node agent.
//
// Namespace must be stable, non-empty, and contain no dots. Tools may be
// called repeatedly and must return every tool name prefixed with the
// provider's own namespace and a dot. Call receives the fully qualified
// tool name and must not block unboundedly; long-running work belongs in
// a goroutine, not in the dispatch path.
type Provider interface {
	Namespace() string
	Tools() []ToolDefinition
	Call(ctx context.Context, name string, params json.RawMessage) (any, error)
}

// Peer is a connected downstream agent, produced by a transport. Tool
// names it reports and accepts are the downstream's own, without any
// federation namespace prefix.
type Peer interface {
	ListTools(ctx context.Context) ([]ToolDefinition, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)
	Ping(ctx context.Context) error
	Close() error
}
