package protocol

import (
	"context"
	"encoding/json"

	"hostlink/internal/domain"
	"hostlink/internal/engine"
)

// DispatchBackend adapts a provider registry to the engine's Backend
// interface, wrapping raw provider results into the content envelope.
type DispatchBackend struct {
	registry *engine.Registry
}

func NewDispatchBackend(registry *engine.Registry) *DispatchBackend {
	return &DispatchBackend{registry: registry}
}

func (b *DispatchBackend) ListTools(ctx context.Context) ([]domain.ToolDefinition, error) {
	return b.registry.ListTools(), nil
}

func (b *DispatchBackend) CallTool(ctx context.Context, name string, args json.RawMessage) (*domain.ToolResult, error) {
	value, err := b.registry.CallTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	return domain.MarshalResult(value)
}
