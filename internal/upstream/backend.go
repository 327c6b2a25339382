package upstream

import (
	"context"
	"encoding/json"

	"hostlink/internal/domain"
	"hostlink/internal/federation"
)

// Backend exposes the federation manager through the protocol engine's
// backend contract. Downstream envelopes pass through verbatim, so a
// failed tool run on an agent keeps its isError marking end to end.
type Backend struct {
	manager *federation.Manager
}

func NewBackend(manager *federation.Manager) *Backend {
	return &Backend{manager: manager}
}

func (b *Backend) ListTools(ctx context.Context) ([]domain.ToolDefinition, error) {
	return b.manager.ListAllTools(), nil
}

func (b *Backend) CallTool(ctx context.Context, name string, args json.RawMessage) (*domain.ToolResult, error) {
	var decoded map[string]any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &decoded); err != nil {
			return nil, domain.E(domain.CodeInvalidArgument, "upstream.call", "decode arguments", domain.ErrInvalidParams)
		}
	}
	return b.manager.RouteToolCall(ctx, name, decoded)
}
