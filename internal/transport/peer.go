package transport

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"hostlink/internal/domain"
)

// sessionPeer adapts an mcp client session to the domain.Peer contract.
type sessionPeer struct {
	session *mcp.ClientSession
}

func newSessionPeer(session *mcp.ClientSession) *sessionPeer {
	return &sessionPeer{session: session}
}

func (p *sessionPeer) ListTools(ctx context.Context) ([]domain.ToolDefinition, error) {
	result, err := p.session.ListTools(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	tools := make([]domain.ToolDefinition, 0, len(result.Tools))
	for _, t := range result.Tools {
		tools = append(tools, domain.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return tools, nil
}

func (p *sessionPeer) CallTool(ctx context.Context, name string, args map[string]any) (*domain.ToolResult, error) {
	result, err := p.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		return nil, fmt.Errorf("call tool %q: %w", name, err)
	}
	return convertResult(result), nil
}

func (p *sessionPeer) Ping(ctx context.Context) error {
	return p.session.Ping(ctx, nil)
}

func (p *sessionPeer) Close() error {
	return p.session.Close()
}

// convertResult maps an SDK call result onto the domain envelope. Only
// text content survives the hop; other content kinds are rendered as a
// placeholder rather than dropped silently.
func convertResult(result *mcp.CallToolResult) *domain.ToolResult {
	out := &domain.ToolResult{IsError: result.IsError}
	for _, item := range result.Content {
		switch typed := item.(type) {
		case *mcp.TextContent:
			out.Content = append(out.Content, domain.ContentItem{Type: "text", Text: typed.Text})
		default:
			out.Content = append(out.Content, domain.ContentItem{
				Type: "text",
				Text: fmt.Sprintf("[unsupported content type %T]", item),
			})
		}
	}
	return out
}
