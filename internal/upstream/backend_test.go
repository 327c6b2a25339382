package upstream

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"hostlink/internal/domain"
	"hostlink/internal/federation"
)

type stubPeer struct {
	tools  []domain.ToolDefinition
	result *domain.ToolResult
	gotArg map[string]any
}

func (p *stubPeer) ListTools(context.Context) ([]domain.ToolDefinition, error) {
	return p.tools, nil
}

func (p *stubPeer) CallTool(_ context.Context, name string, args map[string]any) (*domain.ToolResult, error) {
	p.gotArg = args
	return p.result, nil
}

func (p *stubPeer) Ping(context.Context) error { return nil }
func (p *stubPeer) Close() error               { return nil }

func newBackend(t *testing.T, peer *stubPeer) *Backend {
	t.Helper()
	connect := func(context.Context, domain.DownstreamSpec) (domain.Peer, error) {
		return peer, nil
	}
	m := federation.NewManager(connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{{
		Namespace: "web01",
		Transport: domain.TransportLocalhost,
		URL:       "http://127.0.0.1:8443",
	}})
	return NewBackend(m)
}

func TestBackendListTools(t *testing.T) {
	peer := &stubPeer{tools: []domain.ToolDefinition{{Name: "system.info"}}}
	b := newBackend(t, peer)

	tools, err := b.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.Equal(t, "web01.system.info", tools[0].Name)
}

func TestBackendCallPassesEnvelopeThrough(t *testing.T) {
	peer := &stubPeer{
		tools:  []domain.ToolDefinition{{Name: "system.info"}},
		result: domain.ErrorResult("unit not found"),
	}
	b := newBackend(t, peer)

	result, err := b.CallTool(context.Background(), "web01.system.info", json.RawMessage(`{"name":"nginx"}`))
	require.NoError(t, err)
	require.True(t, result.IsError)
	require.Equal(t, "unit not found", result.Content[0].Text)
	require.Equal(t, map[string]any{"name": "nginx"}, peer.gotArg)
}

func TestBackendCallBadArguments(t *testing.T) {
	peer := &stubPeer{tools: []domain.ToolDefinition{{Name: "system.info"}}}
	b := newBackend(t, peer)

	_, err := b.CallTool(context.Background(), "web01.system.info", json.RawMessage(`[1,2]`))
	require.ErrorIs(t, err, domain.ErrInvalidParams)
}
