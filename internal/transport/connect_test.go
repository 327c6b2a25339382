package transport

import (
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"hostlink/internal/domain"
)

func TestBuildTransportStdioRequiresCommand(t *testing.T) {
	c := NewConnector("test")
	_, err := c.buildTransport(domain.DownstreamSpec{
		Namespace: "web01",
		Transport: domain.TransportStdio,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires a command")
}

func TestBuildTransportLocalhostRequiresURL(t *testing.T) {
	c := NewConnector("test")
	_, err := c.buildTransport(domain.DownstreamSpec{
		Namespace: "web01",
		Transport: domain.TransportLocalhost,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "requires a url")
}

func TestBuildTransportUnknownKind(t *testing.T) {
	c := NewConnector("test")
	_, err := c.buildTransport(domain.DownstreamSpec{
		Namespace: "web01",
		Transport: domain.TransportKind("carrier-pigeon"),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown transport")
}

func TestBuildTransportKinds(t *testing.T) {
	c := NewConnector("test")

	tr, err := c.buildTransport(domain.DownstreamSpec{
		Namespace: "web01",
		Transport: domain.TransportStdio,
		Command:   "hostlink-agent",
		Args:      []string{"--log-level", "debug"},
	})
	require.NoError(t, err)
	require.IsType(t, &mcp.CommandTransport{}, tr)

	tr, err = c.buildTransport(domain.DownstreamSpec{
		Namespace: "db01",
		Transport: domain.TransportLocalhost,
		URL:       "http://127.0.0.1:8443/api/v1/mcp",
	})
	require.NoError(t, err)
	require.IsType(t, &mcp.StreamableClientTransport{}, tr)
}

// A child bound to the dial context would be killed when the dialer's
// connect timeout is canceled, right after the session came up. Plain
// exec.Command leaves Cancel nil, so the session owns the lifetime.
func TestStdioChildNotBoundToDialContext(t *testing.T) {
	c := NewConnector("test")

	tr, err := c.buildTransport(domain.DownstreamSpec{
		Namespace: "web01",
		Transport: domain.TransportStdio,
		Command:   "hostlink-agent",
	})
	require.NoError(t, err)

	ct, ok := tr.(*mcp.CommandTransport)
	require.True(t, ok)
	require.Nil(t, ct.Command.Cancel)
}

func TestConvertResult(t *testing.T) {
	result := convertResult(&mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: `{"hello":"world"}`},
		},
		IsError: false,
	})
	require.False(t, result.IsError)
	require.Len(t, result.Content, 1)
	require.Equal(t, "text", result.Content[0].Type)
	require.Equal(t, `{"hello":"world"}`, result.Content[0].Text)
}

func TestConvertResultError(t *testing.T) {
	result := convertResult(&mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "unit not found"}},
		IsError: true,
	})
	require.True(t, result.IsError)
	require.Equal(t, "unit not found", result.Content[0].Text)
}

func TestConvertResultUnsupportedContent(t *testing.T) {
	result := convertResult(&mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{MIMEType: "image/png"},
		},
	})
	require.Len(t, result.Content, 1)
	require.Contains(t, result.Content[0].Text, "unsupported content type")
}
