package transport

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"hostlink/internal/domain"
)

const clientName = "hostlinkd"

// Connector dials downstream agents using the transport named in their
// spec.
type Connector struct {
	version string
}

func NewConnector(version string) *Connector {
	return &Connector{version: version}
}

// Connect establishes a session with the downstream described by spec.
// The context bounds session establishment only; the returned peer owns
// the session and, for stdio transports, the child process, which lives
// until the peer is closed.
func (c *Connector) Connect(ctx context.Context, spec domain.DownstreamSpec) (domain.Peer, error) {
	transport, err := c.buildTransport(spec)
	if err != nil {
		return nil, err
	}

	client := mcp.NewClient(&mcp.Implementation{
		Name:    clientName,
		Version: c.version,
	}, nil)

	session, err := client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("connect %s downstream %q: %w", spec.Transport, spec.Namespace, err)
	}
	return newSessionPeer(session), nil
}

func (c *Connector) buildTransport(spec domain.DownstreamSpec) (mcp.Transport, error) {
	switch spec.Transport {
	case domain.TransportStdio:
		if spec.Command == "" {
			return nil, fmt.Errorf("downstream %q: stdio transport requires a command", spec.Namespace)
		}
		// Deliberately not CommandContext. The dial context carries the
		// caller's connect timeout, and a child bound to it would be
		// killed as soon as that timeout fires or is canceled. The
		// session closing stdin is what ends the child.
		cmd := exec.Command(spec.Command, spec.Args...)
		cmd.Env = append(os.Environ(), formatEnv(spec.Env)...)
		cmd.Stderr = os.Stderr
		return &mcp.CommandTransport{Command: cmd}, nil

	case domain.TransportLocalhost:
		if spec.URL == "" {
			return nil, fmt.Errorf("downstream %q: localhost transport requires a url", spec.Namespace)
		}
		// No client-level timeout: it would bound the whole response
		// body and sever long-lived streams. Callers bound individual
		// requests through their context.
		return &mcp.StreamableClientTransport{Endpoint: spec.URL}, nil

	default:
		return nil, fmt.Errorf("downstream %q: unknown transport %q", spec.Namespace, spec.Transport)
	}
}

func formatEnv(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	return out
}
