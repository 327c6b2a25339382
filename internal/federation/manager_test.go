package federation

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"hostlink/internal/domain"
)

type fakePeer struct {
	mu          sync.Mutex
	tools       []domain.ToolDefinition
	callErr     error
	pingErr     error
	closed      bool
	calls       []string
	hadDeadline bool
}

func (p *fakePeer) ListTools(context.Context) ([]domain.ToolDefinition, error) {
	return p.tools, nil
}

func (p *fakePeer) CallTool(ctx context.Context, name string, _ map[string]any) (*domain.ToolResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, name)
	_, p.hadDeadline = ctx.Deadline()
	if p.callErr != nil {
		return nil, p.callErr
	}
	return domain.TextResult(`{"called":"` + name + `"}`), nil
}

func (p *fakePeer) Ping(context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pingErr
}

func (p *fakePeer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

func (p *fakePeer) setPingErr(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pingErr = err
}

type fakeConnector struct {
	mu    sync.Mutex
	peers map[string]*fakePeer
	errs  map[string]error
	dials map[string]int
}

func newFakeConnector() *fakeConnector {
	return &fakeConnector{
		peers: map[string]*fakePeer{},
		errs:  map[string]error{},
		dials: map[string]int{},
	}
}

func (c *fakeConnector) connect(_ context.Context, spec domain.DownstreamSpec) (domain.Peer, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dials[spec.Namespace]++
	if err := c.errs[spec.Namespace]; err != nil {
		return nil, err
	}
	return c.peers[spec.Namespace], nil
}

func spec(namespace string) domain.DownstreamSpec {
	return domain.DownstreamSpec{
		Namespace: namespace,
		Transport: domain.TransportLocalhost,
		URL:       "http://127.0.0.1:8443",
	}
}

func systemTools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{Name: "system.info", Description: "Host facts", Kind: domain.ToolObservable},
		{Name: "service.restart", Description: "Restart a unit", Kind: domain.ToolActionable},
	}
}

func TestManagerInitAndCatalog(t *testing.T) {
	connector := newFakeConnector()
	connector.peers["web01"] = &fakePeer{tools: systemTools()}
	connector.peers["db01"] = &fakePeer{tools: systemTools()}

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01"), spec("db01")})

	tools := m.ListAllTools()
	require.Len(t, tools, 4)
	require.Equal(t, "web01.system.info", tools[0].Name)
	require.Equal(t, "db01.system.info", tools[2].Name)

	summary := m.StatusSummary()
	require.Equal(t, []DownstreamStatus{
		{Namespace: "web01", Phase: PhaseHealthy},
		{Namespace: "db01", Phase: PhaseHealthy},
	}, summary)
}

func TestManagerInitFailureIsolated(t *testing.T) {
	connector := newFakeConnector()
	connector.peers["web01"] = &fakePeer{tools: systemTools()}
	connector.errs["db01"] = errors.New("connection refused")

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01"), spec("db01")})

	summary := m.StatusSummary()
	require.Equal(t, []DownstreamStatus{
		{Namespace: "web01", Phase: PhaseHealthy},
		{Namespace: "db01", Phase: PhaseFailed},
	}, summary)

	tools := m.ListAllTools()
	require.Len(t, tools, 2)
}

func TestManagerRouteToolCall(t *testing.T) {
	connector := newFakeConnector()
	peer := &fakePeer{tools: systemTools()}
	connector.peers["web01"] = peer

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01")})

	result, err := m.RouteToolCall(context.Background(), "web01.system.info", nil)
	require.NoError(t, err)
	require.False(t, result.IsError)
	require.Equal(t, []string{"system.info"}, peer.calls)
}

func TestManagerRouteAppliesCallDeadline(t *testing.T) {
	connector := newFakeConnector()
	peer := &fakePeer{tools: systemTools()}
	connector.peers["web01"] = peer

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01")})

	_, err := m.RouteToolCall(context.Background(), "web01.system.info", nil)
	require.NoError(t, err)
	require.True(t, peer.hadDeadline)
}

func TestManagerRouteUnknownNamespace(t *testing.T) {
	connector := newFakeConnector()
	connector.peers["web01"] = &fakePeer{tools: systemTools()}

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01")})

	_, err := m.RouteToolCall(context.Background(), "cache01.system.info", nil)
	require.ErrorIs(t, err, domain.ErrNamespaceNotFound)
}

func TestManagerRouteUnhealthyDownstream(t *testing.T) {
	connector := newFakeConnector()
	connector.errs["web01"] = errors.New("connection refused")

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01")})

	_, err := m.RouteToolCall(context.Background(), "web01.system.info", nil)
	require.ErrorIs(t, err, domain.ErrDownstreamUnavailable)
	require.Contains(t, err.Error(), "web01")
}

func TestManagerRouteDownstreamCallFailure(t *testing.T) {
	connector := newFakeConnector()
	connector.peers["web01"] = &fakePeer{tools: systemTools(), callErr: errors.New("broken pipe")}

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("web01")})

	_, err := m.RouteToolCall(context.Background(), "web01.system.info", nil)
	require.ErrorIs(t, err, domain.ErrDownstreamUnavailable)
}

func TestManagerExposeFilter(t *testing.T) {
	connector := newFakeConnector()
	connector.peers["web01"] = &fakePeer{tools: systemTools()}

	s := spec("web01")
	s.Expose = []string{"system.info"}

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{s})

	tools := m.ListAllTools()
	require.Len(t, tools, 1)
	require.Equal(t, "web01.system.info", tools[0].Name)
}

func TestManagerEmptyConfiguration(t *testing.T) {
	m := NewManager(newFakeConnector().connect, nil, nil)
	m.Init(context.Background(), nil)

	require.Empty(t, m.Namespaces())
	require.Empty(t, m.ListAllTools())

	_, err := m.RouteToolCall(context.Background(), "web01.system.info", nil)
	require.ErrorIs(t, err, domain.ErrNamespaceNotFound)
}

func TestManagerLongestPrefixRouting(t *testing.T) {
	connector := newFakeConnector()
	linuxPeer := &fakePeer{tools: systemTools()}
	dockerPeer := &fakePeer{tools: []domain.ToolDefinition{{Name: "status"}}}
	connector.peers["linux"] = linuxPeer
	connector.peers["linux.docker"] = dockerPeer

	m := NewManager(connector.connect, nil, nil)
	m.Init(context.Background(), []domain.DownstreamSpec{spec("linux"), spec("linux.docker")})

	_, err := m.RouteToolCall(context.Background(), "linux.docker.status", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"status"}, dockerPeer.calls)
	require.Empty(t, linuxPeer.calls)
}
