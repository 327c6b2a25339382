package federation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hostlink/internal/domain"
	"hostlink/internal/telemetry"
)

// ConnectFunc dials a downstream and returns a live peer. Injected so the
// manager can be tested without real transports.
type ConnectFunc func(ctx context.Context, spec domain.DownstreamSpec) (domain.Peer, error)

// Manager owns the set of downstream connections and routes qualified
// tool calls across them.
type Manager struct {
	mu      sync.RWMutex
	conns   []*Connection
	connect ConnectFunc
	logger  *zap.Logger
	metrics telemetry.Metrics
	now     func() time.Time
}

func NewManager(connect ConnectFunc, metrics telemetry.Metrics, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Manager{
		connect: connect,
		logger:  logger.Named("federation"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Init connects every configured downstream in order. A downstream that
// fails its first attempt is marked failed and skipped; the others still
// come up.
func (m *Manager) Init(ctx context.Context, specs []domain.DownstreamSpec) {
	for _, spec := range specs {
		conn := newConnection(spec)
		conn.State = Transition(conn.State, EventStart)
		m.establish(ctx, conn)

		m.mu.Lock()
		m.conns = append(m.conns, conn)
		m.mu.Unlock()
	}
}

// establish dials the connection's downstream, discovers its tools, and
// applies the outcome to its state. The caller must not hold the lock for
// a connection already published in m.conns.
func (m *Manager) establish(ctx context.Context, conn *Connection) {
	peer, err := m.connect(ctx, conn.Spec)
	if err != nil {
		m.logger.Warn("downstream connect failed",
			zap.String("namespace", conn.Spec.Namespace),
			zap.Error(err))
		conn.markDown()
		m.metrics.SetDownstreamState(conn.Spec.Namespace, string(conn.State.Phase))
		return
	}

	tools, err := peer.ListTools(ctx)
	if err != nil {
		m.logger.Warn("downstream tool discovery failed",
			zap.String("namespace", conn.Spec.Namespace),
			zap.Error(err))
		_ = peer.Close()
		conn.markDown()
		m.metrics.SetDownstreamState(conn.Spec.Namespace, string(conn.State.Phase))
		return
	}

	tools = filterExposed(conn.Spec, tools)
	conn.markUp(peer, tools, m.now())
	m.metrics.SetDownstreamState(conn.Spec.Namespace, string(conn.State.Phase))
	m.logger.Info("downstream connected",
		zap.String("namespace", conn.Spec.Namespace),
		zap.Int("tools", len(tools)))
}

// ListAllTools returns the qualified catalog across all healthy
// downstreams, recomputed on every call.
func (m *Manager) ListAllTools() []domain.ToolDefinition {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []domain.ToolDefinition
	for _, conn := range m.conns {
		if conn.State.Phase != PhaseHealthy {
			continue
		}
		for _, t := range conn.Tools {
			qualified := t
			qualified.Name = PrefixToolName(conn.Spec.Namespace, t.Name)
			out = append(out, qualified)
		}
	}
	return out
}

// Namespaces returns every configured namespace regardless of health.
func (m *Manager) Namespaces() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, 0, len(m.conns))
	for _, conn := range m.conns {
		out = append(out, conn.Spec.Namespace)
	}
	return out
}

// RouteToolCall resolves the namespace owning the qualified name and
// forwards the call to its peer. The peer reference is captured under the
// read lock and the call itself runs outside it, so a slow downstream
// never blocks routing for the others. Each call carries its own
// deadline; the session underneath stays open.
func (m *Manager) RouteToolCall(ctx context.Context, name string, args map[string]any) (*domain.ToolResult, error) {
	m.mu.RLock()
	namespace, local, conn, err := m.resolveLocked(name)
	var peer domain.Peer
	if err == nil {
		peer = conn.Peer
	}
	m.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, time.Duration(domain.DefaultCallTimeoutSeconds)*time.Second)
	defer cancel()

	start := m.now()
	result, err := peer.CallTool(callCtx, local, args)
	m.metrics.ObserveRouteDuration(namespace, local, time.Since(start), err != nil)
	if err != nil {
		return nil, domain.E(domain.CodeUnavailable, "federation.route",
			fmt.Sprintf("downstream %q: %v", namespace, err), domain.ErrDownstreamUnavailable)
	}
	return result, nil
}

// resolveLocked maps a qualified name to its connection. Caller holds at
// least the read lock.
func (m *Manager) resolveLocked(name string) (string, string, *Connection, error) {
	byNamespace := make(map[string]*Connection, len(m.conns))
	namespaces := make([]string, 0, len(m.conns))
	for _, conn := range m.conns {
		byNamespace[conn.Spec.Namespace] = conn
		namespaces = append(namespaces, conn.Spec.Namespace)
	}

	namespace, local, ok := ResolveNamespace(namespaces, name)
	if !ok {
		return "", "", nil, domain.E(domain.CodeNotFound, "federation.route",
			fmt.Sprintf("tool %q", name), domain.ErrNamespaceNotFound)
	}

	conn := byNamespace[namespace]
	if conn.State.Phase != PhaseHealthy || conn.Peer == nil {
		return "", "", nil, domain.E(domain.CodeUnavailable, "federation.route",
			fmt.Sprintf("downstream %q is %s", namespace, conn.State.Phase), domain.ErrDownstreamUnavailable)
	}
	return namespace, local, conn, nil
}

// DownstreamStatus pairs a namespace with its current lifecycle phase.
type DownstreamStatus struct {
	Namespace string
	Phase     Phase
}

// StatusSummary reports every downstream's phase in configuration order.
func (m *Manager) StatusSummary() []DownstreamStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := make([]DownstreamStatus, 0, len(m.conns))
	for _, conn := range m.conns {
		summary = append(summary, DownstreamStatus{
			Namespace: conn.Spec.Namespace,
			Phase:     conn.State.Phase,
		})
	}
	return summary
}

// Close shuts down every live peer.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, conn := range m.conns {
		if conn.Peer != nil {
			if err := conn.Peer.Close(); err != nil {
				m.logger.Warn("downstream close failed",
					zap.String("namespace", conn.Spec.Namespace),
					zap.Error(err))
			}
			conn.Peer = nil
		}
	}
}
