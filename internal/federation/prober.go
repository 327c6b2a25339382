package federation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"hostlink/internal/domain"
)

// probeTimeout bounds a single ping or reconnect attempt.
const probeTimeout = 10 * time.Second

// Prober drives periodic health checks and reconnects for the manager's
// downstreams, one goroutine per connection at that connection's
// configured interval.
type Prober struct {
	manager *Manager
	logger  *zap.Logger
	wg      sync.WaitGroup
}

func NewProber(manager *Manager, logger *zap.Logger) *Prober {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Prober{
		manager: manager,
		logger:  logger.Named("prober"),
	}
}

// Start launches probe loops for every connection the manager currently
// holds. It returns immediately; Wait blocks until all loops have exited
// after context cancellation.
func (p *Prober) Start(ctx context.Context) {
	p.manager.mu.RLock()
	conns := make([]*Connection, len(p.manager.conns))
	copy(conns, p.manager.conns)
	p.manager.mu.RUnlock()

	for _, conn := range conns {
		p.wg.Add(1)
		go p.probeLoop(ctx, conn)
	}
}

func (p *Prober) Wait() {
	p.wg.Wait()
}

func (p *Prober) probeLoop(ctx context.Context, conn *Connection) {
	defer p.wg.Done()

	interval := conn.Spec.HealthcheckInterval
	if interval <= 0 {
		interval = time.Duration(domain.DefaultHealthcheckSeconds) * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.probe(ctx, conn)
		}
	}
}

// probe checks one connection. Healthy peers are pinged; restarting ones
// get a reconnect attempt. Failed connections are left alone.
func (p *Prober) probe(ctx context.Context, conn *Connection) {
	m := p.manager

	m.mu.RLock()
	phase := conn.State.Phase
	peer := conn.Peer
	m.mu.RUnlock()

	switch phase {
	case PhaseHealthy:
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		err := peer.Ping(probeCtx)
		cancel()
		if err == nil {
			m.mu.Lock()
			conn.LastSeen = m.now()
			m.mu.Unlock()
			return
		}
		p.logger.Warn("downstream ping failed",
			zap.String("namespace", conn.Spec.Namespace),
			zap.Error(err))

		m.mu.Lock()
		if conn.State.Phase == PhaseHealthy {
			conn.markDown()
			m.metrics.SetDownstreamState(conn.Spec.Namespace, string(conn.State.Phase))
		}
		m.mu.Unlock()

	case PhaseRestarting:
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		peer, tools, err := p.reconnect(probeCtx, conn.Spec)
		cancel()

		m.mu.Lock()
		if conn.State.Phase != PhaseRestarting {
			m.mu.Unlock()
			if peer != nil {
				_ = peer.Close()
			}
			return
		}
		if err != nil {
			conn.markDown()
			m.metrics.SetDownstreamState(conn.Spec.Namespace, string(conn.State.Phase))
			attempt := conn.State.Attempt
			phase := conn.State.Phase
			m.mu.Unlock()
			if phase == PhaseFailed {
				p.logger.Error("downstream reconnect attempts exhausted",
					zap.String("namespace", conn.Spec.Namespace))
			} else {
				p.logger.Warn("downstream reconnect failed",
					zap.String("namespace", conn.Spec.Namespace),
					zap.Int("attempt", attempt),
					zap.Error(err))
			}
			return
		}
		conn.markUp(peer, tools, m.now())
		m.metrics.SetDownstreamState(conn.Spec.Namespace, string(conn.State.Phase))
		m.mu.Unlock()
		p.logger.Info("downstream reconnected",
			zap.String("namespace", conn.Spec.Namespace),
			zap.Int("tools", len(tools)))
	}
}

func (p *Prober) reconnect(ctx context.Context, spec domain.DownstreamSpec) (domain.Peer, []domain.ToolDefinition, error) {
	peer, err := p.manager.connect(ctx, spec)
	if err != nil {
		return nil, nil, err
	}
	tools, err := peer.ListTools(ctx)
	if err != nil {
		_ = peer.Close()
		return nil, nil, err
	}
	return peer, filterExposed(spec, tools), nil
}
