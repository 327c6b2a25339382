package registration

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hostlink/internal/telemetry"
)

// Heartbeater pings the orchestrator on a fixed interval until its
// context is canceled. Failures are logged and counted, never fatal; the
// orchestrator ages out nodes that stay silent.
type Heartbeater struct {
	client   *Client
	nodeID   string
	interval time.Duration
	metrics  telemetry.Metrics
	logger   *zap.Logger
}

func NewHeartbeater(client *Client, nodeID string, interval time.Duration, metrics telemetry.Metrics, logger *zap.Logger) *Heartbeater {
	if logger == nil {
		logger = zap.NewNop()
	}
	if metrics == nil {
		metrics = telemetry.NewNoopMetrics()
	}
	return &Heartbeater{
		client:   client,
		nodeID:   nodeID,
		interval: interval,
		metrics:  metrics,
		logger:   logger.Named("heartbeat"),
	}
}

func (h *Heartbeater) Run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("heartbeat loop shutting down")
			return
		case <-ticker.C:
			if err := h.client.Heartbeat(ctx, h.nodeID); err != nil {
				h.metrics.IncHeartbeatFailure()
				h.logger.Warn("heartbeat failed, orchestrator unreachable", zap.Error(err))
				continue
			}
			h.logger.Debug("heartbeat sent")
		}
	}
}
