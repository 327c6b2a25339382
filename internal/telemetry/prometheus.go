package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectionPhases = []string{"configured", "starting", "healthy", "restarting", "failed"}

// PrometheusMetrics implements Metrics on a prometheus registry.
type PrometheusMetrics struct {
	routeDuration      *prometheus.HistogramVec
	downstreamState    *prometheus.GaugeVec
	heartbeatFailures  prometheus.Counter
	registrationsTotal *prometheus.CounterVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		routeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hostlink",
			Subsystem: "gateway",
			Name:      "route_duration_seconds",
			Help:      "Latency of routed tool calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"namespace", "tool", "status"}),
		downstreamState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hostlink",
			Subsystem: "gateway",
			Name:      "downstream_state",
			Help:      "Downstream connection lifecycle state, one series per phase.",
		}, []string{"namespace", "phase"}),
		heartbeatFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "hostlink",
			Subsystem: "agent",
			Name:      "heartbeat_failures_total",
			Help:      "Heartbeats that did not reach the orchestrator.",
		}),
		registrationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hostlink",
			Subsystem: "agent",
			Name:      "registrations_total",
			Help:      "Registration attempts against the orchestrator.",
		}, []string{"status"}),
	}
}

func (m *PrometheusMetrics) ObserveRouteDuration(namespace, tool string, d time.Duration, failed bool) {
	status := "ok"
	if failed {
		status = "error"
	}
	m.routeDuration.WithLabelValues(namespace, tool, status).Observe(d.Seconds())
}

func (m *PrometheusMetrics) SetDownstreamState(namespace, phase string) {
	for _, p := range connectionPhases {
		value := 0.0
		if p == phase {
			value = 1.0
		}
		m.downstreamState.WithLabelValues(namespace, p).Set(value)
	}
}

func (m *PrometheusMetrics) IncHeartbeatFailure() {
	m.heartbeatFailures.Inc()
}

func (m *PrometheusMetrics) IncRegistration(success bool) {
	status := "ok"
	if !success {
		status = "error"
	}
	m.registrationsTotal.WithLabelValues(status).Inc()
}
