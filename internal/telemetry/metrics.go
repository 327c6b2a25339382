package telemetry

import "time"

// Metrics is the instrumentation surface the gateway emits. A no-op
// implementation keeps tests and the tier-1 agent free of a registry.
type Metrics interface {
	ObserveRouteDuration(namespace, tool string, d time.Duration, failed bool)
	SetDownstreamState(namespace string, phase string)
	IncHeartbeatFailure()
	IncRegistration(success bool)
}

type noopMetrics struct{}

func NewNoopMetrics() Metrics { return noopMetrics{} }

func (noopMetrics) ObserveRouteDuration(string, string, time.Duration, bool) {}
func (noopMetrics) SetDownstreamState(string, string)                        {}
func (noopMetrics) IncHeartbeatFailure()                                     {}
func (noopMetrics) IncRegistration(bool)                                     {}
