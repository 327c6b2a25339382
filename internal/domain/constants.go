package domain

const (
	// ProtocolVersion is the MCP protocol revision both tiers report
	// from initialize.
	ProtocolVersion = "2024-11-05"

	// MaxReconnectAttempts is the retry budget before a restarting
	// downstream is marked Failed.
	MaxReconnectAttempts = 5

	DefaultBindAddress          = "127.0.0.1"
	DefaultPort                 = 8443
	DefaultHeartbeatSeconds     = 30
	DefaultHealthcheckSeconds   = 30
	DefaultObservabilityAddress = "127.0.0.1:9444"
	DefaultStatePath            = "/var/lib/hostlink/hostlink.db"
	DefaultCallTimeoutSeconds   = 30
)
