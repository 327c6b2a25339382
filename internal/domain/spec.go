package domain

import "time"

// TransportKind selects how a downstream peer is obtained.
type TransportKind string

const (
	// TransportStdio spawns a child process and carries the protocol
	// over its standard streams.
	TransportStdio TransportKind = "stdio"
	// TransportLocalhost connects to an already-running server over a
	// streamable HTTP session.
	TransportLocalhost TransportKind = "localhost"
)

// DownstreamSpec is one federation entry: a namespace plus the transport
// needed to reach the agent that owns it.
type DownstreamSpec struct {
	Namespace           string
	Transport           TransportKind
	URL                 string
	Command             string
	Args                []string
	Env                 map[string]string
	Expose              []string
	HealthcheckInterval time.Duration
}
