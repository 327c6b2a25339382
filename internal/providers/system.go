package providers

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"hostlink/internal/domain"
	"hostlink/internal/linux"
)

func emptyObjectSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:       "object",
		Properties: map[string]*jsonschema.Schema{},
	}
}

// SystemProvider exposes host facts read from procfs.
type SystemProvider struct {
	collector *linux.Collector
}

func NewSystemProvider(collector *linux.Collector) *SystemProvider {
	if collector == nil {
		collector = linux.NewCollector()
	}
	return &SystemProvider{collector: collector}
}

func (p *SystemProvider) Namespace() string { return "system" }

func (p *SystemProvider) Tools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        "system.info",
			Description: "Hostname, OS, kernel version, arch, uptime, boot time",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
		{
			Name:        "system.cpu",
			Description: "Core count, model, usage % total and per-core",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
		{
			Name:        "system.memory",
			Description: "Total, used, available, swap (MB)",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
		{
			Name:        "system.disk",
			Description: "Per-mount: device, total, used, available, use %",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
		{
			Name:        "system.uptime",
			Description: "Uptime in seconds, idle time, load averages",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
	}
}

func (p *SystemProvider) Call(_ context.Context, name string, _ json.RawMessage) (any, error) {
	switch name {
	case "system.info":
		return p.collector.SystemInfo()
	case "system.cpu":
		return p.collector.CPU()
	case "system.memory":
		return p.collector.Memory()
	case "system.disk":
		return p.collector.Disk()
	case "system.uptime":
		return p.collector.Uptime()
	default:
		return nil, domain.E(domain.CodeNotFound, "system.call", name, domain.ErrToolNotFound)
	}
}
