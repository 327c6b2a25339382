package providers

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"hostlink/internal/domain"
	"hostlink/internal/linux"
)

const defaultLogLines = 50

// ServiceProvider exposes systemd unit state and per-unit journal logs.
type ServiceProvider struct {
	systemd *linux.Systemd
}

func NewServiceProvider(systemd *linux.Systemd) *ServiceProvider {
	if systemd == nil {
		systemd = linux.NewSystemd()
	}
	return &ServiceProvider{systemd: systemd}
}

func (p *ServiceProvider) Namespace() string { return "service" }

func (p *ServiceProvider) Tools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        "service.list",
			Description: "All systemd units with state, sub-state, description",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
		{
			Name:        "service.status",
			Description: "Unit detail: state, PID, memory, CPU, started_at",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "The unit name, e.g. nginx.service",
					},
				},
				Required: []string{"name"},
			},
			Kind: domain.ToolObservable,
		},
		{
			Name:        "service.logs",
			Description: "Recent journal entries for a unit (configurable lines)",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "The unit name, e.g. nginx.service",
					},
					"lines": {
						Type:        "integer",
						Description: "Number of lines to return (default 50)",
					},
				},
				Required: []string{"name"},
			},
			Kind: domain.ToolObservable,
		},
	}
}

type serviceParams struct {
	Name  string `json:"name"`
	Lines int    `json:"lines"`
}

func (p *ServiceProvider) Call(ctx context.Context, name string, params json.RawMessage) (any, error) {
	switch name {
	case "service.list":
		return p.systemd.ListUnits(ctx)
	case "service.status":
		args, err := decodeServiceParams(params)
		if err != nil {
			return nil, err
		}
		return p.systemd.UnitStatus(ctx, args.Name)
	case "service.logs":
		args, err := decodeServiceParams(params)
		if err != nil {
			return nil, err
		}
		if args.Lines <= 0 {
			args.Lines = defaultLogLines
		}
		entries, err := p.systemd.JournalTail(ctx, args.Name, args.Lines)
		if err != nil {
			return nil, err
		}
		return map[string]any{"unit": args.Name, "entries": entries}, nil
	default:
		return nil, domain.E(domain.CodeNotFound, "service.call", name, domain.ErrToolNotFound)
	}
}

func decodeServiceParams(params json.RawMessage) (serviceParams, error) {
	var args serviceParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return args, domain.E(domain.CodeInvalidArgument, "service.call", "decode params", err)
		}
	}
	if args.Name == "" {
		return args, domain.E(domain.CodeExecution, "service.call", "missing required parameter: name", nil)
	}
	return args, nil
}
