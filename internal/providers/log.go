package providers

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"

	"hostlink/internal/domain"
	"hostlink/internal/linux"
)

// LogProvider exposes host-wide journal access.
type LogProvider struct {
	systemd *linux.Systemd
}

func NewLogProvider(systemd *linux.Systemd) *LogProvider {
	if systemd == nil {
		systemd = linux.NewSystemd()
	}
	return &LogProvider{systemd: systemd}
}

func (p *LogProvider) Namespace() string { return "log" }

func (p *LogProvider) Tools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        "log.tail",
			Description: "Last N journal entries, optionally filtered by unit",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"unit": {
						Type:        "string",
						Description: "Optional unit name to filter by (e.g. nginx.service)",
					},
					"lines": {
						Type:        "integer",
						Description: "Number of lines to tail (default 50)",
					},
				},
			},
			Kind: domain.ToolObservable,
		},
		{
			Name:        "log.search",
			Description: "Search journal by keyword, time range, priority",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"keyword": {
						Type:        "string",
						Description: "Keyword to search for in message body",
					},
					"since": {
						Type:        "string",
						Description: "Time range (e.g. '1 hour ago', 'yesterday')",
					},
					"priority": {
						Type:        "string",
						Description: "Min priority (e.g. 'err', 'warning', 'info')",
					},
				},
				Required: []string{"keyword"},
			},
			Kind: domain.ToolObservable,
		},
	}
}

type logParams struct {
	Unit     string `json:"unit"`
	Lines    int    `json:"lines"`
	Keyword  string `json:"keyword"`
	Since    string `json:"since"`
	Priority string `json:"priority"`
}

func (p *LogProvider) Call(ctx context.Context, name string, params json.RawMessage) (any, error) {
	var args logParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return nil, domain.E(domain.CodeInvalidArgument, "log.call", "decode params", err)
		}
	}

	switch name {
	case "log.tail":
		if args.Lines <= 0 {
			args.Lines = defaultLogLines
		}
		entries, err := p.systemd.JournalTail(ctx, args.Unit, args.Lines)
		if err != nil {
			return nil, err
		}
		return map[string]any{"unit": args.Unit, "entries": entries}, nil
	case "log.search":
		if args.Keyword == "" {
			return nil, domain.E(domain.CodeExecution, "log.search", "missing required parameter: keyword", nil)
		}
		entries, err := p.systemd.JournalSearch(ctx, args.Keyword, args.Since, args.Priority)
		if err != nil {
			return nil, err
		}
		return map[string]any{"keyword": args.Keyword, "entries": entries}, nil
	default:
		return nil, domain.E(domain.CodeNotFound, "log.call", name, domain.ErrToolNotFound)
	}
}
