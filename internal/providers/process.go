package providers

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/google/jsonschema-go/jsonschema"

	"hostlink/internal/domain"
	"hostlink/internal/linux"
)

const defaultTopLimit = 10

// ProcessProvider exposes the process table read from procfs.
type ProcessProvider struct {
	collector *linux.Collector
}

func NewProcessProvider(collector *linux.Collector) *ProcessProvider {
	if collector == nil {
		collector = linux.NewCollector()
	}
	return &ProcessProvider{collector: collector}
}

func (p *ProcessProvider) Namespace() string { return "process" }

func (p *ProcessProvider) Tools() []domain.ToolDefinition {
	return []domain.ToolDefinition{
		{
			Name:        "process.list",
			Description: "All processes: PID, name, user, state, CPU%, mem MB, cmd",
			InputSchema: emptyObjectSchema(),
			Kind:        domain.ToolObservable,
		},
		{
			Name:        "process.top",
			Description: "Top N processes sorted by CPU or memory",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"sort_by": {
						Type:        "string",
						Enum:        []any{"cpu", "memory"},
						Description: "Field to sort by (cpu or memory)",
					},
					"limit": {
						Type:        "integer",
						Description: "Number of processes to return (default 10)",
					},
				},
			},
			Kind: domain.ToolObservable,
		},
	}
}

type topParams struct {
	SortBy string `json:"sort_by"`
	Limit  int    `json:"limit"`
}

func (p *ProcessProvider) Call(_ context.Context, name string, params json.RawMessage) (any, error) {
	switch name {
	case "process.list":
		return p.collector.Processes()
	case "process.top":
		var args topParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &args); err != nil {
				return nil, domain.E(domain.CodeInvalidArgument, "process.top", "decode params", err)
			}
		}
		if args.Limit <= 0 {
			args.Limit = defaultTopLimit
		}

		procs, err := p.collector.Processes()
		if err != nil {
			return nil, err
		}
		if args.SortBy == "memory" {
			sort.SliceStable(procs, func(i, j int) bool { return procs[i].MemMB > procs[j].MemMB })
		} else {
			sort.SliceStable(procs, func(i, j int) bool { return procs[i].CPUPercent > procs[j].CPUPercent })
		}
		if len(procs) > args.Limit {
			procs = procs[:args.Limit]
		}
		return procs, nil
	default:
		return nil, domain.E(domain.CodeNotFound, "process.call", name, domain.ErrToolNotFound)
	}
}
