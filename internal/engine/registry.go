package engine

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"hostlink/internal/domain"
)

// Registry holds capability providers keyed by namespace and dispatches
// tool calls to the owner of the name's first dot-delimited prefix. It
// never normalizes or retries; provider errors are reported verbatim.
type Registry struct {
	providers map[string]domain.Provider
	order     []string
	logger    *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		providers: make(map[string]domain.Provider),
		logger:    logger.Named("registry"),
	}
}

// Register adds a provider. Providers are registered once at startup and
// live for the process lifetime; a duplicate namespace replaces the
// earlier provider but keeps its position in listing order.
func (r *Registry) Register(p domain.Provider) {
	ns := p.Namespace()
	if _, exists := r.providers[ns]; !exists {
		r.order = append(r.order, ns)
	}
	r.providers[ns] = p
	r.logger.Info("provider registered", zap.String("namespace", ns), zap.Int("tools", len(p.Tools())))
}

// ListTools concatenates every provider's tools, in registration order
// then provider-internal order.
func (r *Registry) ListTools() []domain.ToolDefinition {
	var all []domain.ToolDefinition
	for _, ns := range r.order {
		all = append(all, r.providers[ns].Tools()...)
	}
	return all
}

// CallTool splits the name on its first dot and forwards to the owning
// provider. A name with no dot, or with a prefix no provider has
// registered, fails with ErrToolNotFound.
func (r *Registry) CallTool(ctx context.Context, name string, params json.RawMessage) (any, error) {
	ns, _, ok := strings.Cut(name, ".")
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "registry.call", name, domain.ErrToolNotFound)
	}
	provider, ok := r.providers[ns]
	if !ok {
		return nil, domain.E(domain.CodeNotFound, "registry.call", name, domain.ErrToolNotFound)
	}
	return provider.Call(ctx, name, params)
}
