package app

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"hostlink/internal/config"
	"hostlink/internal/engine"
	"hostlink/internal/federation"
	"hostlink/internal/identity"
	"hostlink/internal/linux"
	"hostlink/internal/protocol"
	"hostlink/internal/providers"
	"hostlink/internal/registration"
	"hostlink/internal/telemetry"
	"hostlink/internal/transport"
	"hostlink/internal/upstream"
)

type App struct {
	logger  *zap.Logger
	version string
}

func New(logger *zap.Logger, version string) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{logger: logger, version: version}
}

type ServeConfig struct {
	ConfigPath string
}

// Serve runs the federation gateway until the context is canceled.
func (a *App) Serve(ctx context.Context, cfg ServeConfig) error {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	a.logger.Info("configuration loaded",
		zap.Int("downstreams", len(conf.Federation.Servers)))

	registry := prometheus.NewRegistry()
	metrics := telemetry.NewPrometheusMetrics(registry)
	obsServer := telemetry.NewServer(conf.Observability.ListenAddress, registry, a.logger)

	connector := transport.NewConnector(a.version)
	manager := federation.NewManager(connector.Connect, metrics, a.logger)
	manager.Init(ctx, conf.ToSpecs())
	defer manager.Close()

	for _, status := range manager.StatusSummary() {
		a.logger.Info("downstream status",
			zap.String("namespace", status.Namespace),
			zap.String("state", string(status.Phase)))
	}
	a.logger.Info("tools aggregated", zap.Int("total", len(manager.ListAllTools())))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopHeartbeat, err := a.startRegistration(runCtx, conf, manager, metrics)
	if err != nil {
		return err
	}
	defer stopHeartbeat()

	prober := federation.NewProber(manager, a.logger)
	prober.Start(runCtx)
	defer prober.Wait()

	eng := protocol.NewEngine(upstream.NewBackend(manager), protocol.ServerInfo{
		Name:    "hostlinkd",
		Version: a.version,
	}, a.logger)
	server := upstream.NewServer(conf.Server.Bind, conf.Server.Port, eng, a.logger)

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	run := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(runCtx); err != nil {
				a.logger.Error("component failed", zap.String("component", name), zap.Error(err))
				errCh <- err
				cancel()
			}
		}()
	}

	run("observability", obsServer.Start)
	run("upstream", server.Run)
	if cfg.ConfigPath != "" {
		watcher := config.NewWatcher(cfg.ConfigPath, a.logger)
		run("configwatch", watcher.Run)
	}

	<-runCtx.Done()
	wg.Wait()

	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// startRegistration registers the node and launches the heartbeat loop
// when an orchestrator is configured. The returned stop function sends
// the best-effort deregistration.
func (a *App) startRegistration(ctx context.Context, conf *config.Config, manager *federation.Manager, metrics telemetry.Metrics) (func(), error) {
	if conf.Registration == nil {
		a.logger.Info("no orchestrator configured, running standalone")
		return func() {}, nil
	}

	store, err := identity.Open(conf.StatePath)
	if err != nil {
		return nil, err
	}
	nodeID, err := store.NodeID()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	client := registration.NewClient(conf.Registration.OrchestratorURL, a.logger)
	payload := registration.RegisterPayload{
		NodeID:       nodeID,
		Hostname:     readHostname(),
		IPAddress:    conf.Server.Bind,
		Port:         conf.Server.Port,
		Capabilities: manager.Namespaces(),
	}
	if err := client.Register(ctx, payload); err != nil {
		metrics.IncRegistration(false)
		a.logger.Warn("registration failed, continuing without orchestrator", zap.Error(err))
	} else {
		metrics.IncRegistration(true)
	}

	hbCtx, hbCancel := context.WithCancel(ctx)
	heartbeater := registration.NewHeartbeater(client, nodeID, conf.HeartbeatInterval(), metrics, a.logger)
	done := make(chan struct{})
	go func() {
		heartbeater.Run(hbCtx)
		close(done)
	}()

	stop := func() {
		hbCancel()
		<-done
		client.Deregister(context.Background(), nodeID)
		_ = store.Close()
	}
	return stop, nil
}

type ValidateConfig struct {
	ConfigPath string
}

// Validate loads and checks the config without starting anything.
func (a *App) Validate(_ context.Context, cfg ValidateConfig) error {
	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return err
	}
	a.logger.Info("configuration is valid",
		zap.Int("downstreams", len(conf.Federation.Servers)),
		zap.Bool("registration", conf.Registration != nil))
	return nil
}

// ServeAgent runs the tier-1 node agent over stdio. Logs must stay off
// stdout because stdout carries the protocol stream.
func (a *App) ServeAgent(ctx context.Context) error {
	collector := linux.NewCollector()
	systemd := linux.NewSystemd()

	registry := engine.NewRegistry(a.logger)
	registry.Register(providers.NewSystemProvider(collector))
	registry.Register(providers.NewProcessProvider(collector))
	registry.Register(providers.NewServiceProvider(systemd))
	registry.Register(providers.NewLogProvider(systemd))

	eng := protocol.NewEngine(protocol.NewDispatchBackend(registry), protocol.ServerInfo{
		Name:    "hostlink-agent",
		Version: a.version,
	}, a.logger)

	a.logger.Info("agent serving on stdio",
		zap.Int("tools", len(registry.ListTools())))
	return protocol.NewStdioServer(eng, os.Stdin, os.Stdout, a.logger).Run(ctx)
}

func readHostname() string {
	if raw, err := os.ReadFile("/etc/hostname"); err == nil {
		if name := strings.TrimSpace(string(raw)); name != "" {
			return name
		}
	}
	if name, err := os.Hostname(); err == nil {
		return name
	}
	return "unknown"
}
