package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"hostlink/internal/protocol"
)

// Path is where the aggregated tool surface is served.
const Path = "/api/v1/mcp"

// Server is the gateway's upstream listener: one JSON-RPC message per
// POST to /api/v1/mcp.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

func NewServer(bind string, port int, engine *protocol.Engine, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("upstream")

	mux := http.NewServeMux()
	mux.Handle(Path, protocol.NewHandler(engine, logger))

	return &Server{
		httpServer: &http.Server{
			Addr:              net.JoinHostPort(bind, strconv.Itoa(port)),
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until the context is canceled, then drains connections.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("upstream server listening",
			zap.String("addr", s.httpServer.Addr),
			zap.String("path", Path))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("upstream listen: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
