package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"hostlink/internal/app"
)

var version = "dev"

func main() {
	// stdout carries the protocol stream, so all logging goes to stderr.
	logger, err := stderrLogger()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	root := &cobra.Command{
		Use:     "hostlink-agent",
		Short:   "Node agent exposing host management tools over stdio",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalAwareContext(cmd.Context())
			defer cancel()

			application := app.New(logger, version)
			return application.ServeAgent(ctx)
		},
	}

	if err := root.Execute(); err != nil {
		logger.Fatal("agent failed", zap.Error(err))
	}
}

func stderrLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

func signalAwareContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case <-signals:
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
