// Command card-market starts the card market REST API server.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/and161185/card-market/internal/app"
	"github.com/and161185/card-market/internal/config"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, starts the app and stops it on SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		// flag errors are already printed by pflag
		os.Exit(2)
	}

	logger := newLogger(cfg.Dev)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid config", zap.Error(err))
	}

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := app.New(cfg, logger)
	if err := a.Start(ctx); err != nil {
		logger.Fatal("start", zap.Error(err))
	}

	// Wait for stop
	exitCode := 0
	select {
	case <-ctx.Done():
	case err := <-a.Err():
		logger.Error("server error", zap.Error(err))
		exitCode = 1
	}

	// graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := a.Stop(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
		exitCode = 1
	}

	logger.Info("shutdown complete")
	if exitCode != 0 {
		cancel()
		_ = logger.Sync()
		os.Exit(exitCode)
	}
}

func newLogger(dev bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if dev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}
