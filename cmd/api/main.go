package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/app"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/config"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/observability"
	"github.com/VictoryFairy/VictoryFairy-backend-sub000/internal/platform/logging"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSON(cfg.LogLevel).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	telemetry, err := observability.Setup(cfg, logger)
	if err != nil {
		logger.Error("setup observability", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("build app", "error", err)
		_ = telemetry.Shutdown(context.Background())
		return 1
	}

	serveErr, err := application.Start(ctx)
	if err != nil {
		logger.Error("start app", "error", err)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		_ = application.Shutdown(shutdownCtx)
		_ = telemetry.Shutdown(shutdownCtx)
		return 1
	}

	exitCode := 0
	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok && err != nil {
			logger.Error("ops http server failed", "error", err)
			exitCode = 1
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		exitCode = 1
	}
	if err := telemetry.Shutdown(shutdownCtx); err != nil {
		logger.Warn("observability shutdown incomplete", "error", err)
	}

	logger.Info("scheduler stopped")
	return exitCode
}
