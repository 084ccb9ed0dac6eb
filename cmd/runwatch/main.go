package main

import (
	"errors"
	"os"

	"bankgold/internal/cli"
	"bankgold/internal/log"
	"bankgold/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	cfg := cli.LoadAndValidateConfig(cli.SetupLogger())
	base := cli.ConfigureLogger(cfg)
	logger := log.WithComponent(base, log.ComponentApp)

	if cfg.AMQPURL == "" {
		err := errors.New("AMQP_URL is required")
		logger.Error("Cannot watch runs", log.NewFields().WithOperation(log.OpValidate).WithError(err).ToSlice()...)
		os.Exit(1)
	}

	logger.Info("Starting runwatch", "queue", cfg.AMQPQueue, "ledger", cfg.StoreResults)

	ctx, stop := cli.SignalContext()
	defer stop()

	result := cli.InitBackend(ctx, base, cfg)
	defer func() {
		if err := result.Cleanup(); err != nil {
			logger.Warn("Cleanup failed", "error", err)
		}
	}()

	if result.Subscriber == nil {
		err := errors.New("AMQP broker unavailable")
		logger.Error("Cannot watch runs", log.NewFields().WithOperation(log.OpStartup).WithError(err).ToSlice()...)
		result.Cleanup()
		os.Exit(1)
	}

	watcher := services.NewRunWatcher(result.Subscriber, result.Runs, log.WithComponent(base, log.ComponentWatcher))
	if err := watcher.Watch(ctx); err != nil {
		logger.Error("Run watch failed", log.NewFields().WithOperation(log.OpWatch).WithError(err).ToSlice()...)
		result.Cleanup()
		os.Exit(1)
	}
	logger.Info("Runwatch stopped")
}
