// Package cli provides common CLI initialization utilities shared by
// cmd/bankruptcies and cmd/goldreserves.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bankgold/internal/backend"
	"bankgold/internal/config"
	"bankgold/internal/log"

	"github.com/joho/godotenv"
)

// SetupLogger initializes structured logging with default settings.
// Returns the configured logger and sets it as the default logger.
func SetupLogger() *slog.Logger {
	logger := log.New(log.DefaultConfig())
	slog.SetDefault(logger)
	return logger
}

// ConfigureLogger rebuilds the default logger from cfg's level and format.
// The returned logger carries no component; callers tag it per use.
func ConfigureLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	logger := log.New(log.Config{
		Level:  level,
		Format: cfg.LogFormat,
		Output: os.Stdout,
	})
	slog.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *slog.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.NewFields().WithOperation(log.OpValidate).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	return cfg
}

// InitBackend creates the data backend and optional result sinks. logger
// should carry no component. Returns the result or exits the process on
// failure.
func InitBackend(ctx context.Context, logger *slog.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.NewFields().WithOperation(log.OpValidate).WithError(err).ToSlice()...)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		fields := log.NewFields().WithComponent(log.ComponentBackend).WithOperation(log.OpStartup).WithError(err)
		logger.Error("Failed to initialize backend", append(fields.ToSlice(), "backend", backendCfg.Type)...)
		os.Exit(1)
	}
	return result
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
