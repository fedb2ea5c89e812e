// Package cli provides common initialization shared by the lendbook
// binaries: env loading, logger setup, config validation, backend
// wiring, and run-group supervision with signal handling.
package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"lendbook/internal/backend"
	"lendbook/internal/config"
	"lendbook/internal/log"
)

// SetupLogger initializes structured logging for the given component
// and installs it as the process default. LOG_FORMAT=json switches to
// the JSON handler and LOG_LEVEL=debug lowers the level.
func SetupLogger(component string) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Component = component
	cfg.JSON = strings.EqualFold(os.Getenv("LOG_FORMAT"), "json")
	if strings.EqualFold(os.Getenv("LOG_LEVEL"), "debug") {
		cfg.Level = slog.LevelDebug
	}

	logger := log.New(cfg)
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

// InitBackend builds the wired backend for the given config.
// Returns the backend or exits the process on failure.
func InitBackend(ctx context.Context, logger *log.Logger, cfg *config.Config) *backend.BackendResult {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	result, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	return result
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

// Run executes the tasks under one errgroup and blocks until all have
// returned. The first failure, or a shutdown signal, cancels the group
// context every task is expected to honor. A plain context
// cancellation is a normal shutdown, not an error.
func Run(ctx context.Context, tasks ...func(context.Context) error) error {
	ctx, stop := SignalContext(ctx)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	for _, task := range tasks {
		g.Go(func() error { return task(ctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
