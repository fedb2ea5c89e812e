package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"lendbook/internal/cli"
	apphttp "lendbook/internal/http"
	"lendbook/internal/log"
	"lendbook/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	defer result.Cleanup()

	srv := apphttp.NewServer(cfg.Addr, result.Service, logger.WithComponent(log.ComponentHTTP))
	srv.SetDefaultNotePolicy(services.NotePolicy(cfg.NotePolicy))

	logger.Info("Starting lendbook server",
		"addr", cfg.Addr,
		"backend", cfg.DataBackend)

	err := cli.Run(ctx,
		func(ctx context.Context) error {
			if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
		func(ctx context.Context) error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	)
	if err != nil {
		logger.Error("Server error", "error", err, "addr", cfg.Addr)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
