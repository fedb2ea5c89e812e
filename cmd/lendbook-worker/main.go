package main

import (
	"context"
	"os"
	"time"

	"lendbook/internal/adapters"
	"lendbook/internal/cli"
	"lendbook/internal/log"
	"lendbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting lendbook-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	defer result.Cleanup()

	if result.Mirror == nil {
		logger.Error("No spreadsheet mirror available; set GOOGLE_SPREADSHEET_ID and OAuth credentials")
		os.Exit(1)
	}
	if result.AMQP == nil {
		logger.Warn("AMQP unavailable; mirroring on the poll interval only")
	}

	exporter := adapters.NewSnapshotExporter(result.Store, result.Mirror)
	mirror := worker.NewMirrorWorker(exporter, result.AMQP, worker.DefaultMirrorWorkerConfig())

	err := cli.Run(ctx, func(ctx context.Context) error {
		if err := mirror.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return mirror.Stop(stopCtx)
	})
	if err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
