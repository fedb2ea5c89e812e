package main

import (
	"context"
	"os"
	"time"

	"lendbook/internal/cli"
	"lendbook/internal/log"
	"lendbook/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)

	logger.Info("Starting reminder-worker")

	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()
	result := cli.InitBackend(ctx, logger, cfg)
	defer result.Cleanup()

	if result.AMQP == nil {
		logger.Warn("AMQP unavailable; due scans will run but publish nothing")
	}

	reminder := worker.NewReminderWorker(result.Service, worker.ReminderWorkerConfig{
		CheckInterval: cfg.ReminderInterval,
	})

	err := cli.Run(ctx, func(ctx context.Context) error {
		if err := reminder.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return reminder.Stop(stopCtx)
	})
	if err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
}
