package backend

import (
	"context"
	"fmt"
	"log/slog"

	"lendbook/internal/amqp"
	"lendbook/internal/services"
	gsheet "lendbook/internal/sheets/google"
	"lendbook/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateBackend implements Factory.CreateBackend. The store must come
// up or the call fails; AMQP and the mirror are optional extras that
// log a warning and stay nil when they cannot be built.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	store, err := f.createStore(config)
	if err != nil {
		return nil, err
	}

	var amqpClient *amqp.Client
	if config.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without messaging", "error", err)
			amqpClient = nil
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result := &BackendResult{
		Store:   store,
		AMQP:    amqpClient,
		Service: services.NewLedgerService(store, amqpClient),
	}
	result.Cleanup = result.Service.Close

	if config.Mirror {
		mirror, err := gsheet.NewFromEnv(ctx)
		if err != nil {
			f.logger.Warn("Failed to initialize sheet mirror, continuing without mirror", "error", err)
		} else {
			result.Mirror = mirror
			f.logger.Info("Initialized sheet mirror")
		}
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", amqpClient != nil,
		"mirror_enabled", result.Mirror != nil)

	return result, nil
}

func (f *DefaultFactory) createStore(config Config) (storage.Repository, error) {
	switch config.Type {
	case SQLiteBackend:
		store, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		f.logger.Info("Initialized SQLite store", "db_path", config.SQLiteDBPath)
		return store, nil
	case MemoryBackend:
		f.logger.Info("Initialized memory store")
		return storage.NewMemoryRepository(), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
