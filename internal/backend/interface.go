// Package backend builds the wired object graph each binary starts
// from: the snapshot store selected by configuration, the optional
// AMQP client, the optional spreadsheet mirror, and the ledger service
// on top of them.
package backend

import (
	"context"

	"lendbook/internal/amqp"
	"lendbook/internal/services"
	"lendbook/internal/sheets"
	"lendbook/internal/storage"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the wired components and a cleanup function
type BackendResult struct {
	// Store is the snapshot repository selected by Config.Type.
	Store storage.Repository

	// AMQP is the change-event client, nil when messaging is
	// unavailable or not configured.
	AMQP *amqp.Client

	// Mirror is the spreadsheet row sink, nil when no mirror is
	// configured or its client could not be built.
	Mirror sheets.RowWriter

	// Service is the ledger service over Store and AMQP.
	Service *services.LedgerService

	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// AMQP, optional
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Mirror reports whether a spreadsheet mirror should be built.
	// Credentials come from the environment via the sheets client.
	Mirror bool
}

// BackendType represents the type of snapshot store
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
