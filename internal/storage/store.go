// Package storage persists ledger snapshots. The unit of persistence
// is the whole collection: investments and settings are stored as JSON
// blobs under fixed keys, and every save bumps a generation counter so
// downstream mirrors can tell whether the copy they exported is still
// current.
package storage

import (
	"context"

	"lendbook/internal/core"
)

// Snapshot keys.
const (
	KeyInvestments = "investments"
	KeySettings    = "settings"
)

// Snapshot is the persisted state of the ledger. Generation is 0 for a
// store that has never been written.
type Snapshot struct {
	Investments []core.Investment
	Settings    core.Settings
	Generation  int64
}

// Repository loads and saves ledger snapshots. Save persists both
// collections atomically and returns the new generation.
type Repository interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, investments []core.Investment, settings core.Settings) (int64, error)
	Close() error
}
