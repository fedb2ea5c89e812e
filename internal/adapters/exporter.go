// Package adapters bridges the storage layer to the external row sinks
// and sources behind the sheets ports.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"lendbook/internal/date"
	"lendbook/internal/exchange"
	"lendbook/internal/sheets"
	"lendbook/internal/storage"
)

// ErrMirrorUnavailable is returned by Export when no row sink is
// configured. The snapshot itself is unaffected; only the mirror pass
// is skipped.
var ErrMirrorUnavailable = errors.New("mirror row sink not configured")

// SnapshotExporter projects the stored collection onto a mirror row
// sink in tabular form. Every export replaces the full grid, so the
// mirror converges after any missed run or hand edit.
type SnapshotExporter struct {
	store  storage.Repository
	writer sheets.RowWriter
	today  func() date.Date
}

func NewSnapshotExporter(store storage.Repository, writer sheets.RowWriter) *SnapshotExporter {
	return &SnapshotExporter{
		store:  store,
		writer: writer,
		today:  date.Today,
	}
}

// Export writes the current snapshot to the mirror and returns the
// generation that was exported.
func (e *SnapshotExporter) Export(ctx context.Context) (int64, error) {
	if e.writer == nil {
		return 0, ErrMirrorUnavailable
	}

	snap, err := e.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	header, rows := exchange.BuildTable(snap.Investments, e.today())
	if err := e.writer.ReplaceRows(ctx, header, rows); err != nil {
		return 0, fmt.Errorf("replace mirror rows: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot mirrored",
		"generation", snap.Generation,
		"rows", len(rows))

	return snap.Generation, nil
}
