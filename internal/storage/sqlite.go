package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"lendbook/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

var _ Repository = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	// Run migrations
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load reads the stored snapshot. Missing keys yield empty collections
// and blobs that fail to decode reset to empty, so a damaged store
// degrades to a fresh ledger instead of refusing to start.
func (r *SQLiteRepository) Load(ctx context.Context) (Snapshot, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value, generation FROM snapshots`)
	if err != nil {
		return Snapshot{}, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	snap := Snapshot{
		Investments: []core.Investment{},
		Settings:    core.Settings{}.Normalized(),
	}
	for rows.Next() {
		var (
			key        string
			value      []byte
			generation int64
		)
		if err := rows.Scan(&key, &value, &generation); err != nil {
			return Snapshot{}, fmt.Errorf("scan snapshot row: %w", err)
		}
		switch key {
		case KeyInvestments:
			snap.Investments = core.DecodeInvestments(value)
		case KeySettings:
			snap.Settings = core.DecodeSettings(value)
		}
		if generation > snap.Generation {
			snap.Generation = generation
		}
	}
	if err := rows.Err(); err != nil {
		return Snapshot{}, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snap, nil
}

// Save writes both collections in one transaction and returns the new
// generation.
func (r *SQLiteRepository) Save(ctx context.Context, investments []core.Investment, settings core.Settings) (int64, error) {
	invBlob, err := core.EncodeInvestments(investments)
	if err != nil {
		return 0, fmt.Errorf("encode investments: %w", err)
	}
	setBlob, err := core.EncodeSettings(settings)
	if err != nil {
		return 0, fmt.Errorf("encode settings: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(generation), 0) FROM snapshots`).Scan(&current); err != nil {
		return 0, fmt.Errorf("read generation: %w", err)
	}
	generation := current + 1
	now := time.Now().UTC().Format(time.RFC3339)

	const upsert = `INSERT INTO snapshots (key, value, generation, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, generation = excluded.generation, updated_at = excluded.updated_at`
	if _, err := tx.ExecContext(ctx, upsert, KeyInvestments, invBlob, generation, now); err != nil {
		return 0, fmt.Errorf("save investments: %w", err)
	}
	if _, err := tx.ExecContext(ctx, upsert, KeySettings, setBlob, generation, now); err != nil {
		return 0, fmt.Errorf("save settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit snapshot: %w", err)
	}

	slog.InfoContext(ctx, "Snapshot saved to SQLite",
		"generation", generation,
		"investments", len(investments))

	return generation, nil
}
