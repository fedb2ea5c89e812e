package storage

import (
	"context"
	"sync"

	"lendbook/internal/core"
)

// MemoryRepository keeps the snapshot in process memory. It backs the
// memory data backend and the test suites; state is lost on restart.
type MemoryRepository struct {
	mu         sync.Mutex
	snapshot   Snapshot
	generation int64
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		snapshot: Snapshot{
			Investments: []core.Investment{},
			Settings:    core.Settings{}.Normalized(),
		},
	}
}

func (r *MemoryRepository) Load(ctx context.Context) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Snapshot{
		Investments: make([]core.Investment, 0, len(r.snapshot.Investments)),
		Settings:    r.snapshot.Settings.Clone(),
		Generation:  r.generation,
	}
	for _, inv := range r.snapshot.Investments {
		out.Investments = append(out.Investments, inv.Clone())
	}
	return out, nil
}

func (r *MemoryRepository) Save(ctx context.Context, investments []core.Investment, settings core.Settings) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]core.Investment, 0, len(investments))
	for _, inv := range investments {
		stored = append(stored, inv.Clone())
	}
	r.generation++
	r.snapshot = Snapshot{
		Investments: stored,
		Settings:    settings.Clone(),
		Generation:  r.generation,
	}
	return r.generation, nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
