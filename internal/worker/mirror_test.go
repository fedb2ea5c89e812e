package worker

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lendbook/internal/adapters"
	"lendbook/internal/amqp"
	"lendbook/internal/core"
	"lendbook/internal/date"
	"lendbook/internal/sheets/memory"
	"lendbook/internal/storage"
)

func TestDefaultMirrorWorkerConfig(t *testing.T) {
	config := DefaultMirrorWorkerConfig()

	if config.Debounce != 2*time.Second {
		t.Errorf("expected Debounce 2s, got %v", config.Debounce)
	}
	if config.PollInterval != 5*time.Minute {
		t.Errorf("expected PollInterval 5m, got %v", config.PollInterval)
	}
}

func newMirrorFixture() (*MirrorWorker, *storage.MemoryRepository, *memory.Store) {
	store := storage.NewMemoryRepository()
	sink := memory.New()
	worker := NewMirrorWorker(adapters.NewSnapshotExporter(store, sink), nil, DefaultMirrorWorkerConfig())
	return worker, store, sink
}

func TestMirrorWorker_IsRunning(t *testing.T) {
	worker, _, _ := newMirrorFixture()

	if worker.IsRunning() {
		t.Error("worker should not be running initially")
	}
}

func TestMirrorWorker_StartTwice(t *testing.T) {
	worker, _, _ := newMirrorFixture()

	worker.mu.Lock()
	worker.running = true
	worker.mu.Unlock()

	if err := worker.Start(context.Background()); err == nil {
		t.Error("expected error when starting already running worker")
	}
}

func TestMirrorWorker_StopNotRunning(t *testing.T) {
	worker, _, _ := newMirrorFixture()

	if err := worker.Stop(context.Background()); err != nil {
		t.Errorf("Stop should not error when not running: %v", err)
	}
}

func TestMirrorWorker_StartStop(t *testing.T) {
	worker, _, sink := newMirrorFixture()
	ctx := context.Background()

	if err := worker.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !worker.IsRunning() {
		t.Error("worker should be running after Start")
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := worker.Stop(stopCtx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if worker.IsRunning() {
		t.Error("worker should not be running after Stop")
	}

	// The startup pass completes before the loop starts selecting, so it
	// is visible once Stop has returned.
	if sink.ReplaceCount() != 1 {
		t.Errorf("ReplaceCount() = %d, want 1 startup export", sink.ReplaceCount())
	}
}

func TestMirrorWorker_ExportSkipsCoveredGenerations(t *testing.T) {
	worker, store, sink := newMirrorFixture()
	ctx := context.Background()

	inv := core.Investment{
		ID:             "inv-1",
		Source:         "ACME",
		Principal:      500000,
		MonthlyRate:    1.2,
		Start:          date.New(2025, time.July, 15),
		DurationMonths: 6,
		Status:         core.StatusActive,
	}.Normalized()
	if _, err := store.Save(ctx, []core.Investment{inv}, core.Settings{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	worker.export(ctx, 1)
	if sink.ReplaceCount() != 1 {
		t.Fatalf("ReplaceCount() = %d, want 1", sink.ReplaceCount())
	}

	// Generation 1 is covered now; a repeat hint is a no-op.
	worker.export(ctx, 1)
	if sink.ReplaceCount() != 1 {
		t.Errorf("ReplaceCount() = %d, want covered generation skipped", sink.ReplaceCount())
	}

	// Generation 0 forces a pass.
	worker.export(ctx, 0)
	if sink.ReplaceCount() != 2 {
		t.Errorf("ReplaceCount() = %d, want forced export", sink.ReplaceCount())
	}

	if _, err := store.Save(ctx, []core.Investment{inv}, core.Settings{}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	worker.export(ctx, 2)
	if sink.ReplaceCount() != 3 {
		t.Errorf("ReplaceCount() = %d, want new generation exported", sink.ReplaceCount())
	}
}

func TestMirrorWorker_HandleChangeMessage(t *testing.T) {
	worker, _, _ := newMirrorFixture()

	if err := worker.HandleChangeMessage(&amqp.LedgerChangedMessage{Generation: 3}); err != nil {
		t.Fatalf("HandleChangeMessage() error = %v", err)
	}
	if err := worker.HandleChangeMessage(&amqp.LedgerChangedMessage{Generation: 2}); err != nil {
		t.Fatalf("HandleChangeMessage() error = %v", err)
	}

	if got := atomic.LoadInt64(&worker.pendingGen); got != 3 {
		t.Errorf("pendingGen = %d, want the highest generation 3", got)
	}
	if len(worker.kickCh) != 1 {
		t.Errorf("kickCh length = %d, want 1 coalesced signal", len(worker.kickCh))
	}
}
