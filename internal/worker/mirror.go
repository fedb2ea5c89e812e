// Package worker hosts the long-running background loops: the mirror
// worker that projects ledger snapshots onto the spreadsheet mirror and
// the reminder worker that publishes interest-due notifications.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"lendbook/internal/adapters"
	"lendbook/internal/amqp"
)

// MirrorWorkerConfig holds configuration for the mirror worker
type MirrorWorkerConfig struct {
	// Debounce is how long to absorb further change messages before
	// exporting (default: 2s)
	Debounce time.Duration

	// PollInterval is how often to re-export regardless of messages,
	// healing missed messages and hand edits to the mirror (default: 5m)
	PollInterval time.Duration
}

// DefaultMirrorWorkerConfig returns sensible defaults
func DefaultMirrorWorkerConfig() MirrorWorkerConfig {
	return MirrorWorkerConfig{
		Debounce:     2 * time.Second,
		PollInterval: 5 * time.Minute,
	}
}

// MirrorWorker keeps the spreadsheet mirror converged with the stored
// snapshot. Change messages only hint that something moved; the export
// itself always re-reads the snapshot, so processing a stale or
// duplicated message is harmless.
type MirrorWorker struct {
	exporter *adapters.SnapshotExporter
	client   *amqp.Client
	config   MirrorWorkerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	kickCh       chan struct{}
	pendingGen   int64
	lastExported int64
}

// NewMirrorWorker creates a new mirror worker. The AMQP client may be
// nil, in which case only the poll pass runs.
func NewMirrorWorker(exporter *adapters.SnapshotExporter, client *amqp.Client, config MirrorWorkerConfig) *MirrorWorker {
	return &MirrorWorker{
		exporter: exporter,
		client:   client,
		config:   config,
		kickCh:   make(chan struct{}, 1),
	}
}

// Start begins the mirror loop. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	if w.client != nil {
		go w.consumeLoop(ctx)
	}
	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror worker started",
		"debounce", w.config.Debounce,
		"poll_interval", w.config.PollInterval)

	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// HandleChangeMessage records a change notification. The export happens
// on the worker loop after the debounce window.
func (w *MirrorWorker) HandleChangeMessage(msg *amqp.LedgerChangedMessage) error {
	for {
		cur := atomic.LoadInt64(&w.pendingGen)
		if msg.Generation <= cur || atomic.CompareAndSwapInt64(&w.pendingGen, cur, msg.Generation) {
			break
		}
	}
	select {
	case w.kickCh <- struct{}{}:
	default:
	}
	return nil
}

// consumeLoop feeds AMQP change messages into the worker loop.
func (w *MirrorWorker) consumeLoop(ctx context.Context) {
	err := w.client.ConsumeLedgerChanged(ctx, w.HandleChangeMessage)
	if err != nil && ctx.Err() == nil {
		slog.ErrorContext(ctx, "Change consumer terminated", "error", err)
	}
}

// runLoop is the main mirror loop
func (w *MirrorWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	pollTicker := time.NewTicker(w.config.PollInterval)
	defer pollTicker.Stop()

	// Export immediately on startup so a fresh worker converges without
	// waiting for the first change
	w.export(ctx, 0)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-w.kickCh:
			w.debounce(ctx)
		case <-pollTicker.C:
			w.export(ctx, 0)
		}
	}
}

// debounce absorbs the burst of change messages a bulk operation emits,
// then exports once. The window is fixed from the first message so a
// steady stream cannot starve the mirror.
func (w *MirrorWorker) debounce(ctx context.Context) {
	timer := time.NewTimer(w.config.Debounce)
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-w.kickCh:
			// absorbed
		case <-timer.C:
			w.export(ctx, atomic.LoadInt64(&w.pendingGen))
			return
		}
	}
}

// export runs one mirror pass. A non-zero generation already covered by
// a previous export is skipped; generation 0 forces the pass.
func (w *MirrorWorker) export(ctx context.Context, generation int64) {
	w.mu.Lock()
	last := w.lastExported
	w.mu.Unlock()
	if generation != 0 && generation <= last {
		return
	}

	exported, err := w.exporter.Export(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Mirror export failed", "error", err)
		return
	}

	w.mu.Lock()
	if exported > w.lastExported {
		w.lastExported = exported
	}
	w.mu.Unlock()
}
