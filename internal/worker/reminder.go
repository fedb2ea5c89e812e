package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lendbook/internal/date"
	"lendbook/internal/services"
)

// ReminderWorkerConfig holds configuration for the reminder worker
type ReminderWorkerConfig struct {
	// CheckInterval is how often to check whether today's due scan has
	// run yet (default: 1h)
	CheckInterval time.Duration
}

// DefaultReminderWorkerConfig returns sensible defaults
func DefaultReminderWorkerConfig() ReminderWorkerConfig {
	return ReminderWorkerConfig{
		CheckInterval: time.Hour,
	}
}

// ReminderWorker runs the daily due scan: once per calendar day it
// collects the unpaid interest periods falling due and publishes one
// notification message per entry. A failed run is retried on the next
// check because the day only counts as done after a clean publish.
type ReminderWorker struct {
	service *services.LedgerService
	config  ReminderWorkerConfig

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	lastRun date.Date

	today func() date.Date
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(service *services.LedgerService, config ReminderWorkerConfig) *ReminderWorker {
	return &ReminderWorker{
		service: service,
		config:  config,
		today:   date.Today,
	}
}

// Start begins the reminder loop. Returns an error if already running.
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("reminder worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder worker started",
		"check_interval", w.config.CheckInterval)

	return nil
}

// Stop gracefully stops the worker and waits for completion.
func (w *ReminderWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)

	select {
	case <-w.doneCh:
		slog.InfoContext(ctx, "Reminder worker stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder worker stop timed out")
		return ctx.Err()
	}

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	return nil
}

// IsRunning returns whether the worker is currently running
func (w *ReminderWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// runLoop is the main reminder loop
func (w *ReminderWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.CheckInterval)
	defer ticker.Stop()

	// Check immediately on startup
	w.checkOnce(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.checkOnce(ctx)
		}
	}
}

// checkOnce runs the due scan if it has not run today yet.
func (w *ReminderWorker) checkOnce(ctx context.Context) {
	today := w.today()

	w.mu.Lock()
	done := w.lastRun == today
	w.mu.Unlock()
	if done {
		return
	}

	if _, err := w.ProcessDue(ctx, today); err != nil {
		slog.ErrorContext(ctx, "Due scan failed", "on", today, "error", err)
		return
	}

	w.mu.Lock()
	w.lastRun = today
	w.mu.Unlock()
}

// ProcessDue scans for unpaid interest periods due on the given day and
// publishes one message per entry. It returns how many entries were
// published.
func (w *ReminderWorker) ProcessDue(ctx context.Context, on date.Date) (int, error) {
	entries, err := w.service.DueScan(ctx, on)
	if err != nil {
		return 0, fmt.Errorf("scan dues: %w", err)
	}
	if len(entries) == 0 {
		slog.DebugContext(ctx, "No interest due", "on", on)
		return 0, nil
	}

	if err := w.service.PublishDue(ctx, entries); err != nil {
		return 0, fmt.Errorf("publish dues: %w", err)
	}

	slog.InfoContext(ctx, "Interest dues published",
		"on", on,
		"count", len(entries))

	return len(entries), nil
}
