// Package services provides business logic and orchestration on top of
// the pure core: snapshot read-modify-write cycles, ticket refresh on
// the edits that require it, import merging, and change publication.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"lendbook/internal/amqp"
	"lendbook/internal/core"
	"lendbook/internal/date"
	"lendbook/internal/storage"
)

// LedgerService orchestrates ledger operations across storage and AMQP.
// Mutations run under a single-writer lock: each one loads the current
// snapshot, transforms it in memory, and saves the whole snapshot back.
type LedgerService struct {
	store      storage.Repository
	amqpClient *amqp.Client

	mu    sync.Mutex
	today func() date.Date
}

func NewLedgerService(store storage.Repository, amqpClient *amqp.Client) *LedgerService {
	return &LedgerService{
		store:      store,
		amqpClient: amqpClient,
		today:      date.Today,
	}
}

// List returns every investment sorted by manual order.
func (s *LedgerService) List(ctx context.Context) ([]core.Investment, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return core.SortedByOrder(snap.Investments), nil
}

// Generation returns the current snapshot generation. It increases on
// every successful mutation, which makes it a cheap cache key for
// read-side callers.
func (s *LedgerService) Generation(ctx context.Context) (int64, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	return snap.Generation, nil
}

// Get returns a single investment by id.
func (s *LedgerService) Get(ctx context.Context, id string) (core.Investment, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}
	inv, ok := core.FindByID(snap.Investments, id)
	if !ok {
		return core.Investment{}, core.ErrNotFound
	}
	return inv, nil
}

// Create validates and stores a new investment. A missing id is
// generated, the record goes to the end of the manual order, and its
// tickets are derived against the whole collection.
func (s *LedgerService) Create(ctx context.Context, inv core.Investment) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}

	if inv.ID == "" {
		inv.ID = core.NewID()
	}
	for i := range inv.Funders {
		if inv.Funders[i].ID == "" {
			inv.Funders[i].ID = core.NewID()
		}
	}
	inv.Order = core.MaxOrder(snap.Investments) + 1
	inv = inv.Normalized()
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	inv = core.RefreshTickets(inv, snap.Investments)

	investments := append(snap.Investments, inv)
	settings := rememberNames(snap.Settings, inv)

	generation, err := s.store.Save(ctx, investments, settings)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionCreate, inv.ID)

	slog.InfoContext(ctx, "Investment created",
		"id", inv.ID,
		"source", inv.Source,
		"principal", inv.Principal)

	return inv, nil
}

// Update replaces an investment's editable fields. Manual order and
// payment history are owned by their own operations and survive the
// update untouched. Tickets are recomputed only when a field they are
// derived from changed; an edited ticket on an otherwise unchanged
// record becomes a manual override.
func (s *LedgerService) Update(ctx context.Context, inv core.Investment) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}

	existing, ok := core.FindByID(snap.Investments, inv.ID)
	if !ok {
		return core.Investment{}, core.ErrNotFound
	}

	inv.Order = existing.Order
	inv.Payments = existing.Payments
	for i := range inv.Funders {
		if inv.Funders[i].ID == "" {
			inv.Funders[i].ID = core.NewID()
		}
	}
	inv = inv.Normalized()
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}

	switch {
	case ticketFieldsChanged(existing, inv):
		inv = core.RefreshTickets(inv, snap.Investments)
	case inv.Ticket != existing.Ticket && inv.Ticket != "":
		inv.TicketOverride = true
	default:
		inv.Ticket = existing.Ticket
		inv.TicketOverride = existing.TicketOverride
	}

	investments := replaceByID(snap.Investments, inv)
	settings := rememberNames(snap.Settings, inv)

	generation, err := s.store.Save(ctx, investments, settings)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionUpdate, inv.ID)

	return inv, nil
}

// Delete removes an investment. Remaining orders keep their values;
// gaps are harmless because only relative order matters.
func (s *LedgerService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	investments := make([]core.Investment, 0, len(snap.Investments))
	found := false
	for _, inv := range snap.Investments {
		if inv.ID == id {
			found = true
			continue
		}
		investments = append(investments, inv)
	}
	if !found {
		return core.ErrNotFound
	}

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionDelete, id)

	slog.InfoContext(ctx, "Investment deleted", "id", id)

	return nil
}

// Renew closes out a matured position and opens its successor: a new
// record starting at the old maturity with the same terms, empty
// payment history, and cleared bonus state. The original is marked
// renewed.
func (s *LedgerService) Renew(ctx context.Context, id string) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}

	old, ok := core.FindByID(snap.Investments, id)
	if !ok {
		return core.Investment{}, core.ErrNotFound
	}

	renewed := old.Clone().WithFreshIDs()
	renewed.Start = core.EndDate(old.Start, old.DurationMonths)
	renewed.End = core.EndDate(renewed.Start, renewed.DurationMonths)
	renewed.Payments = map[int]core.PaymentRecord{}
	renewed.BonusPaid = false
	renewed.BonusPaidDate = date.Date{}
	renewed.Status = core.StatusActive
	renewed.TicketOverride = false
	renewed.Order = core.MaxOrder(snap.Investments) + 1
	renewed = core.RefreshTickets(renewed, snap.Investments)

	old.Status = core.StatusRenewed
	investments := replaceByID(snap.Investments, old)
	investments = append(investments, renewed)

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionCreate, renewed.ID)

	slog.InfoContext(ctx, "Investment renewed",
		"old_id", id,
		"new_id", renewed.ID,
		"new_start", renewed.Start)

	return renewed, nil
}

// Copy duplicates a record as-is under fresh identifiers. Payment
// history, bonus state, and status carry over; tickets are re-derived
// so the twin cannot collide with its original.
func (s *LedgerService) Copy(ctx context.Context, id string) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}

	old, ok := core.FindByID(snap.Investments, id)
	if !ok {
		return core.Investment{}, core.ErrNotFound
	}

	dup := old.Clone().WithFreshIDs()
	dup.TicketOverride = false
	dup.Order = core.MaxOrder(snap.Investments) + 1
	dup = core.RefreshTickets(dup, snap.Investments)

	investments := append(snap.Investments, dup)

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionCreate, dup.ID)

	return dup, nil
}

// Reorder moves the listed investments, in the given sequence, to the
// front of the manual order and renumbers the whole collection
// contiguously. Ids not present are ignored.
func (s *LedgerService) Reorder(ctx context.Context, ids []string) ([]core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	investments := core.Renumber(snap.Investments, ids)

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return nil, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionReorder, "")

	return core.SortedByOrder(investments), nil
}

// Settings returns the stored collaborator settings.
func (s *LedgerService) Settings(ctx context.Context) (core.Settings, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load snapshot: %w", err)
	}
	return snap.Settings, nil
}

// UpdateSettings replaces the stored settings.
func (s *LedgerService) UpdateSettings(ctx context.Context, settings core.Settings) (core.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load snapshot: %w", err)
	}

	settings = settings.Normalized()
	generation, err := s.store.Save(ctx, snap.Investments, settings)
	if err != nil {
		return core.Settings{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionSettings, "")

	return settings, nil
}

func (s *LedgerService) publishChange(ctx context.Context, generation int64, action, investmentID string) {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping change message")
		return
	}
	if err := s.amqpClient.PublishLedgerChanged(ctx, generation, action, investmentID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish change message",
			"generation", generation,
			"action", action,
			"error", err)
		// Don't fail the request - the snapshot is saved locally
	}
}

// rememberNames folds the record's source and funder names into the
// suggestion lists.
func rememberNames(settings core.Settings, inv core.Investment) core.Settings {
	settings = settings.RememberSource(inv.Source)
	names := make([]string, 0, len(inv.Funders))
	for _, f := range inv.Funders {
		names = append(names, f.Name)
	}
	return settings.RememberFunders(names...)
}

func replaceByID(investments []core.Investment, inv core.Investment) []core.Investment {
	out := make([]core.Investment, len(investments))
	for i, cur := range investments {
		if cur.ID == inv.ID {
			out[i] = inv
		} else {
			out[i] = cur
		}
	}
	return out
}

// ticketFieldsChanged reports whether any field the ticket derives from
// differs between the two records.
func ticketFieldsChanged(old, updated core.Investment) bool {
	if old.Start != updated.Start ||
		old.DurationMonths != updated.DurationMonths ||
		old.Source != updated.Source ||
		old.Principal != updated.Principal ||
		old.MonthlyRate != updated.MonthlyRate {
		return true
	}
	if len(old.Funders) != len(updated.Funders) {
		return true
	}
	for i := range old.Funders {
		if old.Funders[i].Name != updated.Funders[i].Name || old.Funders[i].Amount != updated.Funders[i].Amount {
			return true
		}
	}
	return false
}

// Close releases the storage and AMQP connections.
func (s *LedgerService) Close() error {
	var errs []error

	if s.store != nil {
		if err := s.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close ledger service: %v", errs)
	}

	return nil
}
