package services

import (
	"context"
	"fmt"
	"log/slog"

	"lendbook/internal/amqp"
	"lendbook/internal/core"
	"lendbook/internal/date"
	"lendbook/internal/roc"
)

// NotePolicy selects what the bulk mark-paid operation does to the note
// of a payment record that already carries one.
type NotePolicy string

const (
	// NoteOverwrite replaces the existing note with the bulk note.
	NoteOverwrite NotePolicy = "overwrite"
	// NotePreserve keeps an existing note and applies the bulk note only
	// to records without one.
	NotePreserve NotePolicy = "preserve"
)

func (p NotePolicy) Valid() bool {
	switch p {
	case NoteOverwrite, NotePreserve:
		return true
	}
	return false
}

// MarkPaid flips one payment period of one investment. The first flip
// to paid stamps today as the paid date; unflipping keeps the stamp so
// re-flipping does not lose the original date.
func (s *LedgerService) MarkPaid(ctx context.Context, id string, period int, paid bool, note string) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}

	inv, ok := core.FindByID(snap.Investments, id)
	if !ok {
		return core.Investment{}, core.ErrNotFound
	}

	inv, err = inv.WithPayment(period, paid, note, s.today())
	if err != nil {
		return core.Investment{}, err
	}

	investments := replaceByID(snap.Investments, inv)

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionPayment, id)

	return inv, nil
}

// MarkBonusPaid flips the bonus-fee paid flag of one investment,
// stamping the date on the first flip to paid.
func (s *LedgerService) MarkBonusPaid(ctx context.Context, id string, paid bool) (core.Investment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.Investment{}, fmt.Errorf("load snapshot: %w", err)
	}

	inv, ok := core.FindByID(snap.Investments, id)
	if !ok {
		return core.Investment{}, core.ErrNotFound
	}

	inv = inv.Clone()
	inv.BonusPaid = paid
	if paid && inv.BonusPaidDate.IsZero() {
		inv.BonusPaidDate = s.today()
	}

	investments := replaceByID(snap.Investments, inv)

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return core.Investment{}, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionPayment, id)

	return inv, nil
}

// MarkMonthPaid marks every interest period due in the given month as
// paid (or unpaid) across the whole collection and returns how many
// periods changed. The note lands on each touched record subject to the
// note policy.
func (s *LedgerService) MarkMonthPaid(ctx context.Context, month date.Month, paid bool, note string, policy NotePolicy) (int, error) {
	if !policy.Valid() {
		policy = NoteOverwrite
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}

	today := s.today()
	changed := 0
	investments := make([]core.Investment, len(snap.Investments))
	for i, inv := range snap.Investments {
		investments[i] = inv
		if inv.Start.IsZero() || inv.DurationMonths < 1 {
			continue
		}
		for period := 1; period <= inv.DurationMonths; period++ {
			if inv.DueDate(period).MonthKey() != month {
				continue
			}
			record := inv.Payments[period]
			if record.Paid == paid {
				continue
			}
			appliedNote := note
			if policy == NotePreserve && record.Note != "" {
				appliedNote = record.Note
			}
			updated, err := investments[i].WithPayment(period, paid, appliedNote, today)
			if err != nil {
				return 0, err
			}
			investments[i] = updated
			changed++
		}
	}

	if changed == 0 {
		return 0, nil
	}

	generation, err := s.store.Save(ctx, investments, snap.Settings)
	if err != nil {
		return 0, fmt.Errorf("save snapshot: %w", err)
	}
	s.publishChange(ctx, generation, amqp.ActionPayment, "")

	slog.InfoContext(ctx, "Month marked",
		"month", month,
		"paid", paid,
		"periods", changed)

	return changed, nil
}

// DueScan returns the unpaid interest periods of active positions that
// fall due on the given day. The reminder worker publishes one due
// message per entry.
func (s *LedgerService) DueScan(ctx context.Context, on date.Date) ([]core.InterestEntry, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var due []core.InterestEntry
	for _, inv := range core.SortedByOrder(snap.Investments) {
		if inv.Status != core.StatusActive || inv.Start.IsZero() || inv.DurationMonths < 1 {
			continue
		}
		for period := 1; period <= inv.DurationMonths; period++ {
			dueDate := inv.DueDate(period)
			if dueDate != on || inv.Payments[period].Paid {
				continue
			}
			due = append(due, core.InterestEntry{
				InvestmentID: inv.ID,
				Period:       period,
				Source:       inv.Source,
				Ticket:       inv.TicketSummary(),
				Rate:         inv.MonthlyRate,
				Amount:       inv.MonthlyInterest(),
				DueDate:      dueDate,
			})
		}
	}
	return due, nil
}

// PublishDue pushes one due message per entry to the notification
// queue.
func (s *LedgerService) PublishDue(ctx context.Context, entries []core.InterestEntry) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping due messages")
		return nil
	}

	for _, entry := range entries {
		msg := &amqp.LedgerDueMessage{
			InvestmentID: entry.InvestmentID,
			Ticket:       entry.Ticket,
			Source:       entry.Source,
			Period:       entry.Period,
			DueDate:      roc.FormatDisplay(entry.DueDate),
			Amount:       entry.Amount,
		}
		if err := s.amqpClient.PublishLedgerDue(ctx, msg); err != nil {
			return fmt.Errorf("publish due message for %s period %d: %w", entry.InvestmentID, entry.Period, err)
		}
	}
	return nil
}
