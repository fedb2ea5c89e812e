package services

import (
	"context"
	"fmt"

	"lendbook/internal/core"
	"lendbook/internal/date"
)

// MonthlyReport returns the month-indexed ledger over the whole
// collection.
func (s *LedgerService) MonthlyReport(ctx context.Context) ([]core.MonthlyReportItem, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return core.MonthlyReport(snap.Investments), nil
}

// MonthlyReportRange returns the ledger restricted to [from, to]. A
// zero bound leaves that side open.
func (s *LedgerService) MonthlyReportRange(ctx context.Context, from, to date.Month) ([]core.MonthlyReportItem, error) {
	report, err := s.MonthlyReport(ctx)
	if err != nil {
		return nil, err
	}
	filtered := make([]core.MonthlyReportItem, 0, len(report))
	for _, item := range report {
		if !from.IsZero() && item.Month.Before(from) {
			continue
		}
		if !to.IsZero() && to.Before(item.Month) {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered, nil
}

// ChartSeries returns the windowed capital and interest series anchored
// on today's month.
func (s *LedgerService) ChartSeries(ctx context.Context) ([]core.ChartPoint, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return core.ChartSeries(snap.Investments, s.today()), nil
}

// Stats returns the portfolio summary. Financial aggregates cover
// active investments only; the status breakdown counts every record.
func (s *LedgerService) Stats(ctx context.Context) (core.PortfolioStats, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return core.PortfolioStats{}, fmt.Errorf("load snapshot: %w", err)
	}
	active := make([]core.Investment, 0, len(snap.Investments))
	for _, inv := range snap.Investments {
		if inv.Status == core.StatusActive {
			active = append(active, inv)
		}
	}
	stats := core.Stats(active)
	stats.StatusCounts = make(map[core.Status]int)
	for _, inv := range snap.Investments {
		stats.StatusCounts[inv.Status]++
	}
	return stats, nil
}
