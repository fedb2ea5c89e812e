// The monthly ledger: folds the whole collection into a month-indexed
// view of capital movements and interest flow. All accumulation is a
// commutative sum over independent per-investment contributions, so the
// result is identical no matter what order the records arrive in.

package core

import (
	"sort"

	"lendbook/internal/date"
)

type (
	// CapitalEntry is one capital movement (in or out) in a month.
	CapitalEntry struct {
		InvestmentID string    `json:"investmentId"`
		Source       string    `json:"source"`
		Ticket       string    `json:"ticket"`
		Amount       int64     `json:"amount"`
		Date         date.Date `json:"date"`
	}

	// InterestEntry is one period's interest attributed to a month. It
	// references back to the owning investment by id and period index
	// so detail rows survive merging and external reordering.
	InterestEntry struct {
		InvestmentID string    `json:"investmentId"`
		Period       int       `json:"period"`
		Source       string    `json:"source"`
		Ticket       string    `json:"ticket"`
		Rate         float64   `json:"rate"`
		Amount       int64     `json:"amount"`
		DueDate      date.Date `json:"dueDate"`
		Paid         bool      `json:"paid"`
		PaidDate     date.Date `json:"paidDate"`
	}

	// MonthlyReportItem is the ledger view of a single month.
	MonthlyReportItem struct {
		Month            date.Month      `json:"month"`
		NewCapital       int64           `json:"newCapital"`
		ReturnedCapital  int64           `json:"returnedCapital"`
		ExpectedInterest int64           `json:"expectedInterest"`
		ActualInterest   int64           `json:"actualInterest"`
		CapitalIn        []CapitalEntry  `json:"capitalIn"`
		CapitalOut       []CapitalEntry  `json:"capitalOut"`
		Interest         []InterestEntry `json:"interest"`
	}

	// ChartPoint is one month of the windowed series used for charting.
	ChartPoint struct {
		Month           date.Month `json:"month"`
		ActiveCapital   int64      `json:"activeCapital"`
		ReturnedCapital int64      `json:"returnedCapital"`
		Interest        int64      `json:"interest"`
	}
)

// Chart window: months before and after the anchor month.
const (
	ChartMonthsBack    = 6
	ChartMonthsForward = 12
)

// MonthlyReport folds the collection into one item per month with any
// activity, sorted ascending by month. New capital lands in the month
// of the start date, returned capital in the month of the end date, and
// each period's interest in the month of its due date; the actual
// total counts only periods whose payment record is marked paid.
func MonthlyReport(investments []Investment) []MonthlyReportItem {
	byMonth := make(map[date.Month]*MonthlyReportItem)
	get := func(mo date.Month) *MonthlyReportItem {
		item, ok := byMonth[mo]
		if !ok {
			item = &MonthlyReportItem{Month: mo}
			byMonth[mo] = item
		}
		return item
	}

	for _, inv := range SortedByOrder(investments) {
		if inv.Start.IsZero() || inv.DurationMonths < 1 {
			continue
		}
		end := maturity(inv)

		in := get(inv.Start.MonthKey())
		in.NewCapital += inv.Principal
		in.CapitalIn = append(in.CapitalIn, CapitalEntry{
			InvestmentID: inv.ID,
			Source:       inv.Source,
			Ticket:       inv.Ticket,
			Amount:       inv.Principal,
			Date:         inv.Start,
		})

		out := get(end.MonthKey())
		out.ReturnedCapital += inv.Principal
		out.CapitalOut = append(out.CapitalOut, CapitalEntry{
			InvestmentID: inv.ID,
			Source:       inv.Source,
			Ticket:       inv.Ticket,
			Amount:       inv.Principal,
			Date:         end,
		})

		interest := inv.MonthlyInterest()
		for period := 1; period <= inv.DurationMonths; period++ {
			due := inv.DueDate(period)
			rec := inv.Payments[period]
			item := get(due.MonthKey())
			item.ExpectedInterest += interest
			if rec.Paid {
				item.ActualInterest += interest
			}
			item.Interest = append(item.Interest, InterestEntry{
				InvestmentID: inv.ID,
				Period:       period,
				Source:       inv.Source,
				Ticket:       inv.Ticket,
				Rate:         inv.MonthlyRate,
				Amount:       interest,
				DueDate:      due,
				Paid:         rec.Paid,
				PaidDate:     rec.PaidDate,
			})
		}
	}

	months := make([]date.Month, 0, len(byMonth))
	for mo := range byMonth {
		months = append(months, mo)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	report := make([]MonthlyReportItem, 0, len(months))
	for _, mo := range months {
		report = append(report, *byMonth[mo])
	}
	return report
}

// ChartSeries computes the windowed dual series for charting: one point
// per month from ChartMonthsBack before today's month through
// ChartMonthsForward after it, inclusive. Active capital counts an
// investment's principal in every month its interval [start, end)
// overlaps, i.e. start <= monthEnd && end > monthStart; returned
// capital and interest follow the same month attribution as
// MonthlyReport. Months without activity are emitted with zeros so the
// axis stays continuous.
func ChartSeries(investments []Investment, today date.Date) []ChartPoint {
	anchor := today.MonthKey()
	points := make([]ChartPoint, 0, ChartMonthsBack+ChartMonthsForward+1)
	for off := -ChartMonthsBack; off <= ChartMonthsForward; off++ {
		mo := anchor.Add(off)
		monthStart, monthEnd := mo.First(), mo.Last()
		point := ChartPoint{Month: mo}
		for _, inv := range investments {
			if inv.Start.IsZero() || inv.DurationMonths < 1 {
				continue
			}
			end := maturity(inv)
			if !inv.Start.After(monthEnd) && end.After(monthStart) {
				point.ActiveCapital += inv.Principal
			}
			if end.MonthKey() == mo {
				point.ReturnedCapital += inv.Principal
			}
			interest := inv.MonthlyInterest()
			for period := 1; period <= inv.DurationMonths; period++ {
				if inv.DueDate(period).MonthKey() == mo {
					point.Interest += interest
				}
			}
		}
		points = append(points, point)
	}
	return points
}

// maturity returns the end date, recomputing it when a record arrives
// without one.
func maturity(inv Investment) date.Date {
	if !inv.End.IsZero() {
		return inv.End
	}
	return EndDate(inv.Start, inv.DurationMonths)
}
