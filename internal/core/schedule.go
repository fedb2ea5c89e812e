// The amortization schedule: end dates, per-period due dates, the flat
// monthly interest amount, and the current period index.

package core

import "lendbook/internal/date"

// EndDate returns the maturity date: start plus the whole-month
// duration, day clamped to the target month's length.
func EndDate(start date.Date, months int) date.Date {
	return start.AddMonths(months)
}

// DueDate returns the due date of the given 1-based period: start plus
// that many months.
func DueDate(start date.Date, period int) date.Date {
	return start.AddMonths(period)
}

// MonthlyInterest returns the flat interest amount for one period:
// principal × ratePercent / 100, rounded half away from zero to whole
// currency units. Schedule, ledger and stats all compute interest
// through this single function so their totals agree.
func MonthlyInterest(principal int64, ratePercent float64) int64 {
	return percentOf(principal, ratePercent)
}

// BonusFee returns the one-time bonus fee: principal × ratePercent /
// 100, rounded the same way as interest.
func BonusFee(principal int64, ratePercent float64) int64 {
	return percentOf(principal, ratePercent)
}

// CurrentPeriod returns the 1-based period the investment is accruing
// as of today: whole elapsed months since start, plus one, never less
// than one. A just-started investment is in period 1 until its first
// due date passes.
func CurrentPeriod(start, today date.Date) int {
	months := wholeMonthsBetween(start, today)
	if months < 0 {
		months = 0
	}
	return months + 1
}

// wholeMonthsBetween returns the largest n such that a.AddMonths(n)
// does not fall after b. Negative when b precedes a.
func wholeMonthsBetween(a, b date.Date) int {
	n := (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
	if a.AddMonths(n).After(b) {
		n--
	}
	return n
}

// MonthlyInterest returns the investment's flat per-period interest.
func (inv Investment) MonthlyInterest() int64 {
	return MonthlyInterest(inv.Principal, inv.MonthlyRate)
}

// BonusAmount returns the investment's one-time bonus fee.
func (inv Investment) BonusAmount() int64 {
	return BonusFee(inv.Principal, inv.BonusRate)
}

// DueDate returns the due date of the given 1-based period.
func (inv Investment) DueDate(period int) date.Date {
	return DueDate(inv.Start, period)
}

// DueDates returns all due dates in order, one per period.
func (inv Investment) DueDates() []date.Date {
	dues := make([]date.Date, 0, inv.DurationMonths)
	for period := 1; period <= inv.DurationMonths; period++ {
		dues = append(dues, inv.DueDate(period))
	}
	return dues
}

// CurrentPeriod returns the 1-based period the investment is accruing
// as of today.
func (inv Investment) CurrentPeriod(today date.Date) int {
	return CurrentPeriod(inv.Start, today)
}

// CollectedInterest returns the interest received so far: the flat
// monthly amount times the number of paid periods.
func (inv Investment) CollectedInterest() int64 {
	return inv.MonthlyInterest() * int64(inv.PaidCount())
}
