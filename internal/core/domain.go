// Package core implements the ledger engine: the investment domain
// model, the amortization schedule, ticket generation, the monthly
// ledger aggregation, portfolio statistics, and the import-merge
// resolver. Everything in this package is pure: functions take a
// snapshot of the collection and return new values, never mutating
// their inputs and never touching I/O.
package core

import (
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"lendbook/internal/date"
)

// Status is the lifecycle state of an investment.
type Status string

const (
	StatusActive     Status = "active"
	StatusRenewed    Status = "renewed"
	StatusReturned   Status = "returned"
	StatusReinvested Status = "reinvested"
	StatusDefaulted  Status = "defaulted"
)

// Valid reports whether s is one of the known lifecycle states.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusRenewed, StatusReturned, StatusReinvested, StatusDefaulted:
		return true
	}
	return false
}

type (
	// Investment is a single fixed-term lending position. Principal is
	// in whole currency units; MonthlyRate and BonusRate are percent
	// values. End is derived from Start and DurationMonths and is
	// recomputed by Normalized on every write.
	Investment struct {
		ID             string                `json:"id"`
		Source         string                `json:"source"`
		Principal      int64                 `json:"principal"`
		MonthlyRate    float64               `json:"monthlyRate"`
		BonusRate      float64               `json:"bonusRate"`
		BonusPaid      bool                  `json:"bonusPaid"`
		BonusPaidDate  date.Date             `json:"bonusPaidDate"`
		Start          date.Date             `json:"startDate"`
		DurationMonths int                   `json:"durationMonths"`
		End            date.Date             `json:"endDate"`
		Ticket         string                `json:"ticket"`
		TicketOverride bool                  `json:"ticketOverride"`
		Status         Status                `json:"status"`
		Payments       map[int]PaymentRecord `json:"payments"`
		Funders        []Funder              `json:"funders"`
		Order          int                   `json:"order"`
		Note           string                `json:"note"`
	}

	// Funder is one contributor to an investment's principal.
	Funder struct {
		ID     string `json:"id"`
		Name   string `json:"name"`
		Amount int64  `json:"amount"`
		Ticket string `json:"ticket"`
	}

	// PaymentRecord tracks the receipt of one period's interest.
	PaymentRecord struct {
		Paid     bool      `json:"paid"`
		PaidDate date.Date `json:"paidDate"`
		Note     string    `json:"note"`
	}
)

var (
	ErrNotFound         = errors.New("investment not found")
	ErrEmptySource      = errors.New("empty source name")
	ErrInvalidPrincipal = errors.New("principal must be positive")
	ErrInvalidRate      = errors.New("monthly rate must not be negative")
	ErrInvalidBonusRate = errors.New("bonus-fee rate must not be negative")
	ErrInvalidDuration  = errors.New("duration must be at least one month")
	ErrMissingStart     = errors.New("missing start date")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrFunderMismatch   = errors.New("funder amounts do not sum to principal")
	ErrInvalidPeriod    = errors.New("period index out of range")
	ErrNoValidData      = errors.New("no valid data")
)

// NewID returns a fresh opaque identifier for investments and funders.
func NewID() string {
	return uuid.NewString()
}

// Validate checks the invariants that must hold before an investment is
// written: non-empty source, positive principal, non-negative rates, a
// real start date, a duration of at least one month, a known status,
// and funder amounts that sum to the principal when funders exist.
func (inv Investment) Validate() error {
	if strings.TrimSpace(inv.Source) == "" {
		return ErrEmptySource
	}
	if inv.Principal <= 0 {
		return ErrInvalidPrincipal
	}
	if inv.MonthlyRate < 0 {
		return ErrInvalidRate
	}
	if inv.BonusRate < 0 {
		return ErrInvalidBonusRate
	}
	if inv.Start.IsZero() {
		return ErrMissingStart
	}
	if inv.DurationMonths < 1 {
		return ErrInvalidDuration
	}
	if !inv.Status.Valid() {
		return ErrInvalidStatus
	}
	if len(inv.Funders) > 0 && inv.FunderTotal() != inv.Principal {
		return ErrFunderMismatch
	}
	return nil
}

// FunderTotal returns the sum of all funder amounts.
func (inv Investment) FunderTotal() int64 {
	var total int64
	for _, f := range inv.Funders {
		total += f.Amount
	}
	return total
}

// Normalized returns a copy with derived and bounded fields enforced:
// the end date recomputed from start and duration, payment-history keys
// outside [1, duration] dropped, untouched payment records pruned, and
// an empty status defaulted to active.
func (inv Investment) Normalized() Investment {
	out := inv.Clone()
	out.Source = strings.TrimSpace(out.Source)
	if out.Status == "" {
		out.Status = StatusActive
	}
	if !out.Start.IsZero() && out.DurationMonths > 0 {
		out.End = out.Start.AddMonths(out.DurationMonths)
	}
	for period, rec := range out.Payments {
		if period < 1 || period > out.DurationMonths {
			delete(out.Payments, period)
			continue
		}
		if !rec.Paid && rec.PaidDate.IsZero() && rec.Note == "" {
			delete(out.Payments, period)
		}
	}
	return out
}

// Clone returns a deep copy sharing no mutable state with the
// original. Identifiers are preserved.
func (inv Investment) Clone() Investment {
	out := inv
	out.Payments = make(map[int]PaymentRecord, len(inv.Payments))
	for period, rec := range inv.Payments {
		out.Payments[period] = rec
	}
	if inv.Funders != nil {
		out.Funders = make([]Funder, len(inv.Funders))
		copy(out.Funders, inv.Funders)
	}
	return out
}

// WithFreshIDs returns a deep copy carrying a brand-new identifier for
// the investment and for every funder.
func (inv Investment) WithFreshIDs() Investment {
	out := inv.Clone()
	out.ID = NewID()
	for i := range out.Funders {
		out.Funders[i].ID = NewID()
	}
	return out
}

// WithPayment returns a copy with the given period's record updated.
// When paid flips true and no paid date was ever recorded, the record
// is stamped with today; an already-recorded date is never overwritten.
func (inv Investment) WithPayment(period int, paid bool, note string, today date.Date) (Investment, error) {
	if period < 1 || period > inv.DurationMonths {
		return Investment{}, ErrInvalidPeriod
	}
	out := inv.Clone()
	rec := out.Payments[period]
	rec.Paid = paid
	if paid && rec.PaidDate.IsZero() {
		rec.PaidDate = today
	}
	rec.Note = note
	out.Payments[period] = rec
	return out, nil
}

// PaidCount returns how many periods have been marked paid.
func (inv Investment) PaidCount() int {
	count := 0
	for _, rec := range inv.Payments {
		if rec.Paid {
			count++
		}
	}
	return count
}

// MaxOrder returns the highest sort-order value in the collection, or
// -1 when it is empty, so that the next appended record always gets
// MaxOrder+1.
func MaxOrder(investments []Investment) int {
	max := -1
	for _, inv := range investments {
		if inv.Order > max {
			max = inv.Order
		}
	}
	return max
}

// FindByID returns the investment with the given id.
func FindByID(investments []Investment, id string) (Investment, bool) {
	for _, inv := range investments {
		if inv.ID == id {
			return inv, true
		}
	}
	return Investment{}, false
}

// SortedByOrder returns a copy of the collection sorted by the manual
// sort-order field, ascending. Ties keep their relative position.
func SortedByOrder(investments []Investment) []Investment {
	out := make([]Investment, len(investments))
	copy(out, investments)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}

// Renumber returns a copy of the collection with contiguous order
// values 0..n-1 assigned following the given id sequence. Ids not
// present in the sequence keep their relative order after the listed
// ones; unknown ids are ignored.
func Renumber(investments []Investment, ids []string) []Investment {
	index := make(map[string]int, len(ids))
	for i, id := range ids {
		index[id] = i
	}
	listed := make([]Investment, 0, len(investments))
	rest := make([]Investment, 0)
	for _, inv := range SortedByOrder(investments) {
		if _, ok := index[inv.ID]; ok {
			listed = append(listed, inv)
		} else {
			rest = append(rest, inv)
		}
	}
	sort.SliceStable(listed, func(i, j int) bool { return index[listed[i].ID] < index[listed[j].ID] })
	out := make([]Investment, 0, len(investments))
	next := 0
	for _, inv := range append(listed, rest...) {
		c := inv.Clone()
		c.Order = next
		next++
		out = append(out, c)
	}
	return out
}
