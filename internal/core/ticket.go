// Ticket generation and uniqueness resolution. A ticket is the
// human-readable handle of a position: compact ROC maturity date, dash,
// name, amount in ten-thousands, rate in parentheses, e.g.
// "1140715-ABC50(1.2%)". Tickets are display conventions, not parseable
// contracts, but they must stay unique across the whole collection.

package core

import (
	"fmt"
	"strconv"
	"strings"

	"lendbook/internal/date"
	"lendbook/internal/roc"
)

// FormatRate renders a percent rate with the fewest digits that
// represent it exactly: 1.2 -> "1.2", 1 -> "1".
func FormatRate(ratePercent float64) string {
	return strconv.FormatFloat(ratePercent, 'f', -1, 64)
}

// TicketString builds the base ticket for a name and amount maturing at
// end with the given monthly rate.
func TicketString(end date.Date, name string, amount int64, ratePercent float64) string {
	return fmt.Sprintf("%s-%s%d(%s%%)", roc.FormatCompact(end), name, TenThousands(amount), FormatRate(ratePercent))
}

// UniqueTicket returns base, suffixed with "A", "B", ..., "Z", "AA",
// ... as needed until it collides with no other record's ticket. A
// record is any investment or funder in the collection; the record
// whose own id equals excludeID is not counted against itself. The
// collection is finite, so the search always terminates.
func UniqueTicket(base string, investments []Investment, excludeID string) string {
	if base == "" {
		return ""
	}
	taken := make(map[string]struct{})
	for _, inv := range investments {
		if inv.ID != excludeID && inv.Ticket != "" {
			taken[inv.Ticket] = struct{}{}
		}
		for _, f := range inv.Funders {
			if f.ID != excludeID && f.Ticket != "" {
				taken[f.Ticket] = struct{}{}
			}
		}
	}
	candidate := base
	for i := 0; ; i++ {
		if _, ok := taken[candidate]; !ok {
			return candidate
		}
		candidate = base + alphaSuffix(i)
	}
}

// alphaSuffix returns the n-th (0-based) suffix in the sequence A, B,
// ..., Z, AA, AB, ... (bijective base 26).
func alphaSuffix(n int) string {
	var b strings.Builder
	n++
	for n > 0 {
		n--
		b.WriteByte(byte('A' + n%26))
		n /= 26
	}
	// digits were produced least-significant first
	s := []byte(b.String())
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return string(s)
}

// RefreshTickets recomputes every ticket on the investment against the
// rest of the collection: funder tickets first, each from its own name
// and amount, then the master ticket from the source name and total
// principal, all sharing the end date and rate. The master ticket is
// left alone while a manual override is in effect. Call this after any
// change to start date, duration, source, principal, rate, or the
// funder list; it is idempotent.
func RefreshTickets(inv Investment, existing []Investment) Investment {
	out := inv.Clone()
	if !out.Start.IsZero() && out.DurationMonths > 0 {
		out.End = out.Start.AddMonths(out.DurationMonths)
	}
	others := make([]Investment, 0, len(existing))
	for _, e := range existing {
		if e.ID != out.ID {
			others = append(others, e)
		}
	}
	for i := range out.Funders {
		f := out.Funders[i]
		base := TicketString(out.End, f.Name, f.Amount, out.MonthlyRate)
		out.Funders[i].Ticket = UniqueTicket(base, append(others, out), f.ID)
	}
	if !out.TicketOverride {
		base := TicketString(out.End, out.Source, out.Principal, out.MonthlyRate)
		out.Ticket = UniqueTicket(base, append(others, out), out.ID)
	}
	return out
}

// TicketSummary returns the comma-joined funder tickets, or the master
// ticket when the investment has no funders.
func (inv Investment) TicketSummary() string {
	if len(inv.Funders) == 0 {
		return inv.Ticket
	}
	tickets := make([]string, 0, len(inv.Funders))
	for _, f := range inv.Funders {
		tickets = append(tickets, f.Ticket)
	}
	return strings.Join(tickets, ",")
}
