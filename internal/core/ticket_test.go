package core

import (
	"strings"
	"testing"

	"lendbook/internal/date"
)

func TestTicketString(t *testing.T) {
	end := date.MustParse("2025-07-15")
	tests := []struct {
		name   string
		owner  string
		amount int64
		rate   float64
		want   string
	}{
		{"worked example", "ABC", 500000, 1.2, "1140715-ABC50(1.2%)"},
		{"whole rate has no decimals", "XYZ", 1000000, 1.0, "1140715-XYZ100(1%)"},
		{"amount rounds to nearest ten-thousand", "ABC", 504999, 1.2, "1140715-ABC50(1.2%)"},
		{"amount rounds up", "ABC", 505000, 1.2, "1140715-ABC51(1.2%)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := TicketString(end, tt.owner, tt.amount, tt.rate); got != tt.want {
				t.Errorf("TicketString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUniqueTicketAppendsSuffix(t *testing.T) {
	base := "1140715-ABC50(1.2%)"
	existing := []Investment{{ID: "other", Ticket: base}}

	got := UniqueTicket(base, existing, "self")
	if want := base + "A"; got != want {
		t.Errorf("UniqueTicket() = %q, want %q", got, want)
	}
}

func TestUniqueTicketSkipsOwnRecord(t *testing.T) {
	base := "1140715-ABC50(1.2%)"
	existing := []Investment{{ID: "self", Ticket: base}}

	if got := UniqueTicket(base, existing, "self"); got != base {
		t.Errorf("UniqueTicket() = %q, want the base unchanged", got)
	}
}

func TestUniqueTicketChecksFunderTickets(t *testing.T) {
	base := "1140715-ABC50(1.2%)"
	existing := []Investment{{
		ID:     "other",
		Ticket: "1140715-XYZ100(1%)",
		Funders: []Funder{
			{ID: "f1", Name: "ABC", Amount: 500000, Ticket: base},
		},
	}}

	if got := UniqueTicket(base, existing, "self"); got != base+"A" {
		t.Errorf("UniqueTicket() = %q, want %q", got, base+"A")
	}
}

func TestUniqueTicketSuffixSequence(t *testing.T) {
	base := "T"
	taken := []Investment{{ID: "i0", Ticket: base}}
	for i := 0; i < 27; i++ {
		taken = append(taken, Investment{ID: "x", Ticket: base + alphaSuffix(i)})
	}
	// base, A..Z and AA are all taken; the next free suffix is AB.
	if got := UniqueTicket(base, taken, "self"); got != "TAB" {
		t.Errorf("UniqueTicket() = %q, want TAB", got)
	}
}

func TestAlphaSuffix(t *testing.T) {
	tests := []struct {
		n    int
		want string
	}{
		{0, "A"}, {1, "B"}, {25, "Z"}, {26, "AA"}, {27, "AB"}, {51, "AZ"}, {52, "BA"}, {701, "ZZ"}, {702, "AAA"},
	}
	for _, tt := range tests {
		if got := alphaSuffix(tt.n); got != tt.want {
			t.Errorf("alphaSuffix(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

// UniqueTicket must never hand out a ticket already held by another
// record, whatever it was checked against.
func TestUniqueTicketNeverCollides(t *testing.T) {
	base := "1140715-ABC50(1.2%)"
	existing := make([]Investment, 0, 40)
	existing = append(existing, Investment{ID: "i", Ticket: base})
	for i := 0; i < 30; i++ {
		existing = append(existing, Investment{ID: "x", Ticket: base + alphaSuffix(i)})
	}
	got := UniqueTicket(base, existing, "self")
	for _, inv := range existing {
		if inv.Ticket == got {
			t.Fatalf("UniqueTicket() = %q collides with an existing ticket", got)
		}
	}
}

func TestRefreshTickets(t *testing.T) {
	inv := Investment{
		ID:             "inv-1",
		Source:         "ABC",
		Principal:      500000,
		MonthlyRate:    1.2,
		Start:          date.MustParse("2025-01-15"),
		DurationMonths: 6,
		Funders: []Funder{
			{ID: "f1", Name: "Amy", Amount: 200000},
			{ID: "f2", Name: "Ben", Amount: 300000},
		},
	}
	got := RefreshTickets(inv, nil)

	if want := "1140715-ABC50(1.2%)"; got.Ticket != want {
		t.Errorf("master ticket = %q, want %q", got.Ticket, want)
	}
	if want := "1140715-Amy20(1.2%)"; got.Funders[0].Ticket != want {
		t.Errorf("funder ticket = %q, want %q", got.Funders[0].Ticket, want)
	}
	if want := "1140715-Ben30(1.2%)"; got.Funders[1].Ticket != want {
		t.Errorf("funder ticket = %q, want %q", got.Funders[1].Ticket, want)
	}
	if len(inv.Funders) > 0 && inv.Funders[0].Ticket != "" {
		t.Error("input investment must not be mutated")
	}
}

func TestRefreshTicketsDeduplicatesTwins(t *testing.T) {
	// Two funders with the same name and amount collide with each other
	// inside one investment; the second one has to pick up a suffix.
	inv := Investment{
		ID:             "inv-1",
		Source:         "ABC",
		Principal:      400000,
		MonthlyRate:    1.2,
		Start:          date.MustParse("2025-01-15"),
		DurationMonths: 6,
		Funders: []Funder{
			{ID: "f1", Name: "Amy", Amount: 200000},
			{ID: "f2", Name: "Amy", Amount: 200000},
		},
	}
	got := RefreshTickets(inv, nil)

	first := got.Funders[0].Ticket
	second := got.Funders[1].Ticket
	if first == second {
		t.Fatalf("twin funders share ticket %q", first)
	}
	if !strings.HasPrefix(second, first) {
		t.Errorf("second ticket %q should be the first %q plus a suffix", second, first)
	}
}

func TestRefreshTicketsAgainstCollection(t *testing.T) {
	existing := []Investment{{
		ID:     "other",
		Ticket: "1140715-ABC50(1.2%)",
	}}
	inv := Investment{
		ID:             "inv-1",
		Source:         "ABC",
		Principal:      500000,
		MonthlyRate:    1.2,
		Start:          date.MustParse("2025-01-15"),
		DurationMonths: 6,
	}
	got := RefreshTickets(inv, existing)
	if want := "1140715-ABC50(1.2%)A"; got.Ticket != want {
		t.Errorf("master ticket = %q, want %q", got.Ticket, want)
	}
}

func TestRefreshTicketsHonorsOverride(t *testing.T) {
	inv := Investment{
		ID:             "inv-1",
		Source:         "ABC",
		Principal:      500000,
		MonthlyRate:    1.2,
		Start:          date.MustParse("2025-01-15"),
		DurationMonths: 6,
		Ticket:         "my custom handle",
		TicketOverride: true,
		Funders: []Funder{
			{ID: "f1", Name: "Amy", Amount: 500000},
		},
	}
	got := RefreshTickets(inv, nil)
	if got.Ticket != "my custom handle" {
		t.Errorf("overridden ticket = %q, want it untouched", got.Ticket)
	}
	if got.Funders[0].Ticket == "" {
		t.Error("funder tickets must still refresh under a master override")
	}
}

func TestTicketSummary(t *testing.T) {
	inv := Investment{Ticket: "master"}
	if got := inv.TicketSummary(); got != "master" {
		t.Errorf("TicketSummary() = %q, want master", got)
	}
	inv.Funders = []Funder{{Ticket: "a"}, {Ticket: "b"}}
	if got := inv.TicketSummary(); got != "a,b" {
		t.Errorf("TicketSummary() = %q, want a,b", got)
	}
}
