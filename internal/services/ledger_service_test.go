package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"lendbook/internal/core"
	"lendbook/internal/date"
	"lendbook/internal/storage"
)

func newTestService(t *testing.T) *LedgerService {
	t.Helper()
	svc := NewLedgerService(storage.NewMemoryRepository(), nil)
	svc.today = func() date.Date { return date.New(2025, time.September, 20) }
	return svc
}

func testInvestment() core.Investment {
	return core.Investment{
		Source:         "ACME",
		Principal:      500000,
		MonthlyRate:    1.2,
		BonusRate:      0.5,
		Start:          date.New(2025, time.July, 15),
		DurationMonths: 6,
	}
}

func TestLedgerService_Create(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInvestment())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if created.ID == "" {
		t.Error("Create() should assign an id")
	}
	if created.Order != 0 {
		t.Errorf("Create() order = %d, want 0", created.Order)
	}
	if created.Status != core.StatusActive {
		t.Errorf("Create() status = %q, want %q", created.Status, core.StatusActive)
	}
	if got, want := created.End, date.New(2026, time.January, 15); got != want {
		t.Errorf("Create() end = %v, want %v", got, want)
	}
	if got, want := created.Ticket, "1150115-ACME50(1.2%)"; got != want {
		t.Errorf("Create() ticket = %q, want %q", got, want)
	}

	second := testInvestment()
	second.Source = "Globex"
	if created, err = svc.Create(ctx, second); err != nil {
		t.Fatalf("Create() second error = %v", err)
	}
	if created.Order != 1 {
		t.Errorf("Create() second order = %d, want 1", created.Order)
	}

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if len(settings.Sources) != 2 || settings.Sources[0] != "ACME" || settings.Sources[1] != "Globex" {
		t.Errorf("Settings() sources = %v, want [ACME Globex]", settings.Sources)
	}
}

func TestLedgerService_Create_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		mutate  func(inv *core.Investment)
		wantErr error
	}{
		{"empty source", func(inv *core.Investment) { inv.Source = "  " }, core.ErrEmptySource},
		{"zero principal", func(inv *core.Investment) { inv.Principal = 0 }, core.ErrInvalidPrincipal},
		{"negative rate", func(inv *core.Investment) { inv.MonthlyRate = -1 }, core.ErrInvalidRate},
		{"missing start", func(inv *core.Investment) { inv.Start = date.Date{} }, core.ErrMissingStart},
		{"zero duration", func(inv *core.Investment) { inv.DurationMonths = 0 }, core.ErrInvalidDuration},
		{
			"funder mismatch",
			func(inv *core.Investment) {
				inv.Funders = []core.Funder{{Name: "Amy", Amount: 100}}
			},
			core.ErrFunderMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := testInvestment()
			tt.mutate(&inv)
			if _, err := svc.Create(ctx, inv); !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if list, err := svc.List(ctx); err != nil || len(list) != 0 {
		t.Errorf("List() after rejected creates = %v investments, %v; want none", len(list), err)
	}
}

func TestLedgerService_Get(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInvestment())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != created.ID || got.Source != "ACME" {
		t.Errorf("Get() = %+v, want the created investment", got)
	}

	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Get() error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestLedgerService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInvestment())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.MarkPaid(ctx, created.ID, 1, true, ""); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}

	t.Run("rate change refreshes ticket and keeps payments", func(t *testing.T) {
		upd := created
		upd.MonthlyRate = 1.5
		upd.Order = 99

		got, err := svc.Update(ctx, upd)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if want := "1150115-ACME50(1.5%)"; got.Ticket != want {
			t.Errorf("Update() ticket = %q, want %q", got.Ticket, want)
		}
		if got.Order != created.Order {
			t.Errorf("Update() order = %d, want %d", got.Order, created.Order)
		}
		if !got.Payments[1].Paid {
			t.Error("Update() should preserve the stored payment history")
		}
	})

	t.Run("manual ticket edit becomes an override", func(t *testing.T) {
		stored, err := svc.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		stored.Ticket = "CUSTOM-1"

		got, err := svc.Update(ctx, stored)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Ticket != "CUSTOM-1" || !got.TicketOverride {
			t.Errorf("Update() ticket = %q override = %v, want CUSTOM-1 with override", got.Ticket, got.TicketOverride)
		}
	})

	t.Run("note edit keeps the ticket", func(t *testing.T) {
		stored, err := svc.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		stored.Note = "rolls over in january"

		got, err := svc.Update(ctx, stored)
		if err != nil {
			t.Fatalf("Update() error = %v", err)
		}
		if got.Ticket != "CUSTOM-1" || !got.TicketOverride {
			t.Errorf("Update() ticket = %q override = %v, want override untouched", got.Ticket, got.TicketOverride)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		missing := testInvestment()
		missing.ID = "missing"
		if _, err := svc.Update(ctx, missing); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Update() error = %v, want %v", err, core.ErrNotFound)
		}
	})
}

func TestLedgerService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInvestment())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	list, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 0 {
		t.Errorf("List() after delete = %d investments, want 0", len(list))
	}

	if err := svc.Delete(ctx, created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Delete() again error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestLedgerService_Renew(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	inv := testInvestment()
	inv.Funders = []core.Funder{
		{Name: "Amy", Amount: 200000},
		{Name: "Ben", Amount: 300000},
	}
	created, err := svc.Create(ctx, inv)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.MarkPaid(ctx, created.ID, 1, true, ""); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}
	if _, err := svc.MarkBonusPaid(ctx, created.ID, true); err != nil {
		t.Fatalf("MarkBonusPaid() error = %v", err)
	}

	renewed, err := svc.Renew(ctx, created.ID)
	if err != nil {
		t.Fatalf("Renew() error = %v", err)
	}

	if renewed.ID == created.ID {
		t.Error("Renew() should mint a fresh id")
	}
	if got, want := renewed.Start, date.New(2026, time.January, 15); got != want {
		t.Errorf("Renew() start = %v, want %v", got, want)
	}
	if got, want := renewed.End, date.New(2026, time.July, 15); got != want {
		t.Errorf("Renew() end = %v, want %v", got, want)
	}
	if renewed.PaidCount() != 0 {
		t.Errorf("Renew() paid count = %d, want 0", renewed.PaidCount())
	}
	if renewed.BonusPaid || !renewed.BonusPaidDate.IsZero() {
		t.Errorf("Renew() bonus state = %v/%v, want cleared", renewed.BonusPaid, renewed.BonusPaidDate)
	}
	if renewed.Status != core.StatusActive {
		t.Errorf("Renew() status = %q, want %q", renewed.Status, core.StatusActive)
	}
	if renewed.Order != 1 {
		t.Errorf("Renew() order = %d, want 1", renewed.Order)
	}
	if got, want := renewed.Ticket, "1150715-ACME50(1.2%)"; got != want {
		t.Errorf("Renew() ticket = %q, want %q", got, want)
	}
	if got, want := renewed.Funders[0].Ticket, "1150715-Amy20(1.2%)"; got != want {
		t.Errorf("Renew() funder ticket = %q, want %q", got, want)
	}
	if renewed.Funders[0].ID == created.Funders[0].ID {
		t.Error("Renew() should mint fresh funder ids")
	}

	old, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if old.Status != core.StatusRenewed {
		t.Errorf("original status after renew = %q, want %q", old.Status, core.StatusRenewed)
	}
	if !old.Payments[1].Paid {
		t.Error("original payment history should survive the renewal")
	}
}

func TestLedgerService_Copy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInvestment())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.MarkPaid(ctx, created.ID, 2, true, "cash"); err != nil {
		t.Fatalf("MarkPaid() error = %v", err)
	}

	dup, err := svc.Copy(ctx, created.ID)
	if err != nil {
		t.Fatalf("Copy() error = %v", err)
	}

	if dup.ID == created.ID {
		t.Error("Copy() should mint a fresh id")
	}
	if dup.PaidCount() != 1 || dup.Payments[2].Note != "cash" {
		t.Errorf("Copy() payments = %+v, want history carried over", dup.Payments)
	}
	if dup.Order != 1 {
		t.Errorf("Copy() order = %d, want 1", dup.Order)
	}
	if got, want := dup.Ticket, "1150115-ACME50(1.2%)A"; got != want {
		t.Errorf("Copy() ticket = %q, want %q", got, want)
	}

	if _, err := svc.Copy(ctx, "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("Copy() error = %v, want %v", err, core.ErrNotFound)
	}
}

func TestLedgerService_Reorder(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	ids := make(map[string]string)
	for _, source := range []string{"Alpha", "Beta", "Gamma"} {
		inv := testInvestment()
		inv.Source = source
		created, err := svc.Create(ctx, inv)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", source, err)
		}
		ids[source] = created.ID
	}

	got, err := svc.Reorder(ctx, []string{ids["Gamma"], ids["Alpha"]})
	if err != nil {
		t.Fatalf("Reorder() error = %v", err)
	}

	wantSources := []string{"Gamma", "Alpha", "Beta"}
	if len(got) != len(wantSources) {
		t.Fatalf("Reorder() returned %d investments, want %d", len(got), len(wantSources))
	}
	for i, want := range wantSources {
		if got[i].Source != want {
			t.Errorf("Reorder()[%d] = %q, want %q", i, got[i].Source, want)
		}
		if got[i].Order != i {
			t.Errorf("Reorder()[%d] order = %d, want %d", i, got[i].Order, i)
		}
	}
}

func TestLedgerService_UpdateSettings(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	updated, err := svc.UpdateSettings(ctx, core.Settings{
		RateColors: map[string]string{"1.2": "#e0f2fe"},
	})
	if err != nil {
		t.Fatalf("UpdateSettings() error = %v", err)
	}
	if updated.Sources == nil || updated.FunderNames == nil {
		t.Error("UpdateSettings() should normalize nil collections")
	}

	got, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if got.RateColors["1.2"] != "#e0f2fe" {
		t.Errorf("Settings() rate colors = %v, want the stored mapping", got.RateColors)
	}
}

func TestLedgerService_Close(t *testing.T) {
	t.Run("nil components", func(t *testing.T) {
		svc := &LedgerService{}
		if err := svc.Close(); err != nil {
			t.Fatalf("Close() error = %v, want nil", err)
		}
	})

	t.Run("memory store", func(t *testing.T) {
		svc := NewLedgerService(storage.NewMemoryRepository(), nil)
		if err := svc.Close(); err != nil {
			t.Fatalf("Close() error = %v, want nil", err)
		}
	})
}
