package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"lendbook/internal/core"
	"lendbook/internal/exchange"
)

// exportSeed builds a service holding one investment and returns its
// exported tabular form.
func exportSeed(t *testing.T) (*LedgerService, core.Investment, []string, [][]string) {
	t.Helper()
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, testInvestment())
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	header, rows, err := svc.ExportTable(ctx)
	if err != nil {
		t.Fatalf("ExportTable() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("ExportTable() = %d rows, want 1", len(rows))
	}
	return svc, created, header, rows
}

func TestLedgerService_ImportTable_Skip(t *testing.T) {
	svc, created, header, rows := exportSeed(t)
	ctx := context.Background()

	res, err := svc.ImportTable(ctx, header, rows, core.MergeSkip)
	if err != nil {
		t.Fatalf("ImportTable() error = %v", err)
	}
	if res.Candidates != 1 || res.Conflicts != 1 || res.Total != 1 {
		t.Errorf("ImportTable() = %d/%d/%d, want candidates 1, conflicts 1, total 1",
			res.Candidates, res.Conflicts, res.Total)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Principal != 500000 {
		t.Errorf("Get() principal = %d, want the existing record untouched", got.Principal)
	}
}

func TestLedgerService_ImportTable_Overwrite(t *testing.T) {
	svc, created, header, rows := exportSeed(t)
	ctx := context.Background()

	principalCol := -1
	for i, name := range header {
		if name == "Principal" {
			principalCol = i
		}
	}
	if principalCol < 0 {
		t.Fatalf("header %v has no Principal column", header)
	}
	rows[0][principalCol] = "600000"

	res, err := svc.ImportTable(ctx, header, rows, core.MergeOverwrite)
	if err != nil {
		t.Fatalf("ImportTable() error = %v", err)
	}
	if res.Conflicts != 1 || res.Total != 1 {
		t.Errorf("ImportTable() = conflicts %d, total %d, want 1 and 1", res.Conflicts, res.Total)
	}

	got, err := svc.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Principal != 600000 {
		t.Errorf("Get() principal = %d, want 600000 after overwrite", got.Principal)
	}
	if got.Order != created.Order {
		t.Errorf("Get() order = %d, want %d preserved through overwrite", got.Order, created.Order)
	}
}

func TestLedgerService_ImportTable_Clone(t *testing.T) {
	svc, created, header, rows := exportSeed(t)
	ctx := context.Background()

	res, err := svc.ImportTable(ctx, header, rows, core.MergeClone)
	if err != nil {
		t.Fatalf("ImportTable() error = %v", err)
	}
	if res.Total != 2 {
		t.Fatalf("ImportTable() total = %d, want 2", res.Total)
	}
	twin := res.Investments[1]
	if twin.ID == created.ID {
		t.Error("ImportTable() clone should mint a fresh id")
	}
	if twin.Order != 1 {
		t.Errorf("ImportTable() clone order = %d, want 1", twin.Order)
	}
	if twin.Source != "ACME" || twin.Principal != 500000 {
		t.Errorf("ImportTable() clone = %s/%d, want content carried over", twin.Source, twin.Principal)
	}
}

func TestLedgerService_ImportTable_Invalid(t *testing.T) {
	svc, _, header, rows := exportSeed(t)
	ctx := context.Background()

	if _, err := svc.ImportTable(ctx, header, rows, core.MergeStrategy("bogus")); !errors.Is(err, core.ErrInvalidStrategy) {
		t.Errorf("ImportTable() error = %v, want %v", err, core.ErrInvalidStrategy)
	}

	empty := [][]string{{"", "", ""}}
	if _, err := svc.ImportTable(ctx, header, empty, core.MergeSkip); !errors.Is(err, core.ErrNoValidData) {
		t.Errorf("ImportTable() error = %v, want %v", err, core.ErrNoValidData)
	}
}

func TestLedgerService_ImportDocument(t *testing.T) {
	svc, created, _, _ := exportSeed(t)
	ctx := context.Background()

	doc, err := svc.ExportDocument(ctx)
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	doc.Settings.RateColors["1.2"] = "#fef3c7"
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	res, err := svc.ImportDocument(ctx, data, core.MergeSkip)
	if err != nil {
		t.Fatalf("ImportDocument() error = %v", err)
	}
	if res.Conflicts != 1 || res.Total != 1 {
		t.Errorf("ImportDocument() = conflicts %d, total %d, want 1 and 1", res.Conflicts, res.Total)
	}

	settings, err := svc.Settings(ctx)
	if err != nil {
		t.Fatalf("Settings() error = %v", err)
	}
	if settings.RateColors["1.2"] != "#fef3c7" {
		t.Errorf("Settings() rate colors = %v, want the document's mapping", settings.RateColors)
	}
	if len(settings.Sources) == 0 || settings.Sources[0] != "ACME" {
		t.Errorf("Settings() sources = %v, want names re-remembered from the merge", settings.Sources)
	}

	if _, err := svc.Get(ctx, created.ID); err != nil {
		t.Errorf("Get() after import error = %v", err)
	}
}

func TestLedgerService_ImportDocument_BareArray(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	inv := testInvestment()
	inv.ID = "doc-1"
	data, err := json.Marshal([]core.Investment{inv})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	res, err := svc.ImportDocument(ctx, data, core.MergeSkip)
	if err != nil {
		t.Fatalf("ImportDocument() error = %v", err)
	}
	if res.Candidates != 1 || res.Conflicts != 0 || res.Total != 1 {
		t.Errorf("ImportDocument() = %d/%d/%d, want candidates 1, conflicts 0, total 1",
			res.Candidates, res.Conflicts, res.Total)
	}
}

func TestLedgerService_ImportDocument_Invalid(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.ImportDocument(ctx, []byte("{broken"), core.MergeSkip); err == nil {
		t.Error("ImportDocument() with malformed JSON should fail")
	}
	if _, err := svc.ImportDocument(ctx, []byte("[]"), core.MergeSkip); !errors.Is(err, core.ErrNoValidData) {
		t.Errorf("ImportDocument() empty error = %v, want %v", err, core.ErrNoValidData)
	}
}

func TestLedgerService_ExportDocument(t *testing.T) {
	svc, created, _, _ := exportSeed(t)

	doc, err := svc.ExportDocument(context.Background())
	if err != nil {
		t.Fatalf("ExportDocument() error = %v", err)
	}
	if doc.Version != exchange.DocumentVersion {
		t.Errorf("ExportDocument() version = %d, want %d", doc.Version, exchange.DocumentVersion)
	}
	if len(doc.Investments) != 1 || doc.Investments[0].ID != created.ID {
		t.Errorf("ExportDocument() investments = %v, want the stored record", doc.Investments)
	}
	if doc.Settings == nil || doc.Settings.Sources == nil {
		t.Error("ExportDocument() settings should be present and normalized")
	}
}
