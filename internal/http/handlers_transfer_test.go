package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"lendbook/internal/core"
	"lendbook/internal/exchange"
	"lendbook/internal/services"
)

func TestSettingsRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/settings", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/settings status = %d, want 200", rr.Code)
	}
	settings := decodeData[core.Settings](t, rr)
	if len(settings.Sources) != 0 || len(settings.FunderNames) != 0 {
		t.Fatalf("fresh settings = %+v, want empty lists", settings)
	}

	// Creating a record folds its source into the suggestion list.
	rr = doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/settings", nil)
	settings = decodeData[core.Settings](t, rr)
	if len(settings.Sources) != 1 || settings.Sources[0] != "ACME" {
		t.Errorf("sources after create = %v, want [ACME]", settings.Sources)
	}

	rr = doJSON(t, srv, http.MethodPut, "/api/settings", map[string]any{
		"sources":      []string{"ACME", "Globex"},
		"funderNames":  []string{"Alice"},
		"rateColorMap": map[string]string{"1.2": "#2f9e44"},
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("PUT /api/settings status = %d: %s", rr.Code, rr.Body.String())
	}
	updated := decodeData[core.Settings](t, rr)
	if len(updated.Sources) != 2 || len(updated.FunderNames) != 1 {
		t.Errorf("updated settings = %+v", updated)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/settings", nil)
	settings = decodeData[core.Settings](t, rr)
	if settings.RateColors["1.2"] != "#2f9e44" {
		t.Errorf("rate color map = %v, want 1.2 -> #2f9e44", settings.RateColors)
	}
	if len(settings.FunderNames) != 1 || settings.FunderNames[0] != "Alice" {
		t.Errorf("funder names = %v, want [Alice]", settings.FunderNames)
	}
}

func TestExportImportTable(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/export/table", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/export/table status = %d", rr.Code)
	}
	table := decodeData[tablePayload](t, rr)
	if len(table.Header) == 0 || table.Header[0] != "No." {
		t.Fatalf("export header = %v, want canonical order", table.Header)
	}
	if len(table.Rows) != 1 {
		t.Fatalf("export rows = %d, want 1", len(table.Rows))
	}

	// Importing the export back under clone duplicates the record with
	// fresh identifiers.
	rr = doJSON(t, srv, http.MethodPost, "/api/import/table", map[string]any{
		"header":   table.Header,
		"rows":     table.Rows,
		"strategy": "clone",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rr.Code, rr.Body.String())
	}
	result := decodeData[services.ImportResult](t, rr)
	if result.Candidates != 1 || result.Conflicts != 1 || result.Total != 2 {
		t.Errorf("import result = %+v, want 1 candidate, 1 conflict, 2 total", result)
	}
	if len(result.Investments) != 2 {
		t.Fatalf("merged investments = %d, want 2", len(result.Investments))
	}
	if result.Investments[0].ID == result.Investments[1].ID {
		t.Errorf("clone kept the id %q", result.Investments[0].ID)
	}
	for _, inv := range result.Investments {
		if inv.Source != "ACME" {
			t.Errorf("merged source = %q, want ACME", inv.Source)
		}
	}
}

func TestImportTable_Rejections(t *testing.T) {
	srv := newTestServer(t)

	// A row carrying neither source nor principal leaves nothing to
	// merge.
	rr := doJSON(t, srv, http.MethodPost, "/api/import/table", map[string]any{
		"header": exchange.Header,
		"rows":   [][]string{{"", "", "", "", "", ""}},
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty import status = %d, want 422", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != "no_valid_data" {
		t.Errorf("error code = %q, want no_valid_data", apiErr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/import/table", map[string]any{
		"header":   exchange.Header,
		"rows":     [][]string{{"1", "", "ACME", "", "", "500000"}},
		"strategy": "merge-hard",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad strategy status = %d, want 400", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != "invalid_strategy" {
		t.Errorf("error code = %q, want invalid_strategy", apiErr.Code)
	}
}

func TestExportImportDocument(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload())
	if rr.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/export/json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/export/json status = %d", rr.Code)
	}
	doc := decodeData[exchange.Document](t, rr)
	if doc.Version != exchange.DocumentVersion {
		t.Errorf("document version = %d, want %d", doc.Version, exchange.DocumentVersion)
	}
	if len(doc.Investments) != 1 {
		t.Fatalf("document investments = %d, want 1", len(doc.Investments))
	}

	// Re-importing the backup under skip leaves the collection as it
	// was: the only candidate conflicts with itself.
	raw := decodeData[json.RawMessage](t, rr)
	rr = doJSON(t, srv, http.MethodPost, "/api/import/json", map[string]any{
		"document": raw,
		"strategy": "skip",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("import status = %d: %s", rr.Code, rr.Body.String())
	}
	result := decodeData[services.ImportResult](t, rr)
	if result.Candidates != 1 || result.Conflicts != 1 || result.Total != 1 {
		t.Errorf("import result = %+v, want 1 candidate, 1 conflict, 1 total", result)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/import/json", map[string]any{
		"strategy": "skip",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing document status = %d, want 400", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Message != "document is required" {
		t.Errorf("error message = %q", apiErr.Message)
	}
}
