package http

import (
	"net/http"
	"testing"

	"lendbook/internal/core"
	"lendbook/internal/services"
)

func TestMarkPayment(t *testing.T) {
	srv := newTestServer(t)

	created := decodeData[core.Investment](t,
		doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload()))

	rr := doJSON(t, srv, http.MethodPost, "/api/investments/"+created.ID+"/payments/2",
		map[string]any{"paid": true, "note": "wire transfer"})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark payment status = %d, body %s", rr.Code, rr.Body.String())
	}
	inv := decodeData[core.Investment](t, rr)
	if !inv.Payments[2].Paid {
		t.Error("period 2 not marked paid")
	}
	if inv.Payments[2].Note != "wire transfer" {
		t.Errorf("period 2 note = %q, want wire transfer", inv.Payments[2].Note)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/investments/"+created.ID+"/payments/0",
		map[string]any{"paid": true})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("period 0 status = %d, want 422", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/investments/"+created.ID+"/payments/abc",
		map[string]any{"paid": true})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-numeric period status = %d, want 400", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/investments/missing/payments/1",
		map[string]any{"paid": true})
	if rr.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rr.Code)
	}
}

func TestMarkBonus(t *testing.T) {
	srv := newTestServer(t)

	created := decodeData[core.Investment](t,
		doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload()))

	rr := doJSON(t, srv, http.MethodPost, "/api/investments/"+created.ID+"/bonus",
		map[string]any{"paid": true})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark bonus status = %d, body %s", rr.Code, rr.Body.String())
	}
	inv := decodeData[core.Investment](t, rr)
	if !inv.BonusPaid {
		t.Error("bonus not marked paid")
	}
	if inv.BonusPaidDate.IsZero() {
		t.Error("bonus paid date not stamped")
	}
}

func TestMarkMonth(t *testing.T) {
	srv := newTestServer(t)

	if rr := doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload()); rr.Code != http.StatusCreated {
		t.Fatalf("seed create status = %d", rr.Code)
	}

	// Period 2 is due 2025-09-15, the only due in that month.
	rr := doJSON(t, srv, http.MethodPost, "/api/payments/mark-month",
		map[string]any{"month": "2025-09", "paid": true, "note": "september run"})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark month status = %d, body %s", rr.Code, rr.Body.String())
	}
	if data := decodeData[map[string]int](t, rr); data["changed"] != 1 {
		t.Errorf("changed = %d, want 1", data["changed"])
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/payments/mark-month",
		map[string]any{"month": "2030-01", "paid": true})
	if data := decodeData[map[string]int](t, rr); data["changed"] != 0 {
		t.Errorf("changed for empty month = %d, want 0", data["changed"])
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/payments/mark-month",
		map[string]any{"month": "september", "paid": true})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("bad month status = %d, want 422", rr.Code)
	}
	if apiErr := decodeError(t, rr); apiErr.Code != "validation_error" {
		t.Errorf("error code = %q, want validation_error", apiErr.Code)
	}
}

func TestMarkMonthDefaultNotePolicy(t *testing.T) {
	srv := newTestServer(t)
	srv.SetDefaultNotePolicy(services.NotePreserve)

	created := decodeData[core.Investment](t,
		doJSON(t, srv, http.MethodPost, "/api/investments", investmentPayload()))

	if rr := doJSON(t, srv, http.MethodPost, "/api/investments/"+created.ID+"/payments/2",
		map[string]any{"paid": true, "note": "wire transfer"}); rr.Code != http.StatusOK {
		t.Fatalf("mark payment status = %d", rr.Code)
	}

	// No notePolicy in the request, so the server default applies and
	// the hand-written note survives the bulk unmark.
	rr := doJSON(t, srv, http.MethodPost, "/api/payments/mark-month",
		map[string]any{"month": "2025-09", "paid": false, "note": "bulk clear"})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark month status = %d, body %s", rr.Code, rr.Body.String())
	}

	inv := decodeData[core.Investment](t,
		doJSON(t, srv, http.MethodGet, "/api/investments/"+created.ID, nil))
	if inv.Payments[2].Paid {
		t.Error("period 2 still paid after bulk unmark")
	}
	if inv.Payments[2].Note != "wire transfer" {
		t.Errorf("period 2 note = %q, want the preserved wire transfer", inv.Payments[2].Note)
	}

	// An explicit policy in the request wins over the server default.
	rr = doJSON(t, srv, http.MethodPost, "/api/payments/mark-month",
		map[string]any{"month": "2025-09", "paid": true, "note": "september sweep", "notePolicy": "overwrite"})
	if rr.Code != http.StatusOK {
		t.Fatalf("mark month status = %d", rr.Code)
	}

	inv = decodeData[core.Investment](t,
		doJSON(t, srv, http.MethodGet, "/api/investments/"+created.ID, nil))
	if inv.Payments[2].Note != "september sweep" {
		t.Errorf("period 2 note = %q, want september sweep", inv.Payments[2].Note)
	}
}
