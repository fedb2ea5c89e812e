package http

import (
	"net/http"
	"strconv"
	"sync/atomic"

	"lendbook/internal/date"
	"lendbook/internal/log"
	"lendbook/internal/services"
)

func (s *Server) handleMarkPayment(w http.ResponseWriter, r *http.Request) {
	period, err := strconv.Atoi(r.PathValue("period"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "period must be a number")
		return
	}

	var req struct {
		Paid bool   `json:"paid"`
		Note string `json:"note"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	id := r.PathValue("id")
	inv, err := s.service.MarkPaid(r.Context(), id, period, req.Paid, req.Note)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.paymentsMarked, 1)
	s.logger.InfoContext(r.Context(), "Payment marked",
		log.FieldInvestmentID, id,
		log.FieldPeriod, period,
		"paid", req.Paid,
		log.FieldOperation, log.OpMarkPaid)
	writeData(w, http.StatusOK, inv)
}

func (s *Server) handleMarkBonus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Paid bool `json:"paid"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	id := r.PathValue("id")
	inv, err := s.service.MarkBonusPaid(r.Context(), id, req.Paid)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.paymentsMarked, 1)
	s.logger.InfoContext(r.Context(), "Bonus fee marked",
		log.FieldInvestmentID, id,
		"paid", req.Paid,
		log.FieldOperation, log.OpMarkPaid)
	writeData(w, http.StatusOK, inv)
}

func (s *Server) handleMarkMonth(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Month      string `json:"month"`
		Paid       bool   `json:"paid"`
		Note       string `json:"note"`
		NotePolicy string `json:"notePolicy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	month, err := date.ParseMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error",
			"month must be formatted as "+date.MonthFormat)
		return
	}

	policy := services.NotePolicy(req.NotePolicy)
	if req.NotePolicy == "" {
		policy = s.notePolicy
	}
	changed, err := s.service.MarkMonthPaid(r.Context(), month, req.Paid, req.Note, policy)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.paymentsMarked, int64(changed))
	s.logger.InfoContext(r.Context(), "Month payments marked",
		log.FieldMonth, req.Month,
		"paid", req.Paid,
		"changed", changed,
		log.FieldOperation, log.OpMarkPaid)
	writeData(w, http.StatusOK, map[string]int{"changed": changed})
}
