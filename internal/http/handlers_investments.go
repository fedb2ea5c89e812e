package http

import (
	"net/http"
	"sync/atomic"

	"lendbook/internal/core"
	"lendbook/internal/log"
)

func (s *Server) handleListInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, investments)
}

func (s *Server) handleCreateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	created, err := s.service.Create(r.Context(), inv)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.investmentsCreated, 1)
	s.logger.InfoContext(r.Context(), "Investment created",
		log.FieldInvestmentID, created.ID,
		log.FieldTicket, created.Ticket,
		log.FieldSource, created.Source,
		log.FieldPrincipal, created.Principal,
		log.FieldOperation, log.OpCreate)
	writeData(w, http.StatusCreated, created)
}

func (s *Server) handleGetInvestment(w http.ResponseWriter, r *http.Request) {
	inv, err := s.service.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, inv)
}

func (s *Server) handleUpdateInvestment(w http.ResponseWriter, r *http.Request) {
	var inv core.Investment
	if err := decodeJSON(r, &inv); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	// The path id wins over whatever the body carries.
	inv.ID = r.PathValue("id")

	updated, err := s.service.Update(r.Context(), inv)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Investment updated",
		log.FieldInvestmentID, updated.ID,
		log.FieldTicket, updated.Ticket,
		log.FieldOperation, log.OpUpdate)
	writeData(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteInvestment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.Delete(r.Context(), id); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Investment deleted",
		log.FieldInvestmentID, id,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRenewInvestment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	renewed, err := s.service.Renew(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.investmentsCreated, 1)
	s.logger.InfoContext(r.Context(), "Investment renewed",
		log.FieldInvestmentID, id,
		"successor_id", renewed.ID,
		log.FieldTicket, renewed.Ticket,
		log.FieldOperation, log.OpRenew)
	writeData(w, http.StatusCreated, renewed)
}

func (s *Server) handleCopyInvestment(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	copied, err := s.service.Copy(r.Context(), id)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.investmentsCreated, 1)
	s.logger.InfoContext(r.Context(), "Investment copied",
		log.FieldInvestmentID, id,
		"copy_id", copied.ID,
		log.FieldTicket, copied.Ticket,
		log.FieldOperation, log.OpCopy)
	writeData(w, http.StatusCreated, copied)
}

func (s *Server) handleReorderInvestments(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDs []string `json:"ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	investments, err := s.service.Reorder(r.Context(), req.IDs)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Investments reordered",
		"count", len(req.IDs),
		log.FieldOperation, log.OpReorder)
	writeData(w, http.StatusOK, investments)
}
