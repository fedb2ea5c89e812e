package http

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"lendbook/internal/core"
	"lendbook/internal/log"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.service.Settings(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	if err := decodeJSON(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	updated, err := s.service.UpdateSettings(r.Context(), settings)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	s.logger.InfoContext(r.Context(), "Settings updated",
		"sources", len(updated.Sources),
		"funder_names", len(updated.FunderNames),
		log.FieldOperation, log.OpUpdate)
	writeData(w, http.StatusOK, updated)
}

// tablePayload carries the tabular exchange format: one header row and
// the data rows, all cells as strings.
type tablePayload struct {
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (s *Server) handleExportTable(w http.ResponseWriter, r *http.Request) {
	header, rows, err := s.service.ExportTable(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.exportsServed, 1)
	writeData(w, http.StatusOK, tablePayload{Header: header, Rows: rows})
}

func (s *Server) handleExportDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.ExportDocument(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.exportsServed, 1)
	writeData(w, http.StatusOK, doc)
}

func (s *Server) handleImportTable(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Header   []string   `json:"header"`
		Rows     [][]string `json:"rows"`
		Strategy string     `json:"strategy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	result, err := s.service.ImportTable(r.Context(), req.Header, req.Rows, importStrategy(req.Strategy))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.importsRun, 1)
	s.logger.InfoContext(r.Context(), "Table imported",
		log.FieldStrategy, req.Strategy,
		"candidates", result.Candidates,
		"conflicts", result.Conflicts,
		"total", result.Total,
		log.FieldOperation, log.OpImport)
	writeData(w, http.StatusOK, result)
}

func (s *Server) handleImportDocument(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document json.RawMessage `json:"document"`
		Strategy string          `json:"strategy"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	if len(req.Document) == 0 {
		writeError(w, http.StatusBadRequest, "bad_request", "document is required")
		return
	}

	result, err := s.service.ImportDocument(r.Context(), req.Document, importStrategy(req.Strategy))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	atomic.AddInt64(&s.metrics.importsRun, 1)
	s.logger.InfoContext(r.Context(), "Document imported",
		log.FieldStrategy, req.Strategy,
		"candidates", result.Candidates,
		"conflicts", result.Conflicts,
		"total", result.Total,
		log.FieldOperation, log.OpImport)
	writeData(w, http.StatusOK, result)
}

// importStrategy defaults an absent strategy to the non-destructive
// skip merge.
func importStrategy(raw string) core.MergeStrategy {
	if raw == "" {
		return core.MergeSkip
	}
	return core.MergeStrategy(raw)
}
