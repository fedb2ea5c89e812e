package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"lendbook/internal/date"
)

// cachedReport serves a report payload through the LRU. The key folds
// in the snapshot generation, so any mutation misses the cache and the
// fresh payload is built from the new snapshot.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request, name string, build func() (any, error)) {
	generation, err := s.service.Generation(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	key := fmt.Sprintf("%s:%d:%s", name, generation, r.URL.RawQuery)
	if body, ok := s.reportCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
		return
	}

	payload, err := build()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(dataEnvelope{Data: payload})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	body = append(body, '\n')
	s.reportCache.Set(key, body)

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	from, hasFrom, err := monthParam(r, "from")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error",
			"from must be formatted as "+date.MonthFormat)
		return
	}
	to, hasTo, err := monthParam(r, "to")
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error",
			"to must be formatted as "+date.MonthFormat)
		return
	}

	s.cachedReport(w, r, "monthly", func() (any, error) {
		if hasFrom || hasTo {
			return s.service.MonthlyReportRange(r.Context(), from, to)
		}
		return s.service.MonthlyReport(r.Context())
	})
}

func (s *Server) handleChartSeries(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, "chart", func() (any, error) {
		return s.service.ChartSeries(r.Context())
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.cachedReport(w, r, "stats", func() (any, error) {
		return s.service.Stats(r.Context())
	})
}
