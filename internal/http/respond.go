package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"lendbook/internal/core"
	"lendbook/internal/log"
)

// dataEnvelope and errorEnvelope give every response the same shape:
// {"data": ...} on success, {"error": {"code", "message"}} on failure.
type dataEnvelope struct {
	Data any `json:"data"`
}

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeData(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(dataEnvelope{Data: v}); err != nil {
		slog.Error("Response encoding failed", log.FieldError, err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: apiError{Code: code, Message: message}})
}

// writeServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized becomes an opaque 500 and the cause goes to the log.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, core.ErrInvalidStrategy):
		writeError(w, http.StatusBadRequest, "invalid_strategy", err.Error())
	case errors.Is(err, core.ErrNoValidData):
		writeError(w, http.StatusUnprocessableEntity, "no_valid_data", err.Error())
	case isValidationError(err):
		writeError(w, http.StatusUnprocessableEntity, "validation_error", err.Error())
	default:
		s.logger.ErrorContext(r.Context(), "Request failed",
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}

var validationSentinels = []error{
	core.ErrEmptySource,
	core.ErrInvalidPrincipal,
	core.ErrInvalidRate,
	core.ErrInvalidBonusRate,
	core.ErrInvalidDuration,
	core.ErrMissingStart,
	core.ErrInvalidStatus,
	core.ErrFunderMismatch,
	core.ErrInvalidPeriod,
}

func isValidationError(err error) bool {
	for _, sentinel := range validationSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
