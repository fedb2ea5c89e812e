package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"lendbook/internal/date"
)

// maxBodyBytes caps request bodies. Even a full-ledger import document
// stays far below this.
const maxBodyBytes = 1 << 20

var (
	errBodyTooLarge = errors.New("request body too large")
	errEmptyBody    = errors.New("empty request body")
)

// decodeJSON reads the request body into dst, rejecting empty,
// oversized, or malformed payloads.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) > maxBodyBytes {
		return errBodyTooLarge
	}
	if len(body) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

// monthParam parses an optional "2006-01" query parameter, reporting
// whether it was present at all.
func monthParam(r *http.Request, name string) (date.Month, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return date.Month{}, false, nil
	}
	month, err := date.ParseMonth(raw)
	if err != nil {
		return date.Month{}, true, err
	}
	return month, true, nil
}
