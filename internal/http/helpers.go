package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"financas/internal/core"
)

const maxJSONBody = 1 << 20 // 1 MiB covers any hand-entered payload

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a bounded request body into dst, rejecting unknown
// fields so typos surface as 400s instead of silently dropped data.
func decodeJSON(r *http.Request, dst any, maxBytes int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

// queryScope reads the scope parameter, defaulting to personal.
func queryScope(r *http.Request) (core.Scope, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("scope"))
	if raw == "" {
		return core.ScopePersonal, nil
	}
	return core.ParseScope(raw)
}

// validationStatus maps domain sentinels onto HTTP statuses. Anything not
// recognized is an internal error.
func validationStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrInvalidScope):
		return http.StatusUnprocessableEntity, true
	}
	return 0, false
}
