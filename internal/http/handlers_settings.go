package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/services"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Settings load failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var settings core.Settings
	// Settings has its own unmarshaller that keeps unknown keys, so the
	// strict decoder is not used here.
	if err := decodeSettings(r, &settings); err != nil {
		writeError(w, http.StatusBadRequest, "malformed settings payload")
		return
	}

	saved, err := s.settings.Update(r.Context(), settings)
	if err != nil {
		if errors.Is(err, services.ErrInvalidBudget) {
			writeError(w, http.StatusUnprocessableEntity, "monthly budget must not be negative")
			return
		}
		s.logger.ErrorContext(r.Context(), "Settings update failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not save settings")
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, saved)
}

func decodeSettings(r *http.Request, dst *core.Settings) error {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxJSONBody))
	if err != nil {
		return err
	}
	return json.Unmarshal(body, dst)
}
