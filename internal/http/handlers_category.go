package http

import (
	"errors"
	"net/http"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/services"
)

type categoryPayload struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	categories, err := s.categories.List(r.Context(), scope)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category list failed",
			applog.FieldError, err, applog.FieldScope, string(scope))
		writeError(w, http.StatusInternalServerError, "could not load categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	var payload categoryPayload
	if err := decodeJSON(r, &payload, maxJSONBody); err != nil {
		writeError(w, http.StatusBadRequest, "malformed category payload")
		return
	}

	created, err := s.categories.Create(r.Context(), scope, payload.Name, payload.Color, payload.Icon)
	if err != nil {
		if errors.Is(err, services.ErrEmptyCategory) {
			writeError(w, http.StatusUnprocessableEntity, "category name must not be empty")
			return
		}
		s.logger.ErrorContext(r.Context(), "Category create failed",
			applog.FieldError, err, applog.FieldScope, string(scope))
		writeError(w, http.StatusInternalServerError, "could not save category")
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	var payload categoryPayload
	if err := decodeJSON(r, &payload, maxJSONBody); err != nil {
		writeError(w, http.StatusBadRequest, "malformed category payload")
		return
	}

	updated := core.Category{
		ID:    r.PathValue("id"),
		Name:  payload.Name,
		Color: payload.Color,
		Icon:  payload.Icon,
	}
	saved, err := s.categories.Update(r.Context(), scope, updated)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrEmptyCategory):
			writeError(w, http.StatusUnprocessableEntity, "category name must not be empty")
		case errors.Is(err, services.ErrCategoryNotFound):
			writeError(w, http.StatusNotFound, "category not found")
		default:
			s.logger.ErrorContext(r.Context(), "Category update failed",
				applog.FieldError, err, applog.FieldCategoryID, updated.ID)
			writeError(w, http.StatusInternalServerError, "could not save category")
		}
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	id := r.PathValue("id")
	if err := s.categories.Delete(r.Context(), scope, id); err != nil {
		switch {
		case errors.Is(err, services.ErrLastCategory):
			writeError(w, http.StatusConflict, "cannot delete the last category of a scope")
		case errors.Is(err, services.ErrCategoryNotFound):
			writeError(w, http.StatusNotFound, "category not found")
		default:
			s.logger.ErrorContext(r.Context(), "Category delete failed",
				applog.FieldError, err, applog.FieldCategoryID, id)
			writeError(w, http.StatusInternalServerError, "could not delete category")
		}
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
