package http

import (
	"errors"
	"net/http"
	"strings"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/report"
	"financas/internal/services"
)

type expenseListResponse struct {
	Expenses []core.Expense `json:"expenses"`
	// RepeatCounts maps "YYYY-MM_categoryId" to how often that category
	// occurs in that month within the returned list.
	RepeatCounts map[string]int `json:"repeatCounts"`
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Expense list failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load expenses")
		return
	}

	// Scope narrows the list only when asked for; the history view shows
	// both scopes by default.
	if raw := strings.TrimSpace(r.URL.Query().Get("scope")); raw != "" {
		scope, err := core.ParseScope(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown scope")
			return
		}
		expenses = report.FilterScope(expenses, scope)
	}

	filter := strings.TrimSpace(r.URL.Query().Get("filter"))
	query := r.URL.Query().Get("q")

	var searchable []core.Category
	if query != "" {
		searchable, err = s.allCategories(r)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "Category list failed", applog.FieldError, err)
			writeError(w, http.StatusInternalServerError, "could not load categories")
			return
		}
	}

	now := s.now()
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !report.MatchesHistoryFilter(e, filter, now) {
			continue
		}
		if query != "" && !report.MatchesSearch(e, searchable, query) {
			continue
		}
		out = append(out, e)
	}
	out = report.SortByDateDesc(out)

	writeJSON(w, http.StatusOK, expenseListResponse{
		Expenses:     out,
		RepeatCounts: report.MonthlyCategoryCounts(out),
	})
}

// allCategories merges both scopes' collections for search resolution.
func (s *Server) allCategories(r *http.Request) ([]core.Category, error) {
	personal, err := s.categories.List(r.Context(), core.ScopePersonal)
	if err != nil {
		return nil, err
	}
	business, err := s.categories.List(r.Context(), core.ScopeBusiness)
	if err != nil {
		return nil, err
	}
	return append(personal, business...), nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var draft core.Expense
	if err := decodeJSON(r, &draft, maxJSONBody); err != nil {
		writeError(w, http.StatusBadRequest, "malformed expense payload")
		return
	}

	created, err := s.expenses.Create(r.Context(), draft)
	if err != nil {
		if status, ok := validationStatus(err); ok {
			writeError(w, status, err.Error())
			return
		}
		s.logger.ErrorContext(r.Context(), "Expense create failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not save expense")
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var updated core.Expense
	if err := decodeJSON(r, &updated, maxJSONBody); err != nil {
		writeError(w, http.StatusBadRequest, "malformed expense payload")
		return
	}
	updated.ID = r.PathValue("id")

	saved, err := s.expenses.Update(r.Context(), updated)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrExpenseNotFound):
			writeError(w, http.StatusNotFound, "expense not found")
		default:
			if status, ok := validationStatus(err); ok {
				writeError(w, status, err.Error())
				return
			}
			s.logger.ErrorContext(r.Context(), "Expense update failed",
				applog.FieldError, err, applog.FieldExpenseID, updated.ID)
			writeError(w, http.StatusInternalServerError, "could not save expense")
		}
		return
	}

	s.invalidateDerived()
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.expenses.Delete(r.Context(), id); err != nil {
		if errors.Is(err, services.ErrExpenseNotFound) {
			writeError(w, http.StatusNotFound, "expense not found")
			return
		}
		s.logger.ErrorContext(r.Context(), "Expense delete failed",
			applog.FieldError, err, applog.FieldExpenseID, id)
		writeError(w, http.StatusInternalServerError, "could not delete expense")
		return
	}

	s.invalidateDerived()
	w.WriteHeader(http.StatusNoContent)
}
