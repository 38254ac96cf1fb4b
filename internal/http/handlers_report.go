package http

import (
	"net/http"
	"strings"

	"financas/internal/core"
	applog "financas/internal/log"
	"financas/internal/report"
)

type summaryResponse struct {
	Scope              core.Scope          `json:"scope"`
	MonthTotal         core.Money          `json:"monthTotal"`
	PreviousMonthTotal core.Money          `json:"previousMonthTotal"`
	DailyAverage       core.Money          `json:"dailyAverage"`
	Budget             report.BudgetStatus `json:"budget"`
	Tithe              core.Money          `json:"tithe"`
}

type chartsResponse struct {
	Period         string                 `json:"period"`
	Total          core.Money             `json:"total"`
	Breakdown      []report.CategorySlice `json:"breakdown"`
	Series         []report.Bucket        `json:"series"`
	AvailableYears []int                  `json:"availableYears"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	cacheKey := "summary:" + string(scope)
	if cached, found := s.summaryCache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Expense list failed",
			applog.FieldError, err, applog.FieldScope, string(scope))
		writeError(w, http.StatusInternalServerError, "could not load expenses")
		return
	}
	settings, err := s.settings.Get(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Settings load failed", applog.FieldError, err)
		writeError(w, http.StatusInternalServerError, "could not load settings")
		return
	}

	now := s.now()
	scoped := report.FilterScope(expenses, scope)
	monthTotal := report.MonthTotal(scoped, now.Year(), now.Month())
	prevYear, prevMonth := report.PreviousMonth(now)
	budget := report.Budget(monthTotal, settings.Budget(scope))

	resp := summaryResponse{
		Scope:              scope,
		MonthTotal:         monthTotal,
		PreviousMonthTotal: report.MonthTotal(scoped, prevYear, prevMonth),
		DailyAverage:       report.DailyAverage(monthTotal, now),
		Budget:             budget,
		Tithe:              report.Tithe(budget.Remaining),
	}

	s.summaryCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCharts(w http.ResponseWriter, r *http.Request) {
	scope, err := queryScope(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown scope")
		return
	}

	period := strings.TrimSpace(r.URL.Query().Get("period"))
	if period == "" {
		period = report.PeriodThisYear
	}
	categoriesParam := strings.TrimSpace(r.URL.Query().Get("categories"))

	cacheKey := "charts:" + string(scope) + ":" + period + ":" + categoriesParam
	if cached, found := s.chartsCache.Get(cacheKey); found {
		writeJSON(w, http.StatusOK, cached)
		return
	}

	window, err := report.ResolveWindow(period, s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown period")
		return
	}

	expenses, err := s.expenses.List(r.Context())
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Expense list failed",
			applog.FieldError, err, applog.FieldPeriod, period)
		writeError(w, http.StatusInternalServerError, "could not load expenses")
		return
	}
	categories, err := s.categories.List(r.Context(), scope)
	if err != nil {
		s.logger.ErrorContext(r.Context(), "Category list failed",
			applog.FieldError, err, applog.FieldScope, string(scope))
		writeError(w, http.StatusInternalServerError, "could not load categories")
		return
	}

	scoped := report.FilterScope(expenses, scope)
	filtered := window.Filter(report.FilterCategories(scoped, categoryFilter(categoriesParam)))

	resp := chartsResponse{
		Period:         period,
		Total:          report.Total(filtered),
		Breakdown:      report.CategoryBreakdown(filtered, categories),
		Series:         report.TimeSeries(filtered, window),
		AvailableYears: report.AvailableYears(scoped),
	}

	s.chartsCache.Set(cacheKey, resp)
	writeJSON(w, http.StatusOK, resp)
}

// categoryFilter parses the comma-separated category selection. Empty
// input selects every category.
func categoryFilter(param string) map[string]bool {
	if param == "" {
		return nil
	}
	selected := make(map[string]bool)
	for _, id := range strings.Split(param, ",") {
		if id = strings.TrimSpace(id); id != "" {
			selected[id] = true
		}
	}
	if len(selected) == 0 {
		return nil
	}
	return selected
}
