// Package report computes every derived figure the UI shows: month totals,
// budget consumption, category breakdowns and chartable time series. All
// functions are pure, take an already scope-filtered record slice plus an
// explicit reference time, and run in a single pass (plus a sort).
package report

import (
	"math"
	"sort"
	"strings"
	"time"

	"financas/internal/core"
)

type (
	// CategorySlice is one row of the category breakdown.
	CategorySlice struct {
		Category   core.Category `json:"category"`
		Total      core.Money    `json:"total"`
		Percentage float64       `json:"percentage"`
	}

	// BudgetStatus describes how the month's spending relates to the
	// configured ceiling. Budget zero means unset and zeroes everything.
	BudgetStatus struct {
		Budget     core.Money `json:"budget"`
		Spent      core.Money `json:"spent"`
		Percentage float64    `json:"percentage"`
		Remaining  core.Money `json:"remaining"`
		Exceeded   core.Money `json:"exceeded"`
	}
)

// FilterScope narrows the shared record collection to one scope. Records
// persisted before scopes existed count as personal. Order is preserved.
func FilterScope(expenses []core.Expense, scope core.Scope) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.EffectiveScope() == scope {
			out = append(out, e)
		}
	}
	return out
}

// FilterCategories keeps records whose category is in the selected set.
// A nil set selects everything.
func FilterCategories(expenses []core.Expense, selected map[string]bool) []core.Expense {
	if selected == nil {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if selected[e.CategoryID] {
			out = append(out, e)
		}
	}
	return out
}

// MonthTotal sums the records whose calendar date falls in the given
// year and month.
func MonthTotal(expenses []core.Expense, year int, month time.Month) core.Money {
	var cents int64
	for _, e := range expenses {
		d := e.Day()
		if !d.IsZero() && d.Year() == year && d.Month() == month {
			cents += e.Amount.Cents
		}
	}
	return core.Money{Cents: cents}
}

// PreviousMonth returns the calendar month before the reference instant,
// wrapping January back to December of the previous year.
func PreviousMonth(now time.Time) (int, time.Month) {
	if now.Month() == time.January {
		return now.Year() - 1, time.December
	}
	return now.Year(), now.Month() - 1
}

// DailyAverage divides the month-to-date total by the current day of the
// month. It is a running average: day 1 divides by 1, not by the number of
// days elapsed in a finished month.
func DailyAverage(monthTotal core.Money, now time.Time) core.Money {
	day := now.Day()
	if day <= 0 {
		return core.Money{}
	}
	return core.Money{Cents: int64(math.Round(float64(monthTotal.Cents) / float64(day)))}
}

// Budget computes consumption against a monthly ceiling. With no budget
// configured everything reports zero; percentages are always finite.
func Budget(monthTotal, budget core.Money) BudgetStatus {
	st := BudgetStatus{Budget: budget, Spent: monthTotal}
	if budget.Cents <= 0 {
		return st
	}
	st.Percentage = float64(monthTotal.Cents) / float64(budget.Cents) * 100
	st.Remaining = core.Money{Cents: budget.Cents - monthTotal.Cents}
	if st.Remaining.Cents < 0 {
		st.Exceeded = core.Money{Cents: -st.Remaining.Cents}
	}
	return st
}

// CategoryBreakdown groups records by category, sums each group and
// computes its share of the grand total, sorted descending by amount.
// Orphaned category references aggregate under their raw ID and render
// with the placeholder category.
func CategoryBreakdown(expenses []core.Expense, categories []core.Category) []CategorySlice {
	sums := make(map[string]int64)
	order := make([]string, 0)
	var total int64
	for _, e := range expenses {
		if _, seen := sums[e.CategoryID]; !seen {
			order = append(order, e.CategoryID)
		}
		sums[e.CategoryID] += e.Amount.Cents
		total += e.Amount.Cents
	}

	out := make([]CategorySlice, 0, len(sums))
	for _, id := range order {
		s := CategorySlice{
			Category: core.FindCategory(categories, id),
			Total:    core.Money{Cents: sums[id]},
		}
		if total > 0 {
			s.Percentage = float64(sums[id]) / float64(total) * 100
		}
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.Cents > out[j].Total.Cents
	})
	return out
}

// Total sums every record in the slice.
func Total(expenses []core.Expense) core.Money {
	var cents int64
	for _, e := range expenses {
		cents += e.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// SortByDateDesc returns a copy ordered newest first.
func SortByDateDesc(expenses []core.Expense) []core.Expense {
	out := make([]core.Expense, len(expenses))
	copy(out, expenses)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date > out[j].Date
	})
	return out
}

// MonthlyCategoryCounts counts how often each category repeats inside a
// calendar month, keyed "YYYY-MM_categoryID". The history view uses it to
// badge repeat spending.
func MonthlyCategoryCounts(expenses []core.Expense) map[string]int {
	counts := make(map[string]int)
	for _, e := range expenses {
		if len(e.Date) < 7 {
			continue
		}
		counts[e.Date[:7]+"_"+e.CategoryID]++
	}
	return counts
}

// Tithe is the 10%-of-surplus figure the calculator shows. Non-positive
// balances yield zero; nothing here is persisted.
func Tithe(balance core.Money) core.Money {
	if balance.Cents <= 0 {
		return core.Money{}
	}
	return core.Money{Cents: int64(math.Round(float64(balance.Cents) / 10))}
}

// MatchesSearch reports whether a record matches a free-text history
// search against description, resolved category name or formatted amount.
func MatchesSearch(e core.Expense, categories []core.Category, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	if strings.Contains(strings.ToLower(e.Description), query) {
		return true
	}
	if strings.Contains(strings.ToLower(core.FindCategory(categories, e.CategoryID).Name), query) {
		return true
	}
	return strings.Contains(strings.ToLower(e.Amount.FormatBRL()), query)
}
