package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"financas/internal/core"
)

// Chart period identifiers. Specific years are addressed as "year_2023".
const (
	PeriodToday        = "today"
	PeriodLast7Days    = "last_7_days"
	PeriodLast30Days   = "last_30_days"
	PeriodThisYear     = "this_year"
	PeriodLast12Months = "last_12_months"

	yearPrefix = "year_"
)

// History list filters, coarser than chart periods.
const (
	HistoryAll   = "all"
	HistoryToday = "today"
	HistoryWeek  = "week"
	HistoryMonth = "month"
	HistoryYear  = "year"
)

// Window is a resolved chart period: an inclusive calendar-day range plus
// the bucketing granularity for the time series.
type Window struct {
	Period string
	// From and To are inclusive YYYY-MM-DD bounds. Empty From means
	// unbounded on the left (full-year windows bound by year instead).
	From, To string
	// Year is set for this_year and year_YYYY windows.
	Year int
	// Monthly selects month buckets instead of day buckets.
	Monthly bool
}

// ResolveWindow turns a period identifier into a concrete Window anchored
// at now. Day arithmetic happens on calendar days, so DST shifts cannot
// move a record across a boundary.
func ResolveWindow(period string, now time.Time) (Window, error) {
	today := now.Format(core.DateLayout)
	switch period {
	case PeriodToday:
		return Window{Period: period, From: today, To: today}, nil
	case PeriodLast7Days:
		return Window{Period: period, From: now.AddDate(0, 0, -7).Format(core.DateLayout), To: today}, nil
	case PeriodLast30Days:
		return Window{Period: period, From: now.AddDate(0, 0, -30).Format(core.DateLayout), To: today}, nil
	case PeriodThisYear:
		// the whole calendar year, future-dated records included
		return Window{Period: period, Year: now.Year(), Monthly: true}, nil
	case PeriodLast12Months:
		return Window{Period: period, From: now.AddDate(-1, 0, 0).Format(core.DateLayout), To: today, Monthly: true}, nil
	}
	if y, ok := strings.CutPrefix(period, yearPrefix); ok {
		year, err := strconv.Atoi(y)
		if err == nil && year >= 1000 && year <= 9999 {
			return Window{Period: period, Year: year, Monthly: true}, nil
		}
	}
	return Window{}, fmt.Errorf("unknown period %q", period)
}

// Contains reports whether a record's calendar date falls in the window.
// The comparison is lexicographic on the canonical date strings.
func (w Window) Contains(e core.Expense) bool {
	d := e.Date
	if len(d) < 10 {
		return false
	}
	if w.Year != 0 {
		year, err := strconv.Atoi(d[:4])
		if err != nil || year != w.Year {
			return false
		}
	}
	if w.From != "" && d < w.From {
		return false
	}
	if w.To != "" && d > w.To {
		return false
	}
	return true
}

// Filter keeps the records inside the window, preserving order.
func (w Window) Filter(expenses []core.Expense) []core.Expense {
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if w.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}

// Bucket is one point of a chart time series.
type Bucket struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Total core.Money `json:"total"`
}

var monthAbbrev = [13]string{"", "jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// TimeSeries buckets the windowed records chronologically. Short windows
// bucket per day labelled DD/MM; long windows bucket per month labelled
// with the Portuguese month abbreviation and two-digit year. Buckets with
// no records are omitted.
func TimeSeries(expenses []core.Expense, w Window) []Bucket {
	sums := make(map[string]int64)
	for _, e := range expenses {
		if !w.Contains(e) {
			continue
		}
		key := e.Date
		if w.Monthly {
			key = e.Date[:7]
		}
		sums[key] += e.Amount.Cents
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]Bucket, 0, len(keys))
	for _, k := range keys {
		out = append(out, Bucket{Key: k, Label: bucketLabel(k, w.Monthly), Total: core.Money{Cents: sums[k]}})
	}
	return out
}

func bucketLabel(key string, monthly bool) string {
	if monthly {
		// key is YYYY-MM
		m, err := strconv.Atoi(key[5:7])
		if err != nil || m < 1 || m > 12 {
			return key
		}
		return monthAbbrev[m] + "/" + key[2:4]
	}
	// key is YYYY-MM-DD
	return key[8:10] + "/" + key[5:7]
}

// AvailableYears lists the distinct years present in the records, newest
// first, for building the chart period picker.
func AvailableYears(expenses []core.Expense) []int {
	seen := make(map[int]bool)
	for _, e := range expenses {
		if len(e.Date) < 4 {
			continue
		}
		if y, err := strconv.Atoi(e.Date[:4]); err == nil {
			seen[y] = true
		}
	}
	years := make([]int, 0, len(seen))
	for y := range seen {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}

// MatchesHistoryFilter applies the coarse history list filter to one
// record. Unknown filters behave like "all".
func MatchesHistoryFilter(e core.Expense, filter string, now time.Time) bool {
	d := e.Day()
	if d.IsZero() {
		return filter == HistoryAll || filter == ""
	}
	switch filter {
	case HistoryToday:
		return e.Date == now.Format(core.DateLayout)
	case HistoryWeek:
		from := now.AddDate(0, 0, -7).Format(core.DateLayout)
		return e.Date >= from && e.Date <= now.Format(core.DateLayout)
	case HistoryMonth:
		return d.Year() == now.Year() && d.Month() == now.Month()
	case HistoryYear:
		return d.Year() == now.Year()
	}
	return true
}
