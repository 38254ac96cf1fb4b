package report

import (
	"testing"
	"time"

	"financas/internal/core"
)

func TestResolveWindow(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	tests := []struct {
		period      string
		wantFrom    string
		wantTo      string
		wantYear    int
		wantMonthly bool
	}{
		{PeriodToday, "2025-03-15", "2025-03-15", 0, false},
		{PeriodLast7Days, "2025-03-08", "2025-03-15", 0, false},
		{PeriodLast30Days, "2025-02-13", "2025-03-15", 0, false},
		{PeriodThisYear, "", "", 2025, true},
		{PeriodLast12Months, "2024-03-15", "2025-03-15", 0, true},
		{"year_2023", "", "", 2023, true},
	}
	for _, tt := range tests {
		t.Run(tt.period, func(t *testing.T) {
			w, err := ResolveWindow(tt.period, now)
			if err != nil {
				t.Fatalf("ResolveWindow: %v", err)
			}
			if w.From != tt.wantFrom || w.To != tt.wantTo || w.Year != tt.wantYear || w.Monthly != tt.wantMonthly {
				t.Fatalf("window = %+v", w)
			}
		})
	}

	for _, bad := range []string{"", "last_week", "year_", "year_abc", "year_23"} {
		if _, err := ResolveWindow(bad, now); err == nil {
			t.Errorf("ResolveWindow(%q) accepted", bad)
		}
	}
}

func TestWindowContains(t *testing.T) {
	now := time.Date(2025, 3, 15, 23, 0, 0, 0, time.UTC)
	w, err := ResolveWindow(PeriodLast7Days, now)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		date string
		want bool
	}{
		{"2025-03-15", true},
		{"2025-03-08", true}, // boundary day is inside
		{"2025-03-07", false},
		{"2025-03-16", false}, // nothing in the future
		{"bad", false},
	}
	for _, tt := range tests {
		if got := w.Contains(exp("x", tt.date, "1", 100)); got != tt.want {
			t.Errorf("Contains(%s) = %v, want %v", tt.date, got, tt.want)
		}
	}

	// this_year covers the whole calendar year, including dates past now
	ty, _ := ResolveWindow(PeriodThisYear, now)
	if !ty.Contains(exp("x", "2025-01-01", "1", 100)) {
		t.Error("this_year rejected January 1st")
	}
	if ty.Contains(exp("x", "2024-12-31", "1", 100)) {
		t.Error("this_year accepted previous year")
	}
	if !ty.Contains(exp("x", "2025-11-20", "1", 100)) {
		t.Error("this_year rejected a future date within the year")
	}
	if ty.Contains(exp("x", "2026-01-01", "1", 100)) {
		t.Error("this_year accepted next year")
	}

	// specific-year windows ignore now entirely
	y23, _ := ResolveWindow("year_2023", now)
	if !y23.Contains(exp("x", "2023-12-31", "1", 100)) || y23.Contains(exp("x", "2024-01-01", "1", 100)) {
		t.Error("year_2023 bounds wrong")
	}
}

func TestTimeSeriesDaily(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	w, _ := ResolveWindow(PeriodLast7Days, now)

	expenses := []core.Expense{
		exp("a", "2025-03-14", "1", 500),
		exp("b", "2025-03-10", "1", 1000),
		exp("c", "2025-03-10", "2", 250),
		exp("d", "2025-03-01", "1", 9999), // outside
	}
	got := TimeSeries(expenses, w)
	if len(got) != 2 {
		t.Fatalf("buckets = %+v", got)
	}
	if got[0].Key != "2025-03-10" || got[0].Total.Cents != 1250 || got[0].Label != "10/03" {
		t.Fatalf("first bucket = %+v", got[0])
	}
	if got[1].Key != "2025-03-14" || got[1].Label != "14/03" {
		t.Fatalf("second bucket = %+v", got[1])
	}
}

func TestTimeSeriesMonthly(t *testing.T) {
	now := time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)
	w, _ := ResolveWindow(PeriodLast12Months, now)

	expenses := []core.Expense{
		exp("a", "2024-12-05", "1", 100),
		exp("b", "2024-12-20", "1", 200),
		exp("c", "2025-01-02", "1", 300),
		exp("d", "2024-01-01", "1", 9999), // outside
	}
	got := TimeSeries(expenses, w)
	if len(got) != 2 {
		t.Fatalf("buckets = %+v", got)
	}
	if got[0].Key != "2024-12" || got[0].Total.Cents != 300 || got[0].Label != "dez/24" {
		t.Fatalf("first bucket = %+v", got[0])
	}
	if got[1].Key != "2025-01" || got[1].Label != "jan/25" {
		t.Fatalf("second bucket = %+v", got[1])
	}
}

func TestAvailableYears(t *testing.T) {
	expenses := []core.Expense{
		exp("a", "2023-05-01", "1", 100),
		exp("b", "2025-01-01", "1", 100),
		exp("c", "2023-09-09", "1", 100),
		exp("d", "2024-02-02", "1", 100),
	}
	got := AvailableYears(expenses)
	want := []int{2025, 2024, 2023}
	if len(got) != len(want) {
		t.Fatalf("years = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("years = %v, want %v", got, want)
		}
	}
}

func TestMatchesHistoryFilter(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		date   string
		filter string
		want   bool
	}{
		{"all matches everything", "2020-01-01", HistoryAll, true},
		{"today match", "2025-03-15", HistoryToday, true},
		{"today miss", "2025-03-14", HistoryToday, false},
		{"week boundary", "2025-03-08", HistoryWeek, true},
		{"week miss", "2025-03-07", HistoryWeek, false},
		{"month match", "2025-03-01", HistoryMonth, true},
		{"month miss", "2025-02-28", HistoryMonth, false},
		{"year match", "2025-01-01", HistoryYear, true},
		{"year miss", "2024-12-31", HistoryYear, false},
		{"unknown filter passes", "2020-01-01", "whatever", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MatchesHistoryFilter(exp("x", tt.date, "1", 100), tt.filter, now); got != tt.want {
				t.Fatalf("MatchesHistoryFilter(%s, %s) = %v", tt.date, tt.filter, got)
			}
		})
	}
}
