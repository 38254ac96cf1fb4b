package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/receipt"
	"financas/internal/services"
	"financas/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()

	store := storage.NewMemoryStore()
	settings := services.NewSettingsService(store)
	s := NewServer("127.0.0.1:0", Deps{
		Expenses:   services.NewExpenseService(store, nil, settings),
		Categories: services.NewCategoryService(store),
		Settings:   settings,
		Store:      store,
		Suggester:  nil,
		Receipts:   receipt.NewNormalizer(),
	})
	s.now = func() time.Time {
		return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	}
	t.Cleanup(func() {
		_ = s.Shutdown(context.Background())
	})
	return s, store
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func createExpense(t *testing.T, s *Server, date string, cents int64, categoryID string, scope core.Scope) core.Expense {
	t.Helper()
	rec := doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
		"amount":      float64(cents) / 100,
		"categoryId":  categoryID,
		"date":        date,
		"description": "despesa " + date,
		"scope":       scope,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense: got status %d, body %s", rec.Code, rec.Body.String())
	}
	return decodeBody[core.Expense](t, rec)
}

func TestHealthEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doRequest(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: got status %d, want 200", path, rec.Code)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q, want no-store", got)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	s, _ := newTestServer(t)

	created := createExpense(t, s, "2025-03-10", 2550, "food", core.ScopePersonal)
	if created.ID == "" {
		t.Fatal("created expense has no ID")
	}
	if created.CreatedAt == 0 {
		t.Error("created expense has no creation timestamp")
	}
	if created.Amount.Cents != 2550 {
		t.Errorf("got amount %d cents, want 2550", created.Amount.Cents)
	}

	rec := doRequest(t, s, http.MethodPut, "/api/expenses/"+created.ID, map[string]any{
		"amount":      30.00,
		"categoryId":  "transport",
		"date":        "2025-03-11",
		"description": "corrigida",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: got status %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decodeBody[core.Expense](t, rec)
	if updated.Amount.Cents != 3000 || updated.Description != "corrigida" {
		t.Errorf("update not applied: %+v", updated)
	}
	if updated.CreatedAt != created.CreatedAt {
		t.Error("update must preserve the creation timestamp")
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: got status %d", rec.Code)
	}

	rec = doRequest(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete: got status %d, want 404", rec.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{"zero amount", map[string]any{"amount": 0, "categoryId": "food", "date": "2025-03-10", "description": "x"}, http.StatusUnprocessableEntity},
		{"missing category", map[string]any{"amount": 10, "date": "2025-03-10", "description": "x"}, http.StatusUnprocessableEntity},
		{"bad date", map[string]any{"amount": 10, "categoryId": "food", "date": "10/03/2025", "description": "x"}, http.StatusUnprocessableEntity},
		{"empty description", map[string]any{"amount": 10, "categoryId": "food", "date": "2025-03-10", "description": "  "}, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doRequest(t, s, http.MethodPost, "/api/expenses", tt.body)
			if rec.Code != tt.status {
				t.Errorf("got status %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/expenses", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rec.Code)
		}
	})

	t.Run("update unknown id", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPut, "/api/expenses/ghost", map[string]any{
			"amount": 10, "categoryId": "food", "date": "2025-03-10", "description": "x",
		})
		if rec.Code != http.StatusNotFound {
			t.Errorf("got status %d, want 404", rec.Code)
		}
	})
}

func TestListExpensesFilters(t *testing.T) {
	s, _ := newTestServer(t)

	createExpense(t, s, "2025-03-15", 1000, "food", core.ScopePersonal)
	createExpense(t, s, "2025-03-01", 2000, "1", core.ScopePersonal)
	createExpense(t, s, "2024-12-25", 3000, "food", core.ScopeBusiness)

	t.Run("all newest first", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/expenses", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d", rec.Code)
		}
		resp := decodeBody[expenseListResponse](t, rec)
		if len(resp.Expenses) != 3 {
			t.Fatalf("got %d expenses, want 3", len(resp.Expenses))
		}
		if resp.Expenses[0].Date != "2025-03-15" || resp.Expenses[2].Date != "2024-12-25" {
			t.Errorf("not sorted newest first: %s .. %s", resp.Expenses[0].Date, resp.Expenses[2].Date)
		}
		if resp.RepeatCounts["2025-03_food"] != 1 {
			t.Errorf("repeat count 2025-03_food = %d, want 1", resp.RepeatCounts["2025-03_food"])
		}
	})

	t.Run("today filter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/expenses?filter=today", nil)
		resp := decodeBody[expenseListResponse](t, rec)
		if len(resp.Expenses) != 1 || resp.Expenses[0].Date != "2025-03-15" {
			t.Errorf("today filter returned %+v", resp.Expenses)
		}
	})

	t.Run("scope filter", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/expenses?scope=business", nil)
		resp := decodeBody[expenseListResponse](t, rec)
		if len(resp.Expenses) != 1 || resp.Expenses[0].Date != "2024-12-25" {
			t.Errorf("scope filter returned %+v", resp.Expenses)
		}
	})

	t.Run("search by category name", func(t *testing.T) {
		// Personal defaults seed category ID "1" as Restaurante.
		rec := doRequest(t, s, http.MethodGet, "/api/expenses?q=restaurante", nil)
		resp := decodeBody[expenseListResponse](t, rec)
		if len(resp.Expenses) != 1 || resp.Expenses[0].CategoryID != "1" {
			t.Errorf("search returned %+v", resp.Expenses)
		}
	})

	t.Run("unknown scope rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/expenses?scope=corporate", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rec.Code)
		}
	})
}

func TestSummary(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPut, "/api/settings", map[string]any{
		"name":           "Ana",
		"theme":          "dark",
		"autoSync":       false,
		"monthlyBudgets": map[string]any{"personal": 500, "business": 0},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("settings update: got status %d, body %s", rec.Code, rec.Body.String())
	}

	createExpense(t, s, "2025-03-10", 10000, "food", core.ScopePersonal)
	createExpense(t, s, "2025-03-12", 5000, "transport", core.ScopePersonal)
	createExpense(t, s, "2025-02-20", 7700, "food", core.ScopePersonal)
	createExpense(t, s, "2025-03-13", 99999, "office", core.ScopeBusiness)

	rec = doRequest(t, s, http.MethodGet, "/api/summary", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: got status %d", rec.Code)
	}
	got := decodeBody[summaryResponse](t, rec)

	if got.MonthTotal.Cents != 15000 {
		t.Errorf("month total = %d cents, want 15000", got.MonthTotal.Cents)
	}
	if got.PreviousMonthTotal.Cents != 7700 {
		t.Errorf("previous month total = %d cents, want 7700", got.PreviousMonthTotal.Cents)
	}
	// 150.00 spent over 15 elapsed days.
	if got.DailyAverage.Cents != 1000 {
		t.Errorf("daily average = %d cents, want 1000", got.DailyAverage.Cents)
	}
	if got.Budget.Budget.Cents != 50000 || got.Budget.Remaining.Cents != 35000 {
		t.Errorf("budget status = %+v", got.Budget)
	}
	if got.Budget.Percentage != 30 {
		t.Errorf("budget percentage = %v, want 30", got.Budget.Percentage)
	}
	if got.Tithe.Cents != 3500 {
		t.Errorf("tithe = %d cents, want 3500", got.Tithe.Cents)
	}
}

func TestSummaryCacheInvalidation(t *testing.T) {
	s, _ := newTestServer(t)

	createExpense(t, s, "2025-03-10", 1000, "food", core.ScopePersonal)
	first := decodeBody[summaryResponse](t, doRequest(t, s, http.MethodGet, "/api/summary", nil))
	if first.MonthTotal.Cents != 1000 {
		t.Fatalf("month total = %d, want 1000", first.MonthTotal.Cents)
	}

	createExpense(t, s, "2025-03-11", 500, "food", core.ScopePersonal)
	second := decodeBody[summaryResponse](t, doRequest(t, s, http.MethodGet, "/api/summary", nil))
	if second.MonthTotal.Cents != 1500 {
		t.Errorf("month total after write = %d, want 1500 (stale cache?)", second.MonthTotal.Cents)
	}
}

func TestCharts(t *testing.T) {
	s, _ := newTestServer(t)

	createExpense(t, s, "2025-03-15", 1000, "food", core.ScopePersonal)
	createExpense(t, s, "2025-03-15", 500, "transport", core.ScopePersonal)
	createExpense(t, s, "2025-01-02", 2000, "food", core.ScopePersonal)
	createExpense(t, s, "2024-06-01", 9999, "food", core.ScopePersonal)

	t.Run("this year", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/charts?period=this_year", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d", rec.Code)
		}
		got := decodeBody[chartsResponse](t, rec)
		if got.Total.Cents != 3500 {
			t.Errorf("total = %d cents, want 3500", got.Total.Cents)
		}
		if len(got.Breakdown) != 2 || got.Breakdown[0].Category.ID != "food" {
			t.Errorf("breakdown = %+v", got.Breakdown)
		}
		if len(got.Series) != 2 {
			t.Errorf("series has %d buckets, want 2 (jan, mar)", len(got.Series))
		}
		if want := []int{2025, 2024}; len(got.AvailableYears) != 2 || got.AvailableYears[0] != want[0] {
			t.Errorf("available years = %v, want %v", got.AvailableYears, want)
		}
	})

	t.Run("today with category selection", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/charts?period=today&categories=food", nil)
		got := decodeBody[chartsResponse](t, rec)
		if got.Total.Cents != 1000 {
			t.Errorf("total = %d cents, want 1000", got.Total.Cents)
		}
	})

	t.Run("unknown period", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/charts?period=fortnight", nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rec.Code)
		}
	})
}

func TestCategoryEndpoints(t *testing.T) {
	s, store := newTestServer(t)

	t.Run("list seeds defaults", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/categories", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d", rec.Code)
		}
		categories := decodeBody[[]core.Category](t, rec)
		if len(categories) == 0 {
			t.Fatal("expected seeded default categories")
		}
	})

	t.Run("create update delete", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/categories?scope=business", map[string]any{
			"name": "Viagens", "color": "#ff8800", "icon": "plane",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("create: got status %d, body %s", rec.Code, rec.Body.String())
		}
		created := decodeBody[core.Category](t, rec)

		rec = doRequest(t, s, http.MethodPut, "/api/categories/"+created.ID+"?scope=business", map[string]any{
			"name": "Viagens corporativas", "color": created.Color, "icon": created.Icon,
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("update: got status %d", rec.Code)
		}

		rec = doRequest(t, s, http.MethodDelete, "/api/categories/"+created.ID+"?scope=business", nil)
		if rec.Code != http.StatusNoContent {
			t.Errorf("delete: got status %d", rec.Code)
		}
	})

	t.Run("empty name rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPost, "/api/categories", map[string]any{"name": "   "})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("got status %d, want 422", rec.Code)
		}
	})

	t.Run("last category protected", func(t *testing.T) {
		only := core.Category{ID: "solo", Name: "Única", Color: "#123456"}
		if err := store.SaveCategories(context.Background(), core.ScopePersonal, []core.Category{only}); err != nil {
			t.Fatal(err)
		}
		rec := doRequest(t, s, http.MethodDelete, "/api/categories/solo", nil)
		if rec.Code != http.StatusConflict {
			t.Errorf("got status %d, want 409", rec.Code)
		}
	})
}

func TestSettingsEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("defaults", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodGet, "/api/settings", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d", rec.Code)
		}
		got := decodeBody[core.Settings](t, rec)
		if !got.AutoSync {
			t.Error("fresh settings should default autoSync to true")
		}
	})

	t.Run("negative budget rejected", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPut, "/api/settings", map[string]any{
			"monthlyBudgets": map[string]any{"personal": -1, "business": 0},
		})
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("got status %d, want 422", rec.Code)
		}
	})

	t.Run("unknown keys survive", func(t *testing.T) {
		rec := doRequest(t, s, http.MethodPut, "/api/settings", map[string]any{
			"name": "Ana", "pinHash": "abc123",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
		}
		raw := doRequest(t, s, http.MethodGet, "/api/settings", nil).Body.String()
		if !strings.Contains(raw, "pinHash") {
			t.Errorf("unknown settings key dropped: %s", raw)
		}
	})
}

func TestBackupEndpoints(t *testing.T) {
	s, _ := newTestServer(t)

	created := createExpense(t, s, "2025-03-10", 4200, "food", core.ScopePersonal)

	rec := doRequest(t, s, http.MethodGet, "/api/backup", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: got status %d", rec.Code)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "financas_backup_2025-03-15.json") {
		t.Errorf("Content-Disposition = %q", disposition)
	}
	exported := rec.Body.Bytes()

	// Wipe the record, then restore from the export.
	doRequest(t, s, http.MethodDelete, "/api/expenses/"+created.ID, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/backup", bytes.NewReader(exported))
	imp := httptest.NewRecorder()
	s.Handler.ServeHTTP(imp, req)
	if imp.Code != http.StatusOK {
		t.Fatalf("import: got status %d, body %s", imp.Code, imp.Body.String())
	}

	list := decodeBody[expenseListResponse](t, doRequest(t, s, http.MethodGet, "/api/expenses", nil))
	if len(list.Expenses) != 1 || list.Expenses[0].ID != created.ID {
		t.Errorf("restore did not bring the expense back: %+v", list.Expenses)
	}

	t.Run("garbage rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/backup", strings.NewReader(`not a backup`))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rec.Code)
		}
	})

	t.Run("bad section leaves data intact", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/backup", strings.NewReader(`{"expenses": [], "categories_personal": 42}`))
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("got status %d, want 400", rec.Code)
		}
		list := decodeBody[expenseListResponse](t, doRequest(t, s, http.MethodGet, "/api/expenses", nil))
		if len(list.Expenses) != 1 {
			t.Errorf("failed import changed the expense collection: %+v", list.Expenses)
		}
	})
}

func TestSuggestUnconfigured(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doRequest(t, s, http.MethodPost, "/api/suggest", map[string]any{"text": "almoço 25 reais"})
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("got status %d, want 503", rec.Code)
	}

	rec = doRequest(t, s, http.MethodPost, "/api/suggest", map[string]any{"text": "  "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("empty text: got status %d, want 422", rec.Code)
	}
}

func TestReceiptUpload(t *testing.T) {
	s, _ := newTestServer(t)

	upload := func(t *testing.T, payload []byte) *httptest.ResponseRecorder {
		t.Helper()
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", "receipt.png")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := part.Write(payload); err != nil {
			t.Fatal(err)
		}
		_ = mw.Close()

		req := httptest.NewRequest(http.MethodPost, "/api/receipts", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("png normalized", func(t *testing.T) {
		img := image.NewRGBA(image.Rect(0, 0, 40, 30))
		for x := 0; x < 40; x++ {
			for y := 0; y < 30; y++ {
				img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), A: 255})
			}
		}
		var pngBuf bytes.Buffer
		if err := png.Encode(&pngBuf, img); err != nil {
			t.Fatal(err)
		}

		rec := upload(t, pngBuf.Bytes())
		if rec.Code != http.StatusOK {
			t.Fatalf("got status %d, body %s", rec.Code, rec.Body.String())
		}
		got := decodeBody[receiptResponse](t, rec)
		if !strings.HasPrefix(got.ReceiptImage, "data:image/jpeg;base64,") {
			t.Errorf("unexpected data URL prefix: %.40s", got.ReceiptImage)
		}
	})

	t.Run("garbage rejected", func(t *testing.T) {
		rec := upload(t, []byte("definitely not an image"))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("got status %d, want 422", rec.Code)
		}
	})

	t.Run("missing field", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/receipts", strings.NewReader("plain"))
		req.Header.Set("Content-Type", "text/plain")
		rec := httptest.NewRecorder()
		s.Handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("got status %d, want 400", rec.Code)
		}
	})
}

func TestMutationRateLimit(t *testing.T) {
	s, _ := newTestServer(t)

	hit := false
	for i := 0; i < 150; i++ {
		rec := doRequest(t, s, http.MethodPost, "/api/expenses", map[string]any{
			"amount": 10, "categoryId": "food", "date": "2025-03-10", "description": fmt.Sprintf("n%d", i),
		})
		if rec.Code == http.StatusTooManyRequests {
			hit = true
			break
		}
	}
	if !hit {
		t.Error("mutation flood never hit the rate limit")
	}

	rec := doRequest(t, s, http.MethodGet, "/api/expenses", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("reads should not be rate limited, got status %d", rec.Code)
	}
}
