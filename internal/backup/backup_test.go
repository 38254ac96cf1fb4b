package backup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
)

func TestFilename(t *testing.T) {
	now := time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)
	if got := Filename(now); got != "financas_backup_2025-03-15.json" {
		t.Fatalf("filename = %q", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := storage.NewMemoryStore()

	expenses := []core.Expense{
		{ID: "e1", Amount: core.Money{Cents: 4990}, CategoryID: "1", Date: "2025-03-10", Description: "Mercado", Scope: core.ScopePersonal},
	}
	if err := src.SaveExpenses(ctx, expenses); err != nil {
		t.Fatal(err)
	}
	if err := src.SaveCategories(ctx, core.ScopePersonal, []core.Category{{ID: "1", Name: "Alimentação", Color: "#ef4444", Icon: "utensils"}}); err != nil {
		t.Fatal(err)
	}
	settings := core.DefaultSettings()
	settings.Name = "Maria"
	settings.SetBudget(core.ScopeBusiness, core.Money{Cents: 500000})
	if err := src.SaveSettings(ctx, settings); err != nil {
		t.Fatal(err)
	}

	doc, err := Export(ctx, src)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// unseeded business categories export as the defaults
	if len(doc.CategoriesBusiness) == 0 {
		t.Fatal("business categories missing from export")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}

	dst := storage.NewMemoryStore()
	if err := Import(ctx, dst, raw); err != nil {
		t.Fatalf("import: %v", err)
	}

	gotExpenses, _ := dst.Expenses(ctx)
	if len(gotExpenses) != 1 || gotExpenses[0] != expenses[0] {
		t.Fatalf("imported expenses = %+v", gotExpenses)
	}
	gotSettings, _ := dst.Settings(ctx)
	if gotSettings.Name != "Maria" || gotSettings.Budget(core.ScopeBusiness).Cents != 500000 {
		t.Fatalf("imported settings = %+v", gotSettings)
	}
}

func TestImportPartialDocument(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveExpenses(ctx, []core.Expense{{ID: "keep", Amount: core.Money{Cents: 1}, CategoryID: "1", Date: "2025-01-01", Description: "x"}}); err != nil {
		t.Fatal(err)
	}

	// only settings present, with the legacy single-budget shape
	raw := []byte(`{"userSettings": {"name": "Ana", "monthlyBudget": 250}, "somethingElse": 1}`)
	if err := Import(ctx, store, raw); err != nil {
		t.Fatalf("import: %v", err)
	}

	expenses, _ := store.Expenses(ctx)
	if len(expenses) != 1 || expenses[0].ID != "keep" {
		t.Fatalf("expenses were touched: %+v", expenses)
	}
	settings, _ := store.Settings(ctx)
	if settings.Name != "Ana" {
		t.Fatalf("settings name = %q", settings.Name)
	}
	if settings.Budget(core.ScopePersonal).Cents != 25000 {
		t.Fatalf("legacy budget = %d, want 25000", settings.Budget(core.ScopePersonal).Cents)
	}
}

func TestImportRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()

	if err := Import(ctx, store, []byte(`not json`)); err == nil {
		t.Fatal("malformed document accepted")
	}
	if err := Import(ctx, store, []byte(`{"expenses": "nope"}`)); err == nil {
		t.Fatal("wrong-typed section accepted")
	}
	// a document with no known sections skips everything
	if err := Import(ctx, store, []byte(`{"unrelated": true}`)); err != nil {
		t.Fatalf("no-section document rejected: %v", err)
	}
}

func TestImportBadSectionLeavesStoreUntouched(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveExpenses(ctx, []core.Expense{{ID: "keep", Amount: core.Money{Cents: 100}, CategoryID: "1", Date: "2025-02-01", Description: "x"}}); err != nil {
		t.Fatal(err)
	}

	// the expenses section is valid, but a later section is not: nothing
	// may be written
	docs := [][]byte{
		[]byte(`{"expenses": [], "categories_personal": 42}`),
		[]byte(`{"expenses": [], "userSettings": "nope"}`),
	}
	for _, raw := range docs {
		if err := Import(ctx, store, raw); err == nil {
			t.Fatalf("document %s accepted", raw)
		}
		expenses, _ := store.Expenses(ctx)
		if len(expenses) != 1 || expenses[0].ID != "keep" {
			t.Fatalf("document %s replaced expenses: %+v", raw, expenses)
		}
	}
}
