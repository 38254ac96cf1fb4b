package services

import (
	"context"
	"errors"
	"testing"

	"financas/internal/core"
	"financas/internal/storage"
)

func TestListSeedsDefaults(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewCategoryService(store)

	personal, err := svc.List(ctx, core.ScopePersonal)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(personal) != len(core.DefaultCategories(core.ScopePersonal)) {
		t.Fatalf("seeded %d personal categories", len(personal))
	}

	business, err := svc.List(ctx, core.ScopeBusiness)
	if err != nil {
		t.Fatal(err)
	}
	if len(business) != len(core.DefaultCategories(core.ScopeBusiness)) {
		t.Fatalf("seeded %d business categories", len(business))
	}

	// seeding persisted: the store now answers directly
	stored, err := store.Categories(ctx, core.ScopePersonal)
	if err != nil {
		t.Fatalf("store after seed: %v", err)
	}
	if len(stored) != len(personal) {
		t.Fatal("seed not persisted")
	}
}

func TestCreateCategory(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(storage.NewMemoryStore())

	got, err := svc.Create(ctx, core.ScopePersonal, "  Streaming  ", "#8b5cf6", "tv")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if got.ID == "" || got.Name != "Streaming" || got.Icon != "tv" {
		t.Fatalf("created = %+v", got)
	}

	// unknown icon falls back
	got, err = svc.Create(ctx, core.ScopePersonal, "Outra", "", "rocketship")
	if err != nil {
		t.Fatal(err)
	}
	if got.Icon != core.IconFallback {
		t.Errorf("icon = %q, want fallback", got.Icon)
	}
	if got.Color == "" {
		t.Error("no fallback color assigned")
	}

	if _, err := svc.Create(ctx, core.ScopePersonal, "   ", "#fff", "tv"); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("err = %v, want ErrEmptyCategory", err)
	}
}

func TestUpdateCategory(t *testing.T) {
	ctx := context.Background()
	svc := NewCategoryService(storage.NewMemoryStore())

	created, err := svc.Create(ctx, core.ScopeBusiness, "Frota", "#3b82f6", "car")
	if err != nil {
		t.Fatal(err)
	}

	created.Name = "Frota e combustível"
	created.Icon = "fuel"
	got, err := svc.Update(ctx, core.ScopeBusiness, created)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Name != "Frota e combustível" || got.Icon != "fuel" {
		t.Fatalf("updated = %+v", got)
	}

	ghost := core.Category{ID: "ghost", Name: "X"}
	if _, err := svc.Update(ctx, core.ScopeBusiness, ghost); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
}

func TestDeleteCategory(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	svc := NewCategoryService(store)

	categories, err := svc.List(ctx, core.ScopePersonal)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, core.ScopePersonal, categories[0].ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, _ := svc.List(ctx, core.ScopePersonal)
	if len(after) != len(categories)-1 {
		t.Fatalf("len after delete = %d", len(after))
	}

	if err := svc.Delete(ctx, core.ScopePersonal, "ghost"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("err = %v, want ErrCategoryNotFound", err)
	}
}

func TestDeleteLastCategoryRefused(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	if err := store.SaveCategories(ctx, core.ScopePersonal, []core.Category{{ID: "only", Name: "Única"}}); err != nil {
		t.Fatal(err)
	}
	svc := NewCategoryService(store)

	if err := svc.Delete(ctx, core.ScopePersonal, "only"); !errors.Is(err, ErrLastCategory) {
		t.Fatalf("err = %v, want ErrLastCategory", err)
	}
	left, _ := svc.List(ctx, core.ScopePersonal)
	if len(left) != 1 {
		t.Fatal("last category was deleted")
	}
}
