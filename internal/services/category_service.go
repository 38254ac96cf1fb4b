package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"financas/internal/core"
	"financas/internal/storage"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	// ErrLastCategory guards the invariant that a scope always keeps at
	// least one category.
	ErrLastCategory  = errors.New("cannot delete the last category of a scope")
	ErrEmptyCategory = errors.New("category name must not be empty")
)

// CategoryService owns the per-scope category lists, seeding the default
// palette on first access.
type CategoryService struct {
	store storage.Store
	newID func() string
}

func NewCategoryService(store storage.Store) *CategoryService {
	return &CategoryService{store: store, newID: uuid.NewString}
}

// List returns the scope's categories, seeding the defaults when the
// scope has never been written.
func (s *CategoryService) List(ctx context.Context, scope core.Scope) ([]core.Category, error) {
	categories, err := s.store.Categories(ctx, scope)
	if errors.Is(err, storage.ErrNotFound) {
		categories = core.DefaultCategories(scope)
		if err := s.store.SaveCategories(ctx, scope, categories); err != nil {
			return nil, fmt.Errorf("seed default categories: %w", err)
		}
		slog.InfoContext(ctx, "Seeded default categories", "scope", scope, "count", len(categories))
		return categories, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// Create appends a category with a fresh ID. Unknown icons fall back to
// the generic one.
func (s *CategoryService) Create(ctx context.Context, scope core.Scope, name, color, icon string) (core.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Category{}, ErrEmptyCategory
	}

	categories, err := s.List(ctx, scope)
	if err != nil {
		return core.Category{}, err
	}

	cat := core.Category{
		ID:    s.newID(),
		Name:  name,
		Color: color,
		Icon:  core.NormalizeIcon(icon),
	}
	if cat.Color == "" {
		cat.Color = core.FallbackCategory("").Color
	}

	categories = append(categories, cat)
	if err := s.store.SaveCategories(ctx, scope, categories); err != nil {
		return core.Category{}, fmt.Errorf("save categories: %w", err)
	}
	return cat, nil
}

// Update edits a category in place, preserving its ID.
func (s *CategoryService) Update(ctx context.Context, scope core.Scope, updated core.Category) (core.Category, error) {
	updated.Name = strings.TrimSpace(updated.Name)
	if updated.Name == "" {
		return core.Category{}, ErrEmptyCategory
	}
	updated.Icon = core.NormalizeIcon(updated.Icon)

	categories, err := s.List(ctx, scope)
	if err != nil {
		return core.Category{}, err
	}

	for i, cat := range categories {
		if cat.ID != updated.ID {
			continue
		}
		categories[i] = updated
		if err := s.store.SaveCategories(ctx, scope, categories); err != nil {
			return core.Category{}, fmt.Errorf("save categories: %w", err)
		}
		return updated, nil
	}
	return core.Category{}, ErrCategoryNotFound
}

// Delete removes a category. The last category of a scope cannot be
// deleted; expenses pointing at a deleted category keep their raw
// reference and render with the placeholder.
func (s *CategoryService) Delete(ctx context.Context, scope core.Scope, id string) error {
	categories, err := s.List(ctx, scope)
	if err != nil {
		return err
	}
	if len(categories) <= 1 {
		return ErrLastCategory
	}

	kept := make([]core.Category, 0, len(categories))
	found := false
	for _, cat := range categories {
		if cat.ID == id {
			found = true
			continue
		}
		kept = append(kept, cat)
	}
	if !found {
		return ErrCategoryNotFound
	}

	if err := s.store.SaveCategories(ctx, scope, kept); err != nil {
		return fmt.Errorf("save categories: %w", err)
	}
	return nil
}
