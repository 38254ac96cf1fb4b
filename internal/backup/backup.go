// Package backup encodes the full data set as a single JSON document and
// restores from one. The document layout is the long-standing export
// format, so older files keep importing.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
)

// Document is the export shape. On import each section applies
// independently: a file carrying only some keys replaces only those
// collections, and unknown top-level keys are ignored.
type Document struct {
	Expenses           []core.Expense  `json:"expenses"`
	CategoriesPersonal []core.Category `json:"categories_personal"`
	CategoriesBusiness []core.Category `json:"categories_business"`
	Settings           *core.Settings  `json:"userSettings,omitempty"`
}

// Filename is the suggested download name for an export taken at now.
func Filename(now time.Time) string {
	return "financas_backup_" + now.Format(core.DateLayout) + ".json"
}

// Export gathers every collection into a Document.
func Export(ctx context.Context, store storage.Store) (Document, error) {
	var doc Document
	var err error

	if doc.Expenses, err = store.Expenses(ctx); err != nil {
		return doc, fmt.Errorf("export expenses: %w", err)
	}
	if doc.CategoriesPersonal, err = loadCategories(ctx, store, core.ScopePersonal); err != nil {
		return doc, err
	}
	if doc.CategoriesBusiness, err = loadCategories(ctx, store, core.ScopeBusiness); err != nil {
		return doc, err
	}
	settings, err := store.Settings(ctx)
	if err != nil {
		return doc, fmt.Errorf("export settings: %w", err)
	}
	doc.Settings = &settings
	return doc, nil
}

func loadCategories(ctx context.Context, store storage.Store, scope core.Scope) ([]core.Category, error) {
	categories, err := store.Categories(ctx, scope)
	if err == storage.ErrNotFound {
		return core.DefaultCategories(scope), nil
	}
	if err != nil {
		return nil, fmt.Errorf("export %s categories: %w", scope, err)
	}
	return categories, nil
}

// Import replaces the collections present in the document. Every present
// section is decoded before anything is written, so a malformed section
// leaves the store untouched. The settings section goes through the
// legacy-shape migration, so exports from old versions restore correctly.
// A document with no recognized section imports as a no-op.
func Import(ctx context.Context, store storage.Store, raw []byte) error {
	var sections map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sections); err != nil {
		return fmt.Errorf("parse backup document: %w", err)
	}

	var (
		expenses    []core.Expense
		hasExpenses bool
		categories  = map[core.Scope][]core.Category{}
		settings    *core.Settings
	)

	if part, ok := sections[storage.KeyExpenses]; ok {
		if err := json.Unmarshal(part, &expenses); err != nil {
			return fmt.Errorf("parse backup expenses: %w", err)
		}
		hasExpenses = true
	}
	for _, scope := range []core.Scope{core.ScopePersonal, core.ScopeBusiness} {
		part, ok := sections[storage.CategoriesKey(scope)]
		if !ok {
			continue
		}
		var list []core.Category
		if err := json.Unmarshal(part, &list); err != nil {
			return fmt.Errorf("parse backup %s categories: %w", scope, err)
		}
		categories[scope] = list
	}
	if part, ok := sections[storage.KeySettings]; ok {
		migrated, err := core.MigrateSettings(part)
		if err != nil {
			return fmt.Errorf("parse backup settings: %w", err)
		}
		settings = &migrated
	}

	applied := 0
	if hasExpenses {
		if err := store.SaveExpenses(ctx, expenses); err != nil {
			return fmt.Errorf("import expenses: %w", err)
		}
		applied++
	}
	for _, scope := range []core.Scope{core.ScopePersonal, core.ScopeBusiness} {
		list, ok := categories[scope]
		if !ok {
			continue
		}
		if err := store.SaveCategories(ctx, scope, list); err != nil {
			return fmt.Errorf("import %s categories: %w", scope, err)
		}
		applied++
	}
	if settings != nil {
		if err := store.SaveSettings(ctx, *settings); err != nil {
			return fmt.Errorf("import settings: %w", err)
		}
		applied++
	}

	slog.InfoContext(ctx, "Backup imported", "sections", applied)
	return nil
}
