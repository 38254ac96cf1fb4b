// Package storage persists the four record collections the app owns:
// expenses, the two scoped category lists and user settings. Collections
// are written whole, last writer wins, matching the app's snapshot model.
package storage

import (
	"context"
	"errors"

	"financas/internal/core"
)

// ErrNotFound is returned when a collection has never been written.
var ErrNotFound = errors.New("storage: snapshot not found")

// Snapshot keys. These double as the top-level keys of backup documents,
// so they must stay stable.
const (
	KeyExpenses           = "expenses"
	KeyCategoriesPersonal = "categories_personal"
	KeyCategoriesBusiness = "categories_business"
	KeySettings           = "userSettings"
)

// CategoriesKey maps a scope to its snapshot key.
func CategoriesKey(scope core.Scope) string {
	if scope == core.ScopeBusiness {
		return KeyCategoriesBusiness
	}
	return KeyCategoriesPersonal
}

// normalizeScopes fills the scope of records persisted before scopes
// existed, so every record leaves the store tagged and read sites never
// need a fallback.
func normalizeScopes(expenses []core.Expense) []core.Expense {
	for i := range expenses {
		if expenses[i].Scope == "" {
			expenses[i].Scope = core.ScopePersonal
		}
	}
	return expenses
}

// Store is the persistence boundary. Implementations replace whole
// collections atomically per call; there is no per-record update.
type Store interface {
	Expenses(ctx context.Context) ([]core.Expense, error)
	SaveExpenses(ctx context.Context, expenses []core.Expense) error

	Categories(ctx context.Context, scope core.Scope) ([]core.Category, error)
	SaveCategories(ctx context.Context, scope core.Scope, categories []core.Category) error

	// Settings never fails with ErrNotFound: an absent snapshot yields
	// the defaults, and malformed stored bytes also yield the defaults
	// alongside the parse error.
	Settings(ctx context.Context) (core.Settings, error)
	SaveSettings(ctx context.Context, s core.Settings) error

	Close() error
}
