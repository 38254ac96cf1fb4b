// Package sheets defines the outbound port for mirroring expenses to a
// spreadsheet. The worker is the only caller.
package sheets

import (
	"context"

	"financas/internal/core"
)

// Row is one mirrored expense as it appears in the spreadsheet.
type Row struct {
	ExpenseID    string
	Date         string
	Description  string
	Amount       core.Money
	CategoryName string
	Scope        core.Scope
}

// RowFromExpense builds a mirror row, resolving the category name from
// the scope's category list.
func RowFromExpense(e core.Expense, categories []core.Category) Row {
	return Row{
		ExpenseID:    e.ID,
		Date:         e.Date,
		Description:  e.Description,
		Amount:       e.Amount,
		CategoryName: core.FindCategory(categories, e.CategoryID).Name,
		Scope:        e.EffectiveScope(),
	}
}

// ExpenseMirror is the outbound adapter port.
type ExpenseMirror interface {
	// Upsert writes the row, replacing any earlier row for the same
	// expense ID, and returns a reference to the written row.
	Upsert(ctx context.Context, row Row) (rowRef string, err error)
	// Delete removes the row for the expense ID. Deleting an ID that
	// was never mirrored is not an error.
	Delete(ctx context.Context, expenseID string) error
}
