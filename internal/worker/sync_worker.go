// Package worker mirrors expenses from storage to the spreadsheet in
// response to sync messages.
package worker

import (
	"context"
	"fmt"
	"log/slog"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/sheets"
	"financas/internal/storage"
)

// SyncWorker resolves sync messages against the current storage state and
// applies them to the mirror.
type SyncWorker struct {
	store  storage.Store
	mirror sheets.ExpenseMirror
}

func NewSyncWorker(store storage.Store, mirror sheets.ExpenseMirror) *SyncWorker {
	return &SyncWorker{store: store, mirror: mirror}
}

// HandleSyncMessage processes one message. The message carries only the
// expense ID, so the worker always mirrors the latest stored state: an
// upsert for an expense that was deleted meanwhile becomes a delete.
func (w *SyncWorker) HandleSyncMessage(ctx context.Context, msg *amqp.ExpenseSyncMessage) error {
	slog.InfoContext(ctx, "Processing sync message",
		"expense_id", msg.ExpenseID,
		"action", msg.Action)

	if msg.ExpenseID == "" {
		return fmt.Errorf("sync message has no expense id")
	}

	switch msg.Action {
	case amqp.ActionDelete:
		return w.deleteFromMirror(ctx, msg.ExpenseID)
	case amqp.ActionUpsert, "":
		expense, found, err := w.lookupExpense(ctx, msg.ExpenseID)
		if err != nil {
			return err
		}
		if !found {
			slog.InfoContext(ctx, "Expense gone from storage, removing from mirror",
				"expense_id", msg.ExpenseID)
			return w.deleteFromMirror(ctx, msg.ExpenseID)
		}
		return w.upsertIntoMirror(ctx, expense)
	default:
		return fmt.Errorf("unknown sync action %q", msg.Action)
	}
}

// ResyncAll pushes every stored expense to the mirror. Used at startup to
// recover from missed messages or mirror downtime.
func (w *SyncWorker) ResyncAll(ctx context.Context) error {
	expenses, err := w.store.Expenses(ctx)
	if err != nil {
		return fmt.Errorf("load expenses for resync: %w", err)
	}
	if len(expenses) == 0 {
		slog.InfoContext(ctx, "No expenses to resync")
		return nil
	}

	successCount := 0
	errorCount := 0
	for _, e := range expenses {
		if err := w.upsertIntoMirror(ctx, e); err != nil {
			slog.ErrorContext(ctx, "Failed to resync expense", "expense_id", e.ID, "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Resync completed",
		"total", len(expenses),
		"synced", successCount,
		"errors", errorCount)
	if errorCount > 0 {
		return fmt.Errorf("resync finished with %d errors", errorCount)
	}
	return nil
}

func (w *SyncWorker) lookupExpense(ctx context.Context, expenseID string) (core.Expense, bool, error) {
	expenses, err := w.store.Expenses(ctx)
	if err != nil {
		return core.Expense{}, false, fmt.Errorf("load expenses: %w", err)
	}
	for _, e := range expenses {
		if e.ID == expenseID {
			return e, true, nil
		}
	}
	return core.Expense{}, false, nil
}

func (w *SyncWorker) upsertIntoMirror(ctx context.Context, e core.Expense) error {
	categories, err := w.store.Categories(ctx, e.EffectiveScope())
	if err == storage.ErrNotFound {
		categories = core.DefaultCategories(e.EffectiveScope())
	} else if err != nil {
		return fmt.Errorf("load categories: %w", err)
	}

	ref, err := w.mirror.Upsert(ctx, sheets.RowFromExpense(e, categories))
	if err != nil {
		return fmt.Errorf("upsert into mirror: %w", err)
	}

	slog.InfoContext(ctx, "Expense mirrored",
		"expense_id", e.ID,
		"row_ref", ref,
		"amount_cents", e.Amount.Cents)
	return nil
}

func (w *SyncWorker) deleteFromMirror(ctx context.Context, expenseID string) error {
	if err := w.mirror.Delete(ctx, expenseID); err != nil {
		return fmt.Errorf("delete from mirror: %w", err)
	}
	slog.InfoContext(ctx, "Expense removed from mirror", "expense_id", expenseID)
	return nil
}
