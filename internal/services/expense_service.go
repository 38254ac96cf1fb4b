// Package services orchestrates the record collections: validation, ID
// assignment, whole-collection persistence and the sync side effects.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"financas/internal/amqp"
	"financas/internal/core"
	"financas/internal/storage"
)

var ErrExpenseNotFound = errors.New("expense not found")

// SyncPublisher enqueues mirror requests. *amqp.Client implements it.
type SyncPublisher interface {
	PublishExpenseSync(ctx context.Context, expenseID, action string) error
}

// ExpenseService owns the expense collection. Sync publication is
// best-effort: a broker outage never fails the local write.
type ExpenseService struct {
	store     storage.Store
	publisher SyncPublisher
	settings  *SettingsService

	now   func() time.Time
	newID func() string
}

func NewExpenseService(store storage.Store, publisher SyncPublisher, settings *SettingsService) *ExpenseService {
	return &ExpenseService{
		store:     store,
		publisher: publisher,
		settings:  settings,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// List returns the expense collection newest-created first.
func (s *ExpenseService) List(ctx context.Context) ([]core.Expense, error) {
	expenses, err := s.store.Expenses(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

// Create validates the draft, stamps identity and creation time, and
// persists it. Date defaults to today, scope to personal.
func (s *ExpenseService) Create(ctx context.Context, draft core.Expense) (core.Expense, error) {
	if draft.Date == "" {
		draft.Date = s.now().Format(core.DateLayout)
	}
	if draft.Scope == "" {
		draft.Scope = core.ScopePersonal
	}
	draft.ID = s.newID()
	draft.CreatedAt = s.now().UnixMilli()

	if err := draft.Validate(); err != nil {
		return core.Expense{}, err
	}

	expenses, err := s.store.Expenses(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expenses: %w", err)
	}
	expenses = append([]core.Expense{draft}, expenses...)
	if err := s.store.SaveExpenses(ctx, expenses); err != nil {
		return core.Expense{}, fmt.Errorf("save expenses: %w", err)
	}

	s.publish(ctx, draft.ID, amqp.ActionUpsert)
	return draft, nil
}

// Update replaces an existing record, keeping its ID and creation time.
func (s *ExpenseService) Update(ctx context.Context, updated core.Expense) (core.Expense, error) {
	if updated.ID == "" {
		return core.Expense{}, ErrExpenseNotFound
	}

	expenses, err := s.store.Expenses(ctx)
	if err != nil {
		return core.Expense{}, fmt.Errorf("load expenses: %w", err)
	}

	idx := -1
	for i, e := range expenses {
		if e.ID == updated.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Expense{}, ErrExpenseNotFound
	}

	updated.CreatedAt = expenses[idx].CreatedAt
	if updated.Scope == "" {
		updated.Scope = expenses[idx].EffectiveScope()
	}
	if err := updated.Validate(); err != nil {
		return core.Expense{}, err
	}

	expenses[idx] = updated
	if err := s.store.SaveExpenses(ctx, expenses); err != nil {
		return core.Expense{}, fmt.Errorf("save expenses: %w", err)
	}

	s.publish(ctx, updated.ID, amqp.ActionUpsert)
	return updated, nil
}

// Delete removes a record from the collection.
func (s *ExpenseService) Delete(ctx context.Context, id string) error {
	expenses, err := s.store.Expenses(ctx)
	if err != nil {
		return fmt.Errorf("load expenses: %w", err)
	}

	kept := make([]core.Expense, 0, len(expenses))
	found := false
	for _, e := range expenses {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return ErrExpenseNotFound
	}

	if err := s.store.SaveExpenses(ctx, kept); err != nil {
		return fmt.Errorf("save expenses: %w", err)
	}

	s.publish(ctx, id, amqp.ActionDelete)
	return nil
}

// publish enqueues a mirror request when auto-sync is on. Failures are
// logged, never surfaced: the local write already succeeded.
func (s *ExpenseService) publish(ctx context.Context, expenseID, action string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No sync publisher configured, skipping sync message")
		return
	}
	if s.settings != nil {
		settings, err := s.settings.Get(ctx)
		if err == nil && !settings.AutoSync {
			slog.DebugContext(ctx, "Auto-sync disabled, skipping sync message")
			return
		}
	}

	if err := s.publisher.PublishExpenseSync(ctx, expenseID, action); err != nil {
		slog.ErrorContext(ctx, "Failed to publish sync message",
			"expense_id", expenseID,
			"action", action,
			"error", err)
		return
	}
	if s.settings != nil {
		if err := s.settings.TouchLastSynced(ctx, s.now()); err != nil {
			slog.ErrorContext(ctx, "Failed to record sync time", "error", err)
		}
	}
}
