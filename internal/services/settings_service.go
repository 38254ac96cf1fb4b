package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"financas/internal/core"
	"financas/internal/storage"
)

var ErrInvalidBudget = errors.New("monthly budget must not be negative")

// SettingsService owns the settings snapshot.
type SettingsService struct {
	store storage.Store
}

func NewSettingsService(store storage.Store) *SettingsService {
	return &SettingsService{store: store}
}

// Get returns the current settings, already migrated from any legacy
// stored shape.
func (s *SettingsService) Get(ctx context.Context) (core.Settings, error) {
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return core.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

// Update replaces the settings snapshot. Unknown fields carried in the
// incoming document survive the write.
func (s *SettingsService) Update(ctx context.Context, settings core.Settings) (core.Settings, error) {
	if settings.MonthlyBudgets.Personal.Cents < 0 || settings.MonthlyBudgets.Business.Cents < 0 {
		return core.Settings{}, ErrInvalidBudget
	}
	if settings.Name == "" {
		settings.Name = core.DefaultSettings().Name
	}
	if settings.Theme == "" {
		settings.Theme = core.DefaultSettings().Theme
	}

	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}

// SetBudget updates one scope's monthly budget, leaving the rest of the
// settings untouched.
func (s *SettingsService) SetBudget(ctx context.Context, scope core.Scope, budget core.Money) (core.Settings, error) {
	if budget.Cents < 0 {
		return core.Settings{}, ErrInvalidBudget
	}
	settings, err := s.Get(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	settings.SetBudget(scope, budget)
	return s.Update(ctx, settings)
}

// TouchLastSynced records a successful sync publication.
func (s *SettingsService) TouchLastSynced(ctx context.Context, at time.Time) error {
	settings, err := s.Get(ctx)
	if err != nil {
		return err
	}
	settings.LastSyncedAt = at.UnixMilli()
	if err := s.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
