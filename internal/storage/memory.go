package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"financas/internal/core"
)

// MemoryStore is an in-memory Store used in tests. It round-trips every
// collection through JSON so it exercises the same codecs as SQLite.
type MemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snapshots: make(map[string][]byte)}
}

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	raw, ok := s.snapshots[key]
	return raw, ok
}

func (s *MemoryStore) put(key string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[key] = raw
}

func (s *MemoryStore) Expenses(ctx context.Context) ([]core.Expense, error) {
	raw, ok := s.get(KeyExpenses)
	if !ok {
		return []core.Expense{}, nil
	}
	var expenses []core.Expense
	if err := json.Unmarshal(raw, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses snapshot: %w", err)
	}
	return normalizeScopes(expenses), nil
}

func (s *MemoryStore) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	raw, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses snapshot: %w", err)
	}
	s.put(KeyExpenses, raw)
	return nil
}

func (s *MemoryStore) Categories(ctx context.Context, scope core.Scope) ([]core.Category, error) {
	raw, ok := s.get(CategoriesKey(scope))
	if !ok {
		return nil, ErrNotFound
	}
	var categories []core.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode categories snapshot: %w", err)
	}
	return categories, nil
}

func (s *MemoryStore) SaveCategories(ctx context.Context, scope core.Scope, categories []core.Category) error {
	if categories == nil {
		categories = []core.Category{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories snapshot: %w", err)
	}
	s.put(CategoriesKey(scope), raw)
	return nil
}

func (s *MemoryStore) Settings(ctx context.Context) (core.Settings, error) {
	raw, ok := s.get(KeySettings)
	if !ok {
		return core.DefaultSettings(), nil
	}
	settings, err := core.MigrateSettings(raw)
	if err != nil {
		return settings, nil
	}
	return settings, nil
}

func (s *MemoryStore) SaveSettings(ctx context.Context, settings core.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings snapshot: %w", err)
	}
	s.put(KeySettings, raw)
	return nil
}
