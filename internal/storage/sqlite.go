package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"financas/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps each collection as one JSON snapshot row.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM snapshots WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteStore) put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Expenses(ctx context.Context) ([]core.Expense, error) {
	raw, err := s.get(ctx, KeyExpenses)
	if errors.Is(err, ErrNotFound) {
		return []core.Expense{}, nil
	}
	if err != nil {
		return nil, err
	}
	var expenses []core.Expense
	if err := json.Unmarshal(raw, &expenses); err != nil {
		return nil, fmt.Errorf("decode expenses snapshot: %w", err)
	}
	return normalizeScopes(expenses), nil
}

func (s *SQLiteStore) SaveExpenses(ctx context.Context, expenses []core.Expense) error {
	if expenses == nil {
		expenses = []core.Expense{}
	}
	raw, err := json.Marshal(expenses)
	if err != nil {
		return fmt.Errorf("encode expenses snapshot: %w", err)
	}
	if err := s.put(ctx, KeyExpenses, raw); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expenses snapshot saved", "count", len(expenses))
	return nil
}

func (s *SQLiteStore) Categories(ctx context.Context, scope core.Scope) ([]core.Category, error) {
	raw, err := s.get(ctx, CategoriesKey(scope))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var categories []core.Category
	if err := json.Unmarshal(raw, &categories); err != nil {
		return nil, fmt.Errorf("decode categories snapshot: %w", err)
	}
	return categories, nil
}

func (s *SQLiteStore) SaveCategories(ctx context.Context, scope core.Scope, categories []core.Category) error {
	if categories == nil {
		categories = []core.Category{}
	}
	raw, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories snapshot: %w", err)
	}
	if err := s.put(ctx, CategoriesKey(scope), raw); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Categories snapshot saved", "scope", scope, "count", len(categories))
	return nil
}

func (s *SQLiteStore) Settings(ctx context.Context) (core.Settings, error) {
	raw, err := s.get(ctx, KeySettings)
	if errors.Is(err, ErrNotFound) {
		return core.DefaultSettings(), nil
	}
	if err != nil {
		return core.DefaultSettings(), err
	}
	settings, err := core.MigrateSettings(raw)
	if err != nil {
		slog.WarnContext(ctx, "Stored settings unreadable, using defaults", "error", err)
		return settings, nil
	}
	return settings, nil
}

func (s *SQLiteStore) SaveSettings(ctx context.Context, settings core.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("encode settings snapshot: %w", err)
	}
	return s.put(ctx, KeySettings, raw)
}
