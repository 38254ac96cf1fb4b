// Package memory is an in-memory ExpenseMirror for tests and for running
// the worker without Google credentials.
package memory

import (
	"context"
	"fmt"
	"sync"

	"financas/internal/sheets"
)

type Mirror struct {
	mu   sync.Mutex
	rows map[string]sheets.Row
}

var _ sheets.ExpenseMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{rows: make(map[string]sheets.Row)}
}

func (m *Mirror) Upsert(ctx context.Context, row sheets.Row) (string, error) {
	if row.ExpenseID == "" {
		return "", fmt.Errorf("row has no expense id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[row.ExpenseID] = row
	return "memory!" + row.ExpenseID, nil
}

func (m *Mirror) Delete(ctx context.Context, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rows, expenseID)
	return nil
}

// Row returns the mirrored row for an expense ID, if present.
func (m *Mirror) Row(expenseID string) (sheets.Row, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[expenseID]
	return row, ok
}

// Len reports how many rows are mirrored.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
