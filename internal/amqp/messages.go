package amqp

import (
	"encoding/json"
	"time"
)

// Sync actions carried in expense sync messages.
const (
	ActionUpsert = "upsert"
	ActionDelete = "delete"
)

// ExpenseSyncMessage asks the worker to mirror one expense to the sheet.
// It carries only the ID and the action; the worker reads the current
// record from storage, so a stale message can never resurrect old data.
type ExpenseSyncMessage struct {
	ExpenseID string    `json:"expenseId"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseSyncMessage(expenseID, action string) *ExpenseSyncMessage {
	return &ExpenseSyncMessage{
		ExpenseID: expenseID,
		Action:    action,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseSyncMessageFromJSON(data []byte) (*ExpenseSyncMessage, error) {
	var msg ExpenseSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
