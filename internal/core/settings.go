package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type (
	// Budgets holds the monthly spending ceiling per scope. Zero means the
	// budget is unset for that scope.
	Budgets struct {
		Personal Money `json:"personal"`
		Business Money `json:"business"`
	}

	// ScopeNames carries optional user-chosen display names per scope.
	ScopeNames struct {
		Personal string `json:"personal"`
		Business string `json:"business"`
	}

	// Settings is the singleton user-settings object. It is loaded once at
	// startup through MigrateSettings and re-persisted on every mutation.
	//
	// Fields persisted by newer app versions that this build does not know
	// about survive a load/save cycle through Extra.
	Settings struct {
		Name           string
		Theme          string
		AutoSync       bool
		LastSyncedAt   int64
		MonthlyBudgets Budgets
		Names          *ScopeNames
		Extra          map[string]json.RawMessage
	}
)

// settings keys owned by this build; everything else is passthrough.
var settingsKnownKeys = []string{
	"name", "theme", "autoSync", "lastSyncedAt", "monthlyBudgets", "names",
}

// DefaultSettings is the shape used when nothing was ever persisted.
func DefaultSettings() Settings {
	return Settings{
		Name:     "Usuário",
		Theme:    "light",
		AutoSync: true,
	}
}

// Budget returns the configured monthly budget for a scope.
func (s Settings) Budget(scope Scope) Money {
	if scope == ScopeBusiness {
		return s.MonthlyBudgets.Business
	}
	return s.MonthlyBudgets.Personal
}

// SetBudget replaces the budget for one scope, leaving the other untouched.
func (s *Settings) SetBudget(scope Scope, m Money) {
	if scope == ScopeBusiness {
		s.MonthlyBudgets.Business = m
		return
	}
	s.MonthlyBudgets.Personal = m
}

func (s Settings) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(s.Extra)+len(settingsKnownKeys))
	for k, v := range s.Extra {
		doc[k] = v
	}
	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("marshal settings field %s: %w", key, err)
		}
		doc[key] = b
		return nil
	}
	if err := put("name", s.Name); err != nil {
		return nil, err
	}
	if err := put("theme", s.Theme); err != nil {
		return nil, err
	}
	if err := put("autoSync", s.AutoSync); err != nil {
		return nil, err
	}
	if err := put("monthlyBudgets", s.MonthlyBudgets); err != nil {
		return nil, err
	}
	if s.LastSyncedAt != 0 {
		if err := put("lastSyncedAt", s.LastSyncedAt); err != nil {
			return nil, err
		}
	}
	if s.Names != nil {
		if err := put("names", s.Names); err != nil {
			return nil, err
		}
	}
	return json.Marshal(doc)
}

func (s *Settings) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse settings: %w", err)
	}
	take := func(key string, dst any) error {
		raw, ok := doc[key]
		if !ok {
			return nil
		}
		delete(doc, key)
		if err := json.Unmarshal(raw, dst); err != nil {
			return fmt.Errorf("parse settings field %s: %w", key, err)
		}
		return nil
	}
	*s = Settings{}
	if err := take("name", &s.Name); err != nil {
		return err
	}
	if err := take("theme", &s.Theme); err != nil {
		return err
	}
	// Absent autoSync defaults to on; MigrateSettings relies on this.
	s.AutoSync = true
	if err := take("autoSync", &s.AutoSync); err != nil {
		return err
	}
	if err := take("lastSyncedAt", &s.LastSyncedAt); err != nil {
		return err
	}
	if err := take("monthlyBudgets", &s.MonthlyBudgets); err != nil {
		return err
	}
	if err := take("names", &s.Names); err != nil {
		return err
	}
	if len(doc) > 0 {
		s.Extra = doc
	}
	return nil
}

// MigrateSettings upgrades a persisted settings payload to the current
// schema. It runs exactly once per process start, before anything reads
// settings, and is idempotent: feeding its own output back is a no-op.
//
// Legacy payloads carried a single numeric monthlyBudget; it folds into
// MonthlyBudgets.Personal, overwriting any value there, while
// MonthlyBudgets.Business keeps its value (zero if absent).
func MigrateSettings(raw []byte) (Settings, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return DefaultSettings(), nil
	}
	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("migrate settings: %w", err)
	}
	if legacy, ok := s.Extra["monthlyBudget"]; ok {
		var budget Money
		if err := json.Unmarshal(legacy, &budget); err == nil {
			s.MonthlyBudgets.Personal = budget
		}
		delete(s.Extra, "monthlyBudget")
		if len(s.Extra) == 0 {
			s.Extra = nil
		}
	}
	return s, nil
}
