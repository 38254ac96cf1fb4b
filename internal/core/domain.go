package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	ScopePersonal Scope = "personal"
	ScopeBusiness Scope = "business"
)

// DateLayout is the calendar-date format every expense carries.
// Dates are plain calendar days; no time-of-day, no timezone.
const DateLayout = "2006-01-02"

type (
	// Scope is one of the two independent accounting contexts. Each scope
	// owns its category collection and its monthly budget; the expense
	// collection is shared and tagged per record.
	Scope string

	// Category is a user-managed expense category. Identity is ID; the
	// icon is a key into the icon registry (see icons.go).
	Category struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Color string `json:"color"`
		Icon  string `json:"icon,omitempty"`
	}

	// Expense is a single expense record. ID and CreatedAt are set once at
	// creation and never change; every other field is replaceable by edit.
	// Scope may be empty on records persisted by old versions and then
	// means personal.
	Expense struct {
		ID           string `json:"id"`
		Amount       Money  `json:"amount"`
		CategoryID   string `json:"categoryId"`
		Date         string `json:"date"`
		Description  string `json:"description"`
		CreatedAt    int64  `json:"createdAt"`
		Scope        Scope  `json:"scope,omitempty"`
		ReceiptImage string `json:"receiptImage,omitempty"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrInvalidScope     = errors.New("invalid scope")
)

// ParseScope validates a scope string. The empty string maps to personal
// for compatibility with records persisted before scopes existed.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case "":
		return ScopePersonal, nil
	case ScopePersonal, ScopeBusiness:
		return Scope(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
	}
}

// EffectiveScope returns the record's scope, defaulting legacy records to
// personal.
func (e Expense) EffectiveScope() Scope {
	if e.Scope == "" {
		return ScopePersonal
	}
	return e.Scope
}

// Day returns the calendar date the expense belongs to. Invalid stored
// dates return the zero time; callers filter those out rather than fail.
func (e Expense) Day() time.Time {
	t, err := time.ParseInLocation(DateLayout, e.Date, time.Local)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, e.Date)
	}
	if _, err := ParseScope(string(e.Scope)); err != nil {
		return err
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("empty category id")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("empty category name")
	}
	if !strings.HasPrefix(c.Color, "#") {
		return fmt.Errorf("invalid color %q: expected hex value", c.Color)
	}
	return nil
}

// FallbackCategory is what an expense renders as when its category was
// deleted. The raw category ID keeps aggregating correctly; only the
// display degrades.
func FallbackCategory(id string) Category {
	return Category{ID: id, Name: "Desconhecido", Color: "#cbd5e1", Icon: IconFallback}
}

// FindCategory looks a category up by ID, falling back to the placeholder
// rendering when the reference is orphaned.
func FindCategory(categories []Category, id string) Category {
	for _, c := range categories {
		if c.ID == id {
			return c
		}
	}
	return FallbackCategory(id)
}

// DefaultCategories returns the seed category collection for a scope that
// has never persisted one.
func DefaultCategories(scope Scope) []Category {
	if scope == ScopeBusiness {
		return []Category{
			{ID: "mv_1", Name: "Gasolina Carro", Color: "#EF4444", Icon: "car"},
			{ID: "mv_2", Name: "Gasolina Moto", Color: "#8B5CF6", Icon: "bike"},
			{ID: "mv_3", Name: "Fretes SP", Color: "#3B82F6", Icon: "truck"},
			{ID: "mv_4", Name: "Outros Fretes", Color: "#64748B", Icon: "truck"},
			{ID: "mv_5", Name: "Insumos / Embalagens", Color: "#F59E0B", Icon: "package"},
			{ID: "mv_6", Name: "Funcionários", Color: "#10B981", Icon: "users"},
			{ID: "mv_7", Name: "Manutenção", Color: "#F43F5E", Icon: "zap"},
			{ID: "mv_8", Name: "Energia", Color: "#F59E0B", Icon: "zap"},
		}
	}
	return []Category{
		{ID: "1", Name: "Restaurante", Color: "#F97316", Icon: "utensils"},
		{ID: "2", Name: "Gasolina Carro", Color: "#EF4444", Icon: "car"},
		{ID: "3", Name: "Gasolina Moto", Color: "#8B5CF6", Icon: "bike"},
		{ID: "4", Name: "Mercado", Color: "#10B981", Icon: "shopping-cart"},
		{ID: "5", Name: "Lazer", Color: "#3B82F6", Icon: "gamepad-2"},
		{ID: "7", Name: "Internet", Color: "#06B6D4", Icon: "wifi"},
		{ID: "8", Name: "Energia", Color: "#F59E0B", Icon: "zap"},
		{ID: "9", Name: "Farmácia", Color: "#E11D48", Icon: "pill"},
		{ID: "10", Name: "Hospital", Color: "#DC2626", Icon: "activity"},
		{ID: "11", Name: "Loja", Color: "#4F46E5", Icon: "store"},
		{ID: "12", Name: "Compra Online", Color: "#8B5CF6", Icon: "globe"},
		{ID: "13", Name: "Construção", Color: "#EA580C", Icon: "hammer"},
		{ID: "14", Name: "Manutenção", Color: "#65A30D", Icon: "wrench"},
		{ID: "15", Name: "Vestuário", Color: "#DB2777", Icon: "shirt"},
		{ID: "16", Name: "Crédito Celular", Color: "#0891B2", Icon: "smartphone"},
		{ID: "17", Name: "Lava Jato", Color: "#0EA5E9", Icon: "droplets"},
		{ID: "18", Name: "Serviços", Color: "#64748B", Icon: "briefcase"},
		{ID: "19", Name: "Viagem", Color: "#14B8A6", Icon: "plane"},
	}
}
