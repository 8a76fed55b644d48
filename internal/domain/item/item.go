// Package item holds the sellable catalogue: every entry carries the
// item_code and PCT code the tax authority requires on fiscal invoices.
package item

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when no item exists for the given id.
var ErrNotFound = errors.New("item not found")

// Item is a catalogue entry. ItemCode must be non-blank before the item can
// appear on a fiscalized order; PCTCode may be blank, in which case the
// configured default classification code is substituted at mapping time.
type Item struct {
	ID        uuid.UUID
	Name      string
	Price     decimal.Decimal
	Category  string
	ItemCode  string
	PCTCode   string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for catalogue items.
type Repository interface {
	List(ctx context.Context, includeInactive bool) ([]Item, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	Create(ctx context.Context, it *Item) error
	Update(ctx context.Context, it *Item) error
}
