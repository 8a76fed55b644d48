package item

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalogue validation.
var (
	ErrNameRequired = errors.New("item name is required")
	ErrInvalidPrice = errors.New("item price must be greater than 0")
)

// CreateRequest holds the input for creating or updating a catalogue item.
type CreateRequest struct {
	Name     string
	Price    decimal.Decimal
	Category string
	ItemCode string
	PCTCode  string
}

// Service encapsulates catalogue management.
type Service struct {
	items Repository
}

// NewService creates an item Service backed by the given repository.
func NewService(items Repository) *Service {
	return &Service{items: items}
}

// List returns catalogue items, active-only unless includeInactive is set.
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Item, error) {
	return s.items.List(ctx, includeInactive)
}

// Create validates the request and stores a new active item.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Item, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	it := &Item{
		ID:       uuid.New(),
		Name:     req.Name,
		Price:    req.Price,
		Category: req.Category,
		ItemCode: req.ItemCode,
		PCTCode:  req.PCTCode,
		IsActive: true,
	}
	if err := s.items.Create(ctx, it); err != nil {
		return nil, errors.Wrap(err, "create item")
	}
	return it, nil
}

// Update replaces the mutable fields of an existing item.
func (s *Service) Update(ctx context.Context, id uuid.UUID, req CreateRequest) (*Item, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	it.Name = req.Name
	it.Price = req.Price
	it.Category = req.Category
	it.ItemCode = req.ItemCode
	it.PCTCode = req.PCTCode

	if err := s.items.Update(ctx, it); err != nil {
		return nil, errors.Wrap(err, "update item")
	}
	return it, nil
}

// Deactivate soft-deletes an item; it stays referenced by past orders.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	it.IsActive = false
	if err := s.items.Update(ctx, it); err != nil {
		return errors.Wrap(err, "deactivate item")
	}
	return nil
}

// ToggleActive flips the is_active flag and returns the updated item.
func (s *Service) ToggleActive(ctx context.Context, id uuid.UUID) (*Item, error) {
	it, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	it.IsActive = !it.IsActive
	if err := s.items.Update(ctx, it); err != nil {
		return nil, errors.Wrap(err, "toggle item")
	}
	return it, nil
}

func validate(req CreateRequest) error {
	if req.Name == "" {
		return ErrNameRequired
	}
	if !req.Price.IsPositive() {
		return ErrInvalidPrice
	}
	return nil
}
