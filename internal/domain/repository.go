package domain

import (
	"context"
)

var (
	ErrProductNotFound = newError(ErrNotFound, "product not found")
	ErrCartNotFound    = newError(ErrNotFound, "cart not found")
	ErrProductExists   = newError(ErrValidation, "product already exists")
)

// ProductRepository defines the contract for product storage.
// Create returns ErrProductExists for a duplicate ID. FindAll orders by name.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id string) (*Product, error)
	FindAll(ctx context.Context) ([]*Product, error)
}

// CartRepository defines the contract for cart storage.
// FindByOwner returns ErrCartNotFound when the user has no cart yet.
// Save replaces the whole cart document for its owner.
type CartRepository interface {
	FindByOwner(ctx context.Context, userID string) (*Cart, error)
	Save(ctx context.Context, cart *Cart) error
}
