package domain

import (
	"time"

	"github.com/google/uuid"
)

// UnlimitedStock marks a product without a stock ceiling.
const UnlimitedStock = 0

var (
	ErrInvalidProductName  = newError(ErrValidation, "product name is required")
	ErrInvalidProductPrice = newError(ErrValidation, "product price must not be negative")
	ErrInvalidProductStock = newError(ErrValidation, "product stock must not be negative")
)

// Product represents the product entity
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Price       float64
	Stock       int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct creates a new product with validation
func NewProduct(name, description, category string, price float64, stock int) (*Product, error) {
	now := time.Now()
	product := &Product{
		ID:          uuid.New().String(),
		Name:        name,
		Description: description,
		Category:    category,
		Price:       price,
		Stock:       stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := product.Validate(); err != nil {
		return nil, err
	}

	return product, nil
}

// Validate performs business validation on the product
func (p *Product) Validate() error {
	if p.Name == "" {
		return ErrInvalidProductName
	}
	if p.Price < 0 {
		return ErrInvalidProductPrice
	}
	if p.Stock < 0 {
		return ErrInvalidProductStock
	}
	return nil
}

// HasStockLimit reports whether the product has a finite stock ceiling.
func (p *Product) HasStockLimit() bool {
	return p.Stock != UnlimitedStock
}

// ClampQuantity caps quantity at the stock ceiling, if any.
func (p *Product) ClampQuantity(quantity int) int {
	if p.HasStockLimit() && quantity > p.Stock {
		return p.Stock
	}
	return quantity
}
