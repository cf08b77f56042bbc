package domain

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingUser       = newError(ErrUnauthorized, "unauthorized. login first")
	ErrInvalidQuantity   = newError(ErrValidation, "quantity must be at least 1")
	ErrLineNotFound      = newError(ErrNotFound, "item not found")
	ErrProductGone       = newError(ErrNotFound, "product gone, item removed from cart")
	ErrInsufficientStock = newError(ErrStock, "requested quantity exceeds available stock")
)

// CartLine is one product reference in a cart. Quantity is always >= 1.
type CartLine struct {
	ProductID string
	Quantity  int
}

// Cart is the per-user cart document. There is at most one line per product.
type Cart struct {
	Owner     string
	Items     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCart creates an empty cart owned by userID.
func NewCart(userID string) *Cart {
	now := time.Now()
	return &Cart{
		Owner:     userID,
		Items:     []CartLine{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	clone := *c
	clone.Items = make([]CartLine, len(c.Items))
	copy(clone.Items, c.Items)
	return &clone
}

// Line returns the line for productID.
func (c *Cart) Line(productID string) (CartLine, bool) {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i], true
	}
	return CartLine{}, false
}

func (c *Cart) indexOf(productID string) int {
	for i, line := range c.Items {
		if line.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add adds quantity units of product. A new line must fit into stock; an
// existing line is merged and clamped to the stock ceiling. A merge that
// would overflow int on an unlimited product is rejected.
func (c *Cart) Add(product *Product, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if product.HasStockLimit() && quantity > product.Stock {
		return ErrInsufficientStock
	}

	if i := c.indexOf(product.ID); i >= 0 {
		existing := c.Items[i].Quantity
		switch {
		case quantity <= math.MaxInt-existing:
			c.Items[i].Quantity = product.ClampQuantity(existing + quantity)
		case product.HasStockLimit():
			c.Items[i].Quantity = product.Stock
		default:
			return ErrInvalidQuantity
		}
	} else {
		c.Items = append(c.Items, CartLine{ProductID: product.ID, Quantity: quantity})
	}
	c.touch()
	return nil
}

// SetQuantity sets the line quantity, clamped to stock. A quantity <= 0
// removes the line.
func (c *Cart) SetQuantity(product *Product, quantity int) error {
	i := c.indexOf(product.ID)
	if i < 0 {
		return ErrLineNotFound
	}
	if quantity <= 0 {
		c.Remove(product.ID)
		return nil
	}
	c.Items[i].Quantity = product.ClampQuantity(quantity)
	c.touch()
	return nil
}

// Decrement lowers the line quantity by one, removing the line at one.
func (c *Cart) Decrement(productID string) error {
	i := c.indexOf(productID)
	if i < 0 {
		return ErrLineNotFound
	}
	if c.Items[i].Quantity > 1 {
		c.Items[i].Quantity--
		c.touch()
		return nil
	}
	c.Remove(productID)
	return nil
}

// Remove deletes the line for productID and reports whether one existed.
func (c *Cart) Remove(productID string) bool {
	i := c.indexOf(productID)
	if i < 0 {
		return false
	}
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
	c.touch()
	return true
}

// Clear removes every line.
func (c *Cart) Clear() {
	c.Items = []CartLine{}
	c.touch()
}

// Retain keeps only the lines for which keep returns true and returns the
// number of removed lines.
func (c *Cart) Retain(keep func(CartLine) bool) int {
	kept := c.Items[:0]
	for _, line := range c.Items {
		if keep(line) {
			kept = append(kept, line)
		}
	}
	removed := len(c.Items) - len(kept)
	c.Items = kept
	if removed > 0 {
		c.touch()
	}
	return removed
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now()
}

// PopulatedLine is a cart line with its product resolved.
type PopulatedLine struct {
	Product  *Product
	Quantity int
}

// Subtotal is price times quantity.
func (l PopulatedLine) Subtotal() decimal.Decimal {
	return decimal.NewFromFloat(l.Product.Price).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// PopulatedCart is a cart whose stale lines have been dropped.
type PopulatedCart struct {
	Owner string
	Lines []PopulatedLine
}

// Total sums the subtotals of all resolved lines.
func (c PopulatedCart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}
