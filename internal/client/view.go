package client

import (
	"context"
	"sync"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/shopspring/decimal"
)

// PlatformFee is added to every order total.
const PlatformFee = 7.0

// State is a snapshot of what the view renders.
type State struct {
	Cart     *dto.CartResponse
	Coupon   string
	Discount float64
}

// View owns the client side of one user's cart. Each gesture is exactly one
// API call; on success the local cart is replaced by the response. Gestures
// are serialized.
type View struct {
	mu       sync.Mutex
	session  *Session
	api      *CartClient
	cart     *dto.CartResponse
	coupon   string
	discount float64
}

// NewView creates a view bound to session.
func NewView(session *Session, api *CartClient) *View {
	return &View{session: session, api: api}
}

// State returns the current snapshot.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return State{Cart: v.cart, Coupon: v.coupon, Discount: v.discount}
}

// Load fetches the cart. Loading keeps any applied coupon.
func (v *View) Load(ctx context.Context) error {
	return v.gesture(false, func(userID string) (*dto.CartResponse, error) {
		return v.api.GetCart(ctx, userID)
	})
}

// Add adds quantity units of productID.
func (v *View) Add(ctx context.Context, productID string, quantity int) error {
	return v.mutate(func(userID string) (*dto.CartResponse, error) {
		return v.api.AddItem(ctx, userID, productID, quantity)
	})
}

// SetQuantity sets the quantity of productID.
func (v *View) SetQuantity(ctx context.Context, productID string, quantity int) error {
	return v.mutate(func(userID string) (*dto.CartResponse, error) {
		return v.api.SetQuantity(ctx, userID, productID, quantity)
	})
}

// Increase raises productID by one.
func (v *View) Increase(ctx context.Context, productID string) error {
	return v.SetQuantity(ctx, productID, v.quantityOf(productID)+1)
}

// Decrease lowers productID by one through the decrement endpoint.
func (v *View) Decrease(ctx context.Context, productID string) error {
	return v.mutate(func(userID string) (*dto.CartResponse, error) {
		return v.api.DecrementOrRemove(ctx, userID, productID)
	})
}

// Remove deletes the line for productID.
func (v *View) Remove(ctx context.Context, productID string) error {
	return v.mutate(func(userID string) (*dto.CartResponse, error) {
		return v.api.RemoveItem(ctx, userID, productID)
	})
}

// Clear empties the cart.
func (v *View) Clear(ctx context.Context) error {
	return v.mutate(func(userID string) (*dto.CartResponse, error) {
		return v.api.ClearCart(ctx, userID)
	})
}

// Cleanup drops lines whose products no longer exist.
func (v *View) Cleanup(ctx context.Context) error {
	return v.mutate(func(userID string) (*dto.CartResponse, error) {
		return v.api.Cleanup(ctx, userID)
	})
}

// ApplyCoupon asks the API for a quote and keeps the discount locally. A
// rejected code resets the discount.
func (v *View) ApplyCoupon(ctx context.Context, code string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	userID, ok := v.session.UserID()
	if !ok {
		return ErrLoginRequired
	}

	quote, err := v.api.ApplyCoupon(ctx, userID, code)
	if err != nil {
		v.coupon, v.discount = "", 0
		return err
	}

	v.cart = quote.Cart
	v.coupon = quote.Code
	v.discount = quote.Discount
	return nil
}

func (v *View) mutate(call func(userID string) (*dto.CartResponse, error)) error {
	return v.gesture(true, call)
}

func (v *View) gesture(resetCoupon bool, call func(userID string) (*dto.CartResponse, error)) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	userID, ok := v.session.UserID()
	if !ok {
		return ErrLoginRequired
	}

	cart, err := call(userID)
	if err != nil {
		return err
	}

	v.cart = cart
	if resetCoupon {
		v.coupon, v.discount = "", 0
	}
	return nil
}

func (v *View) quantityOf(productID string) int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return Quantity(v.cart, productID)
}

// Quantity returns the quantity of productID in cart, zero if absent.
func Quantity(cart *dto.CartResponse, productID string) int {
	if cart == nil {
		return 0
	}
	for _, item := range cart.Items {
		if item.Product != nil && item.Product.ID == productID {
			return item.Quantity
		}
	}
	return 0
}

// LineSubtotal is price times quantity; zero for a stale line.
func LineSubtotal(item dto.CartLineResponse) float64 {
	return lineSubtotal(item).InexactFloat64()
}

func lineSubtotal(item dto.CartLineResponse) decimal.Decimal {
	if item.Product == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// Total sums the subtotals of every resolvable line.
func Total(cart *dto.CartResponse) float64 {
	if cart == nil {
		return 0
	}
	total := decimal.Zero
	for _, item := range cart.Items {
		total = total.Add(lineSubtotal(item))
	}
	return total.InexactFloat64()
}

// Payable is the total after discount plus the platform fee.
func (s State) Payable() float64 {
	return decimal.NewFromFloat(Total(s.Cart)).
		Sub(decimal.NewFromFloat(s.Discount)).
		Add(decimal.NewFromFloat(PlatformFee)).
		InexactFloat64()
}

// CanIncrease reports whether another unit fits into stock.
func CanIncrease(item dto.CartLineResponse) bool {
	if item.Product == nil {
		return false
	}
	return item.Product.Stock == 0 || item.Quantity < item.Product.Stock
}

// CanDecrease reports whether the line is above one unit.
func CanDecrease(item dto.CartLineResponse) bool {
	return item.Quantity > 1
}
