package dto

import (
	"github.com/mrops-br/cart-api/internal/domain"
)

// CartItemRequest is the body of add, update and delete requests.
// Decrement switches DELETE /cart from removing the line to lowering it by one.
type CartItemRequest struct {
	UserID    string `json:"userId"`
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Decrement bool   `json:"decrement,omitempty"`
}

// CouponRequest is the body of POST /cart/applyCoupon.
type CouponRequest struct {
	UserID string `json:"userId"`
	Code   string `json:"code"`
}

// CartLineResponse is a populated cart line.
type CartLineResponse struct {
	Product  *ProductResponse `json:"product"`
	Quantity int              `json:"quantity"`
}

// CartResponse represents a populated cart
type CartResponse struct {
	User      string             `json:"user"`
	Items     []CartLineResponse `json:"items"`
	ItemCount int                `json:"itemCount"`
}

// CartEnvelope wraps every cart read and mutation response.
type CartEnvelope struct {
	Cart *CartResponse `json:"cart"`
}

// CouponResponse is the result of applying a coupon. Nothing of it is stored.
type CouponResponse struct {
	Code               string        `json:"code"`
	Total              float64       `json:"total"`
	Discount           float64       `json:"discount"`
	TotalAfterDiscount float64       `json:"totalAfterDiscount"`
	Cart               *CartResponse `json:"cart"`
}

// ToCartResponse converts a populated cart to CartResponse
func ToCartResponse(c domain.PopulatedCart) *CartResponse {
	items := make([]CartLineResponse, len(c.Lines))
	for i, line := range c.Lines {
		items[i] = CartLineResponse{
			Product:  ToProductResponse(line.Product),
			Quantity: line.Quantity,
		}
	}
	return &CartResponse{
		User:      c.Owner,
		Items:     items,
		ItemCount: len(items),
	}
}

// EmptyCartResponse is returned for users without a stored cart.
func EmptyCartResponse(userID string) *CartResponse {
	return &CartResponse{User: userID, Items: []CartLineResponse{}}
}

// ToCouponResponse converts a coupon quote and its cart.
func ToCouponResponse(q domain.Quote, cart *CartResponse) *CouponResponse {
	return &CouponResponse{
		Code:               q.Code,
		Total:              q.Total.InexactFloat64(),
		Discount:           q.Discount.InexactFloat64(),
		TotalAfterDiscount: q.TotalAfterDiscount.InexactFloat64(),
		Cart:               cart,
	}
}
