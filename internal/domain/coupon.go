package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

var ErrUnknownCoupon = newError(ErrValidation, "invalid coupon code")

var coupons = map[string]decimal.Decimal{
	"SAVE20": decimal.RequireFromString("0.20"),
	"SAVE50": decimal.RequireFromString("0.50"),
}

// Coupon is a fixed percentage discount code.
type Coupon struct {
	Code string
	Rate decimal.Decimal
}

// Quote is the result of applying a coupon to a cart total.
type Quote struct {
	Code               string
	Total              decimal.Decimal
	Discount           decimal.Decimal
	TotalAfterDiscount decimal.Decimal
}

// LookupCoupon resolves a coupon code. Codes are matched exactly after
// trimming surrounding whitespace.
func LookupCoupon(code string) (Coupon, error) {
	code = strings.TrimSpace(code)
	rate, ok := coupons[code]
	if !ok {
		return Coupon{}, ErrUnknownCoupon
	}
	return Coupon{Code: code, Rate: rate}, nil
}

// Apply computes the discount on total, rounded down to a whole unit.
func (c Coupon) Apply(total decimal.Decimal) Quote {
	discount := total.Mul(c.Rate).Floor()
	return Quote{
		Code:               c.Code,
		Total:              total,
		Discount:           discount,
		TotalAfterDiscount: total.Sub(discount),
	}
}
