package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CartService handles cart use cases. Each call is a single
// read-modify-write of the user's cart document.
type CartService struct {
	carts          domain.CartRepository
	products       domain.ProductRepository
	tracer         trace.Tracer
	logger         *slog.Logger
	cartOperations metric.Int64Counter
	prunedItems    metric.Int64Counter
	couponsApplied metric.Int64Counter
}

// NewCartService creates a new cart service
func NewCartService(
	carts domain.CartRepository,
	products domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *CartService {
	cartOperations, _ := meter.Int64Counter(
		"cart.operations",
		metric.WithDescription("Total number of cart operations"),
	)

	prunedItems, _ := meter.Int64Counter(
		"cart.items.pruned",
		metric.WithDescription("Cart lines dropped because their product no longer exists"),
	)

	couponsApplied, _ := meter.Int64Counter(
		"cart.coupons.applied",
		metric.WithDescription("Total number of coupon quotes computed"),
	)

	return &CartService{
		carts:          carts,
		products:       products,
		tracer:         tracer,
		logger:         logger,
		cartOperations: cartOperations,
		prunedItems:    prunedItems,
		couponsApplied: couponsApplied,
	}
}

// GetCart returns the populated cart. Stale lines are removed from the
// stored cart as a side effect. A missing cart reads as empty and is not
// created.
func (s *CartService) GetCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.GetCart")
	defer span.End()

	resp, err := s.readHealed(ctx, span, userID)
	if err != nil {
		return nil, s.fail(ctx, span, "get", err)
	}

	s.succeed(ctx, span, "get", "Cart retrieved successfully", userID)
	return resp, nil
}

// AddItem adds quantity units of a product, creating the cart on first use.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.AddItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("cart.quantity", quantity),
	)

	s.logger.InfoContext(ctx, "Adding item to cart",
		slog.String("user_id", userID),
		slog.String("product_id", productID),
		slog.Int("quantity", quantity),
	)

	if err := requireUser(userID); err != nil {
		return nil, s.fail(ctx, span, "add", err)
	}
	if quantity <= 0 {
		return nil, s.fail(ctx, span, "add", domain.ErrInvalidQuantity)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		return nil, s.fail(ctx, span, "add", err)
	}

	cart, err := s.carts.FindByOwner(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
		cart = domain.NewCart(userID)
	case err != nil:
		return nil, s.fail(ctx, span, "add", err)
	}

	if err := cart.Add(product, quantity); err != nil {
		return nil, s.fail(ctx, span, "add", err)
	}

	resp, err := s.saveHealed(ctx, span, cart)
	if err != nil {
		return nil, s.fail(ctx, span, "add", err)
	}

	s.succeed(ctx, span, "add", "Item added to cart", userID)
	return resp, nil
}

// SetQuantity sets a line's quantity. A quantity <= 0 deletes the line. If
// the product no longer exists the line is removed and ErrProductGone is
// returned.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.SetQuantity")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
		attribute.Int("cart.quantity", quantity),
	)

	cart, err := s.findLine(ctx, userID, productID)
	if err != nil {
		return nil, s.fail(ctx, span, "set_quantity", err)
	}

	product, err := s.products.FindByID(ctx, productID)
	if errors.Is(err, domain.ErrProductNotFound) {
		cart.Remove(productID)
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, s.fail(ctx, span, "set_quantity", err)
		}
		s.prunedItems.Add(ctx, 1)
		s.logger.WarnContext(ctx, "Removed cart line for deleted product",
			slog.String("user_id", userID),
			slog.String("product_id", productID),
		)
		return nil, s.fail(ctx, span, "set_quantity", domain.ErrProductGone)
	}
	if err != nil {
		return nil, s.fail(ctx, span, "set_quantity", err)
	}

	if err := cart.SetQuantity(product, quantity); err != nil {
		return nil, s.fail(ctx, span, "set_quantity", err)
	}

	resp, err := s.saveHealed(ctx, span, cart)
	if err != nil {
		return nil, s.fail(ctx, span, "set_quantity", err)
	}

	s.succeed(ctx, span, "set_quantity", "Cart quantity updated", userID)
	return resp, nil
}

// DecrementOrRemove lowers a line by one, removing it when it reaches zero.
func (s *CartService) DecrementOrRemove(ctx context.Context, userID, productID string) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.DecrementOrRemove")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)

	cart, err := s.findLine(ctx, userID, productID)
	if err != nil {
		return nil, s.fail(ctx, span, "decrement", err)
	}

	if err := cart.Decrement(productID); err != nil {
		return nil, s.fail(ctx, span, "decrement", err)
	}

	resp, err := s.saveHealed(ctx, span, cart)
	if err != nil {
		return nil, s.fail(ctx, span, "decrement", err)
	}

	s.succeed(ctx, span, "decrement", "Cart item decremented", userID)
	return resp, nil
}

// RemoveItem deletes a line. Removing an absent line, or from an absent
// cart, is a no-op.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.RemoveItem")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("product.id", productID),
	)

	if err := requireUser(userID); err != nil {
		return nil, s.fail(ctx, span, "remove", err)
	}

	cart, err := s.carts.FindByOwner(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		s.succeed(ctx, span, "remove", "No cart to remove from", userID)
		return dto.EmptyCartResponse(userID), nil
	}
	if err != nil {
		return nil, s.fail(ctx, span, "remove", err)
	}

	removed := cart.Remove(productID)
	populated, pruned, err := s.populate(ctx, cart)
	if err != nil {
		return nil, s.fail(ctx, span, "remove", err)
	}
	if removed || pruned > 0 {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, s.fail(ctx, span, "remove", err)
		}
	}

	span.SetAttributes(attribute.Bool("cart.line_removed", removed))
	s.succeed(ctx, span, "remove", "Cart item removed", userID)
	return dto.ToCartResponse(populated), nil
}

// ClearCart removes every line. It fails with ErrCartNotFound when the user
// never had a cart.
func (s *CartService) ClearCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ClearCart")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	if err := requireUser(userID); err != nil {
		return nil, s.fail(ctx, span, "clear", err)
	}

	cart, err := s.carts.FindByOwner(ctx, userID)
	if err != nil {
		return nil, s.fail(ctx, span, "clear", err)
	}

	cart.Clear()
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, s.fail(ctx, span, "clear", err)
	}

	s.succeed(ctx, span, "clear", "Cart cleared", userID)
	return dto.ToCartResponse(domain.PopulatedCart{Owner: userID}), nil
}

// PruneInvalid drops every line whose product no longer exists.
func (s *CartService) PruneInvalid(ctx context.Context, userID string) (*dto.CartResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.PruneInvalid")
	defer span.End()

	resp, err := s.readHealed(ctx, span, userID)
	if err != nil {
		return nil, s.fail(ctx, span, "cleanup", err)
	}

	s.succeed(ctx, span, "cleanup", "Cart cleaned up", userID)
	return resp, nil
}

// ApplyCoupon quotes the discount for code against the current cart total.
// The quote is not stored.
func (s *CartService) ApplyCoupon(ctx context.Context, userID, code string) (*dto.CouponResponse, error) {
	ctx, span := s.tracer.Start(ctx, "CartService.ApplyCoupon")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", userID),
		attribute.String("coupon.code", code),
	)

	if err := requireUser(userID); err != nil {
		return nil, s.fail(ctx, span, "apply_coupon", err)
	}

	coupon, err := domain.LookupCoupon(code)
	if err != nil {
		return nil, s.fail(ctx, span, "apply_coupon", err)
	}

	populated := domain.PopulatedCart{Owner: userID}
	cart, err := s.carts.FindByOwner(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrCartNotFound):
	case err != nil:
		return nil, s.fail(ctx, span, "apply_coupon", err)
	default:
		if populated, _, err = s.populate(ctx, cart); err != nil {
			return nil, s.fail(ctx, span, "apply_coupon", err)
		}
	}

	quote := coupon.Apply(populated.Total())

	span.SetAttributes(
		attribute.Float64("cart.total", quote.Total.InexactFloat64()),
		attribute.Float64("coupon.discount", quote.Discount.InexactFloat64()),
	)
	s.couponsApplied.Add(ctx, 1, metric.WithAttributes(attribute.String("code", coupon.Code)))
	s.succeed(ctx, span, "apply_coupon", "Coupon applied", userID)

	return dto.ToCouponResponse(quote, dto.ToCartResponse(populated)), nil
}

// readHealed loads and populates the cart, persisting any pruning.
func (s *CartService) readHealed(ctx context.Context, span trace.Span, userID string) (*dto.CartResponse, error) {
	span.SetAttributes(attribute.String("user.id", userID))

	if err := requireUser(userID); err != nil {
		return nil, err
	}

	cart, err := s.carts.FindByOwner(ctx, userID)
	if errors.Is(err, domain.ErrCartNotFound) {
		return dto.EmptyCartResponse(userID), nil
	}
	if err != nil {
		return nil, err
	}

	populated, pruned, err := s.populate(ctx, cart)
	if err != nil {
		return nil, err
	}
	if pruned > 0 {
		if err := s.carts.Save(ctx, cart); err != nil {
			return nil, err
		}
	}
	return dto.ToCartResponse(populated), nil
}

// saveHealed populates a mutated cart, dropping stale lines, and saves it.
func (s *CartService) saveHealed(ctx context.Context, span trace.Span, cart *domain.Cart) (*dto.CartResponse, error) {
	populated, _, err := s.populate(ctx, cart)
	if err != nil {
		return nil, err
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("cart.lines", len(cart.Items)))
	return dto.ToCartResponse(populated), nil
}

// findLine loads the cart and checks that it holds a line for productID.
func (s *CartService) findLine(ctx context.Context, userID, productID string) (*domain.Cart, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cart, err := s.carts.FindByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, ok := cart.Line(productID); !ok {
		return nil, domain.ErrLineNotFound
	}
	return cart, nil
}

// populate resolves every line's product. Lines whose product is gone are
// removed from cart; the number removed is returned.
func (s *CartService) populate(ctx context.Context, cart *domain.Cart) (domain.PopulatedCart, int, error) {
	populated := domain.PopulatedCart{
		Owner: cart.Owner,
		Lines: make([]domain.PopulatedLine, 0, len(cart.Items)),
	}

	var lookupErr error
	pruned := cart.Retain(func(line domain.CartLine) bool {
		if lookupErr != nil {
			return true
		}
		product, err := s.products.FindByID(ctx, line.ProductID)
		if errors.Is(err, domain.ErrProductNotFound) {
			return false
		}
		if err != nil {
			lookupErr = err
			return true
		}
		populated.Lines = append(populated.Lines, domain.PopulatedLine{
			Product:  product,
			Quantity: line.Quantity,
		})
		return true
	})
	if lookupErr != nil {
		return domain.PopulatedCart{}, 0, fmt.Errorf("failed to resolve cart products: %w", lookupErr)
	}

	if pruned > 0 {
		s.prunedItems.Add(ctx, int64(pruned))
		s.logger.InfoContext(ctx, "Pruned stale cart lines",
			slog.String("user_id", cart.Owner),
			slog.Int("count", pruned),
		)
	}
	return populated, pruned, nil
}

func requireUser(userID string) error {
	if userID == "" {
		return domain.ErrMissingUser
	}
	return nil
}

func (s *CartService) succeed(ctx context.Context, span trace.Span, operation, msg, userID string) {
	s.cartOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", "success"),
		),
	)

	s.logger.InfoContext(ctx, msg,
		slog.String("operation", operation),
		slog.String("user_id", userID),
	)

	span.SetStatus(codes.Ok, msg)
}

func (s *CartService) fail(ctx context.Context, span trace.Span, operation string, err error) error {
	result := resultOf(err)

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	s.cartOperations.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("result", result),
		),
	)

	if result == "failure" {
		s.logger.ErrorContext(ctx, "Cart operation failed",
			slog.String("operation", operation),
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.WarnContext(ctx, "Cart operation rejected",
			slog.String("operation", operation),
			slog.String("result", result),
			slog.String("error", err.Error()),
		)
	}
	return err
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrStock):
		return "out_of_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "failure"
	}
}
