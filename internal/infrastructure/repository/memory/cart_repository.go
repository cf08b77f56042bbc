package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// CartRepository is an in-memory implementation of domain.CartRepository.
// Carts are copied on the way in and out so callers never share state with
// the store.
type CartRepository struct {
	mu     sync.RWMutex
	carts  map[string]*domain.Cart
	tracer trace.Tracer
	logger *slog.Logger
}

// NewCartRepository creates a new in-memory cart repository
func NewCartRepository(tracer trace.Tracer, logger *slog.Logger) *CartRepository {
	return &CartRepository{
		carts:  make(map[string]*domain.Cart),
		tracer: tracer,
		logger: logger,
	}
}

// FindByOwner retrieves the cart owned by userID
func (r *CartRepository) FindByOwner(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "CartRepository.FindByOwner")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, exists := r.carts[userID]
	if !exists {
		span.SetStatus(codes.Ok, "Cart not found")
		r.logger.DebugContext(ctx, "Cart not found",
			slog.String("user_id", userID),
		)
		return nil, domain.ErrCartNotFound
	}

	span.SetAttributes(attribute.Int("cart.lines", len(cart.Items)))
	span.SetStatus(codes.Ok, "Cart found")
	return cart.Clone(), nil
}

// Save stores the cart, replacing any previous version for its owner
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "CartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", cart.Owner),
		attribute.Int("cart.lines", len(cart.Items)),
	)

	r.mu.Lock()
	defer r.mu.Unlock()

	r.carts[cart.Owner] = cart.Clone()

	r.logger.DebugContext(ctx, "Cart saved in repository",
		slog.String("user_id", cart.Owner),
		slog.Int("lines", len(cart.Items)),
	)

	span.SetStatus(codes.Ok, "Cart saved")
	return nil
}
