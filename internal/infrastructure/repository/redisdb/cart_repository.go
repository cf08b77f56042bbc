// Package redisdb implements the cart store on Redis, one JSON document per
// user under a prefixed key.
package redisdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type cartLineRecord struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type cartRecord struct {
	User      string           `json:"user"`
	Items     []cartLineRecord `json:"items"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// CartRepository is a Redis implementation of domain.CartRepository
type CartRepository struct {
	client *redis.Client
	prefix string
	tracer trace.Tracer
	logger *slog.Logger
}

// NewCartRepository creates a cart repository storing carts under prefix+userID
func NewCartRepository(client *redis.Client, prefix string, tracer trace.Tracer, logger *slog.Logger) *CartRepository {
	return &CartRepository{
		client: client,
		prefix: prefix,
		tracer: tracer,
		logger: logger,
	}
}

func (r *CartRepository) key(userID string) string {
	return r.prefix + userID
}

// FindByOwner retrieves the cart owned by userID
func (r *CartRepository) FindByOwner(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "RedisCartRepository.FindByOwner")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	data, err := r.client.Get(ctx, r.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		span.SetStatus(codes.Ok, "Cart not found")
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to get cart")
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var rec cartRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to decode cart")
		r.logger.ErrorContext(ctx, "Corrupt cart record",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("failed to parse cart data: %w", err)
	}

	items := make([]domain.CartLine, len(rec.Items))
	for i, item := range rec.Items {
		items[i] = domain.CartLine{ProductID: item.Product, Quantity: item.Quantity}
	}

	span.SetStatus(codes.Ok, "Cart found")
	return &domain.Cart{
		Owner:     rec.User,
		Items:     items,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Save overwrites the owner's cart record
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "RedisCartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", cart.Owner),
		attribute.Int("cart.lines", len(cart.Items)),
	)

	rec := cartRecord{
		User:      cart.Owner,
		Items:     make([]cartLineRecord, len(cart.Items)),
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
	for i, line := range cart.Items {
		rec.Items[i] = cartLineRecord{Product: line.ProductID, Quantity: line.Quantity}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("cart marshal error: %w", err)
	}

	if err := r.client.Set(ctx, r.key(cart.Owner), data, 0).Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save cart")
		return fmt.Errorf("redis set error: %w", err)
	}

	span.SetStatus(codes.Ok, "Cart saved")
	return nil
}

// Ping checks if the Redis connection is healthy
func (r *CartRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
