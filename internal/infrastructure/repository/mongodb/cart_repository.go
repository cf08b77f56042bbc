package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mrops-br/cart-api/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type cartItemDocument struct {
	Product  string `bson:"product"`
	Quantity int    `bson:"quantity"`
}

type cartDocument struct {
	User      string             `bson:"user"`
	Items     []cartItemDocument `bson:"items"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func toCartDocument(c *domain.Cart) cartDocument {
	items := make([]cartItemDocument, len(c.Items))
	for i, line := range c.Items {
		items[i] = cartItemDocument{Product: line.ProductID, Quantity: line.Quantity}
	}
	return cartDocument{
		User:      c.Owner,
		Items:     items,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func (d cartDocument) toDomain() *domain.Cart {
	items := make([]domain.CartLine, len(d.Items))
	for i, item := range d.Items {
		items[i] = domain.CartLine{ProductID: item.Product, Quantity: item.Quantity}
	}
	return &domain.Cart{
		Owner:     d.User,
		Items:     items,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// CartRepository is a MongoDB implementation of domain.CartRepository
type CartRepository struct {
	coll   *mongo.Collection
	tracer trace.Tracer
	logger *slog.Logger
}

// NewCartRepository creates a cart repository on db's carts collection
func NewCartRepository(db *mongo.Database, tracer trace.Tracer, logger *slog.Logger) *CartRepository {
	return &CartRepository{
		coll:   db.Collection(cartsCollection),
		tracer: tracer,
		logger: logger,
	}
}

// EnsureIndexes creates the unique owner index backing one cart per user
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("user_unique"),
	})
	if err != nil {
		return fmt.Errorf("failed to create cart index: %w", err)
	}
	return nil
}

// FindByOwner retrieves the cart owned by userID
func (r *CartRepository) FindByOwner(ctx context.Context, userID string) (*domain.Cart, error) {
	ctx, span := r.tracer.Start(ctx, "MongoCartRepository.FindByOwner")
	defer span.End()

	span.SetAttributes(attribute.String("user.id", userID))

	var doc cartDocument
	err := r.coll.FindOne(ctx, bson.M{"user": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		span.SetStatus(codes.Ok, "Cart not found")
		return nil, domain.ErrCartNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to find cart")
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	span.SetStatus(codes.Ok, "Cart found")
	return doc.toDomain(), nil
}

// Save replaces the owner's cart document, inserting it on first save
func (r *CartRepository) Save(ctx context.Context, cart *domain.Cart) error {
	ctx, span := r.tracer.Start(ctx, "MongoCartRepository.Save")
	defer span.End()

	span.SetAttributes(
		attribute.String("user.id", cart.Owner),
		attribute.Int("cart.lines", len(cart.Items)),
	)

	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"user": cart.Owner},
		toCartDocument(cart),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to save cart")
		r.logger.ErrorContext(ctx, "Failed to save cart",
			slog.String("user_id", cart.Owner),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("failed to save cart: %w", err)
	}

	span.SetStatus(codes.Ok, "Cart saved")
	return nil
}
