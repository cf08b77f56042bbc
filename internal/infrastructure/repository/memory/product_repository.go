// Package memory holds process-local stores. They back the default
// configuration and every handler and service test.
package memory

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// ProductRepository is an in-memory catalog. Products are stored and
// returned by value so a caller mutating a result cannot change the catalog.
type ProductRepository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewProductRepository creates an empty in-memory catalog
func NewProductRepository(tracer trace.Tracer, logger *slog.Logger) *ProductRepository {
	return &ProductRepository{
		products: make(map[string]domain.Product),
		tracer:   tracer,
		logger:   logger,
	}
}

// Create adds a product to the catalog
func (r *ProductRepository) Create(ctx context.Context, product *domain.Product) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Create",
		trace.WithAttributes(attribute.String("product.id", product.ID)))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[product.ID]; exists {
		span.SetStatus(codes.Error, "Duplicate product")
		return domain.ErrProductExists
	}
	r.products[product.ID] = *product

	r.logger.DebugContext(ctx, "Product stored",
		slog.String("product_id", product.ID),
		slog.String("product_name", product.Name),
		slog.Int("stock", product.Stock),
	)
	span.SetStatus(codes.Ok, "Product stored")
	return nil
}

// FindByID returns ErrProductNotFound for unknown or deleted products
func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindByID",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	r.mu.RLock()
	product, exists := r.products[id]
	r.mu.RUnlock()

	// A miss is expected for stale cart lines, so it is not a span error.
	if !exists {
		span.SetStatus(codes.Ok, "Product not found")
		return nil, domain.ErrProductNotFound
	}

	span.SetStatus(codes.Ok, "Product found")
	return &product, nil
}

// FindAll returns the catalog ordered by name
func (r *ProductRepository) FindAll(ctx context.Context) ([]*domain.Product, error) {
	_, span := r.tracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()

	r.mu.RLock()
	products := make([]*domain.Product, 0, len(r.products))
	for _, p := range r.products {
		products = append(products, &p)
	}
	r.mu.RUnlock()

	slices.SortFunc(products, func(a, b *domain.Product) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})

	span.SetAttributes(attribute.Int("product.count", len(products)))
	span.SetStatus(codes.Ok, "Products listed")
	return products, nil
}

// Delete removes a product. Cart lines referencing it become stale.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ctx, span := r.tracer.Start(ctx, "ProductRepository.Delete",
		trace.WithAttributes(attribute.String("product.id", id)))
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		span.SetStatus(codes.Error, "Product not found")
		return domain.ErrProductNotFound
	}
	delete(r.products, id)

	r.logger.InfoContext(ctx, "Product deleted", slog.String("product_id", id))
	span.SetStatus(codes.Ok, "Product deleted")
	return nil
}
