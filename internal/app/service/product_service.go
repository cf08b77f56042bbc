package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// ProductService is the read side of the catalog the cart resolves against,
// plus seeding of demo products at startup.
type ProductService struct {
	repo              domain.ProductRepository
	tracer            trace.Tracer
	logger            *slog.Logger
	productsSeeded    metric.Int64Counter
	productOperations metric.Int64Counter
}

// NewProductService creates a new product service
func NewProductService(
	repo domain.ProductRepository,
	tracer trace.Tracer,
	meter metric.Meter,
	logger *slog.Logger,
) *ProductService {
	productsSeeded, _ := meter.Int64Counter(
		"catalog.products.seeded",
		metric.WithDescription("Total number of products created by seeding"),
	)

	productOperations, _ := meter.Int64Counter(
		"catalog.operations",
		metric.WithDescription("Total number of catalog operations"),
	)

	return &ProductService{
		repo:              repo,
		tracer:            tracer,
		logger:            logger,
		productsSeeded:    productsSeeded,
		productOperations: productOperations,
	}
}

// CreateProduct validates and stores a single product
func (s *ProductService) CreateProduct(ctx context.Context, req *dto.CreateProductRequest) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.CreateProduct")
	defer span.End()

	span.SetAttributes(
		attribute.String("product.name", req.Name),
		attribute.Float64("product.price", req.Price),
		attribute.Int("product.stock", req.Stock),
	)

	product, err := s.create(ctx, req)
	if err != nil {
		return nil, s.fail(ctx, span, "create", err)
	}

	span.SetAttributes(attribute.String("product.id", product.ID))
	s.succeed(ctx, span, "create", "Product created", slog.String("product_id", product.ID))
	return dto.ToProductResponse(product), nil
}

// SeedCatalog stores reqs when the catalog is empty and reports how many
// products were created. A non-empty catalog is left untouched.
func (s *ProductService) SeedCatalog(ctx context.Context, reqs []dto.CreateProductRequest) (int, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.SeedCatalog")
	defer span.End()

	existing, err := s.repo.FindAll(ctx)
	if err != nil {
		return 0, s.fail(ctx, span, "seed", err)
	}
	if len(existing) > 0 {
		s.succeed(ctx, span, "seed", "Catalog already populated", slog.Int("count", len(existing)))
		return 0, nil
	}

	for i := range reqs {
		if _, err := s.create(ctx, &reqs[i]); err != nil {
			return i, s.fail(ctx, span, "seed", err)
		}
		s.productsSeeded.Add(ctx, 1)
	}

	span.SetAttributes(attribute.Int("product.count", len(reqs)))
	s.succeed(ctx, span, "seed", "Catalog seeded", slog.Int("count", len(reqs)))
	return len(reqs), nil
}

// GetProductByID retrieves a product by ID
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.GetProductByID")
	defer span.End()

	span.SetAttributes(attribute.String("product.id", id))

	product, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, s.fail(ctx, span, "read", err, slog.String("product_id", id))
	}

	s.succeed(ctx, span, "read", "Product retrieved", slog.String("product_id", id))
	return dto.ToProductResponse(product), nil
}

// ListProducts retrieves all products, ordered by name
func (s *ProductService) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	ctx, span := s.tracer.Start(ctx, "ProductService.ListProducts")
	defer span.End()

	products, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, s.fail(ctx, span, "list", err)
	}

	span.SetAttributes(attribute.Int("product.count", len(products)))
	s.succeed(ctx, span, "list", "Products listed", slog.Int("count", len(products)))
	return dto.ToProductResponseList(products), nil
}

func (s *ProductService) create(ctx context.Context, req *dto.CreateProductRequest) (*domain.Product, error) {
	product, err := domain.NewProduct(req.Name, req.Description, req.Category, req.Price, req.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) succeed(ctx context.Context, span trace.Span, operation, msg string, attrs ...any) {
	s.productOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", "success"),
	))
	s.logger.InfoContext(ctx, msg, attrs...)
	span.SetStatus(codes.Ok, msg)
}

func (s *ProductService) fail(ctx context.Context, span trace.Span, operation string, err error, attrs ...any) error {
	result := "failure"
	switch {
	case errors.Is(err, domain.ErrNotFound):
		result = "not_found"
	case errors.Is(err, domain.ErrValidation):
		result = "invalid"
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	s.productOperations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("result", result),
	))

	attrs = append(attrs, slog.String("operation", operation), slog.String("error", err.Error()))
	if result == "failure" {
		s.logger.ErrorContext(ctx, "Catalog operation failed", attrs...)
	} else {
		s.logger.WarnContext(ctx, "Catalog operation rejected", attrs...)
	}
	return err
}
