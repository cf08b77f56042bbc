package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func setupProductService(t *testing.T) *ProductService {
	t.Helper()

	tracer := tracenoop.NewTracerProvider().Tracer("test")
	meter := metricnoop.NewMeterProvider().Meter("test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return NewProductService(memory.NewProductRepository(tracer, logger), tracer, meter, logger)
}

func TestProductService_CreateAndRead(t *testing.T) {
	ctx := context.Background()
	svc := setupProductService(t)

	created, err := svc.CreateProduct(ctx, &dto.CreateProductRequest{Name: "Lamp", Category: "home", Price: 750, Stock: 3})
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 3, created.Stock)

	got, err := svc.GetProductByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Lamp", got.Name)

	_, err = svc.GetProductByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)

	_, err = svc.CreateProduct(ctx, &dto.CreateProductRequest{Name: "Bad", Price: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProductService_SeedCatalog(t *testing.T) {
	ctx := context.Background()
	svc := setupProductService(t)

	seed := []dto.CreateProductRequest{
		{Name: "Mug", Price: 299, Stock: 25},
		{Name: "Desk Lamp", Price: 750},
	}

	n, err := svc.SeedCatalog(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = svc.SeedCatalog(ctx, seed)
	require.NoError(t, err)
	assert.Zero(t, n, "populated catalog is not seeded again")

	list, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Desk Lamp", list[0].Name)
	assert.Equal(t, "Mug", list[1].Name)
}

func TestProductService_SeedCatalogStopsOnInvalid(t *testing.T) {
	svc := setupProductService(t)

	n, err := svc.SeedCatalog(context.Background(), []dto.CreateProductRequest{
		{Name: "Mug", Price: 299},
		{Name: "", Price: 1},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidProductName)
	assert.Equal(t, 1, n)
}
