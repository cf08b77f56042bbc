package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/mrops-br/cart-api/internal/app/service"
	"github.com/mrops-br/cart-api/internal/client"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	httpserver "github.com/mrops-br/cart-api/internal/infrastructure/http"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/cart-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startAPI(t *testing.T) (string, *domain.Product) {
	t.Helper()

	cfg := &config.Config{Logging: config.LoggingConfig{Level: "error"}}
	telem := telemetry.NewNoOpTelemetry(cfg)
	tracer := telem.TracerProvider.Tracer("test")
	meter := telem.MeterProvider.Meter("test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	products := memory.NewProductRepository(tracer, logger)
	carts := memory.NewCartRepository(tracer, logger)

	lamp, err := domain.NewProduct("Lamp", "desc", "home", 750, 3)
	require.NoError(t, err)
	require.NoError(t, products.Create(context.Background(), lamp))

	server := httpserver.NewServer(&cfg.Server,
		handler.NewCartHandler(service.NewCartService(carts, products, tracer, meter, logger), logger),
		handler.NewProductHandler(service.NewProductService(products, tracer, meter, logger), logger),
		logger,
		telem,
	)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts.URL, lamp
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCommand(&options{})
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCartctl(t *testing.T) {
	url, lamp := startAPI(t)

	out, err := run(t, "--api", url, "products")
	require.NoError(t, err)
	assert.Contains(t, out, lamp.ID)
	assert.Contains(t, out, "Lamp")

	out, err = run(t, "--api", url, "--user", "u1", "add", lamp.ID, "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Amount: 1507.00")

	out, err = run(t, "--api", url, "--user", "u1", "coupon", "SAVE20")
	require.NoError(t, err)
	assert.Contains(t, out, "Coupon SAVE20: -300.00")

	_, err = run(t, "--api", url, "--user", "u1", "add", lamp.ID, "x")
	assert.Error(t, err)
}

func TestCartctl_RequiresUser(t *testing.T) {
	url, _ := startAPI(t)
	_, err := run(t, "--api", url, "--user", "", "show")
	assert.ErrorIs(t, err, client.ErrLoginRequired)
}
