package client

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/app/service"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/config"
	httpserver "github.com/mrops-br/cart-api/internal/infrastructure/http"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/cart-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/cart-api/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	products *memory.ProductRepository
	session  *Session
	view     *View
	api      *CartClient
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.Config{
		OTLP:    config.OTLPConfig{ServiceName: "cart-client-test", Environment: "test"},
		Logging: config.LoggingConfig{Level: "error"},
	}
	telem := telemetry.NewNoOpTelemetry(cfg)
	tracer := telem.TracerProvider.Tracer("test")
	meter := telem.MeterProvider.Meter("test")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	products := memory.NewProductRepository(tracer, logger)
	carts := memory.NewCartRepository(tracer, logger)

	server := httpserver.NewServer(&cfg.Server,
		handler.NewCartHandler(service.NewCartService(carts, products, tracer, meter, logger), logger),
		handler.NewProductHandler(service.NewProductService(products, tracer, meter, logger), logger),
		logger,
		telem,
	)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)

	session := NewSession()
	api := NewCartClient(ts.URL, ts.Client())
	return &fixture{products: products, session: session, view: NewView(session, api), api: api}
}

func (f *fixture) product(t *testing.T, name string, price float64, stock int) *domain.Product {
	t.Helper()
	p, err := domain.NewProduct(name, "desc", "cat", price, stock)
	require.NoError(t, err)
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func TestView_RequiresLogin(t *testing.T) {
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	view := NewView(NewSession(), NewCartClient(ts.URL, ts.Client()))
	ctx := context.Background()

	assert.ErrorIs(t, view.Load(ctx), ErrLoginRequired)
	assert.ErrorIs(t, view.Add(ctx, "p1", 1), ErrLoginRequired)
	assert.ErrorIs(t, view.Increase(ctx, "p1"), ErrLoginRequired)
	assert.ErrorIs(t, view.Decrease(ctx, "p1"), ErrLoginRequired)
	assert.ErrorIs(t, view.Remove(ctx, "p1"), ErrLoginRequired)
	assert.ErrorIs(t, view.Clear(ctx), ErrLoginRequired)
	assert.ErrorIs(t, view.Cleanup(ctx), ErrLoginRequired)
	assert.ErrorIs(t, view.ApplyCoupon(ctx, "SAVE20"), ErrLoginRequired)
	assert.Zero(t, calls.Load())
}

func TestView_CouponLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "P1", 100, 5)
	require.NoError(t, f.session.Login("u1"))

	require.NoError(t, f.view.Load(ctx))
	assert.Empty(t, f.view.State().Cart.Items)

	require.NoError(t, f.view.Add(ctx, p1.ID, 2))
	require.NoError(t, f.view.ApplyCoupon(ctx, "SAVE20"))

	state := f.view.State()
	assert.Equal(t, "SAVE20", state.Coupon)
	assert.Equal(t, 40.0, state.Discount)
	assert.Equal(t, 167.0, state.Payable())

	t.Run("load keeps the coupon", func(t *testing.T) {
		require.NoError(t, f.view.Load(ctx))
		assert.Equal(t, 40.0, f.view.State().Discount)
	})

	t.Run("mutation resets the discount", func(t *testing.T) {
		require.NoError(t, f.view.Increase(ctx, p1.ID))
		state := f.view.State()
		assert.Equal(t, 3, Quantity(state.Cart, p1.ID))
		assert.Zero(t, state.Discount)
		assert.Empty(t, state.Coupon)
		assert.Equal(t, 307.0, state.Payable())
	})

	t.Run("rejected coupon resets the discount", func(t *testing.T) {
		require.NoError(t, f.view.ApplyCoupon(ctx, "SAVE50"))
		assert.Equal(t, 150.0, f.view.State().Discount)

		err := f.view.ApplyCoupon(ctx, "FREE")
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Zero(t, f.view.State().Discount)
	})
}

func TestView_Gestures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "P1", 100, 2)
	p2 := f.product(t, "P2", 40, 0)
	require.NoError(t, f.session.Login("u1"))

	require.NoError(t, f.view.Add(ctx, p1.ID, 1))
	require.NoError(t, f.view.Add(ctx, p2.ID, 1))
	require.NoError(t, f.view.Increase(ctx, p1.ID))
	assert.Equal(t, 2, Quantity(f.view.State().Cart, p1.ID))

	require.NoError(t, f.view.Increase(ctx, p1.ID))
	assert.Equal(t, 2, Quantity(f.view.State().Cart, p1.ID), "clamped to stock")

	err := f.view.Add(ctx, p1.ID, 3)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Len(t, f.view.State().Cart.Items, 2, "failed gesture keeps the last cart")

	require.NoError(t, f.view.Decrease(ctx, p1.ID))
	assert.Equal(t, 1, Quantity(f.view.State().Cart, p1.ID))

	require.NoError(t, f.view.Decrease(ctx, p1.ID))
	assert.Zero(t, Quantity(f.view.State().Cart, p1.ID))
	assert.Len(t, f.view.State().Cart.Items, 1)

	require.NoError(t, f.view.Remove(ctx, p2.ID))
	assert.Empty(t, f.view.State().Cart.Items)

	require.NoError(t, f.view.Add(ctx, p2.ID, 3))
	require.NoError(t, f.view.Clear(ctx))
	assert.Empty(t, f.view.State().Cart.Items)
}

func TestView_StaleProducts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p1 := f.product(t, "P1", 100, 0)
	p2 := f.product(t, "P2", 40, 0)
	require.NoError(t, f.session.Login("u1"))

	require.NoError(t, f.view.Add(ctx, p1.ID, 1))
	require.NoError(t, f.view.Add(ctx, p2.ID, 2))
	require.NoError(t, f.products.Delete(ctx, p1.ID))

	require.NoError(t, f.view.Cleanup(ctx))
	cart := f.view.State().Cart
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 80.0, Total(cart))
}

func TestTotals(t *testing.T) {
	cart := &dto.CartResponse{Items: []dto.CartLineResponse{
		{Product: &dto.ProductResponse{ID: "a", Price: 0.1, Stock: 3}, Quantity: 3},
		{Product: nil, Quantity: 4},
		{Product: &dto.ProductResponse{ID: "b", Price: 0.2, Stock: 0}, Quantity: 1},
	}}

	assert.Equal(t, 0.5, Total(cart))
	assert.Zero(t, Total(nil))
	assert.Zero(t, LineSubtotal(cart.Items[1]))

	assert.False(t, CanIncrease(cart.Items[0]))
	assert.False(t, CanIncrease(cart.Items[1]))
	assert.True(t, CanIncrease(cart.Items[2]))
	assert.True(t, CanDecrease(cart.Items[0]))
	assert.False(t, CanDecrease(cart.Items[2]))

	state := State{Cart: cart, Discount: 0.5}
	assert.Equal(t, 7.0, state.Payable())
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, State{}))
	assert.Contains(t, buf.String(), "Your cart is empty")

	buf.Reset()
	cart := &dto.CartResponse{
		User:      "u1",
		ItemCount: 1,
		Items: []dto.CartLineResponse{
			{Product: &dto.ProductResponse{ID: "a", Name: "Lamp", Price: 100, Stock: 5}, Quantity: 2},
		},
	}
	require.NoError(t, Render(&buf, State{Cart: cart, Coupon: "SAVE20", Discount: 40}))

	out := buf.String()
	assert.Contains(t, out, "Lamp")
	assert.Contains(t, out, "5 available")
	assert.Contains(t, out, "Price (1 items): 200.00")
	assert.Contains(t, out, "Coupon SAVE20: -40.00")
	assert.Contains(t, out, "Total Amount: 167.00")
}
