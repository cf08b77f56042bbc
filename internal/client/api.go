package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIError is a non-2xx response from the cart API.
type APIError struct {
	Status  int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("cart api: %d %s: %s", e.Status, e.Kind, e.Message)
}

// CartClient calls the cart HTTP API. One method per endpoint, no retries.
type CartClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewCartClient creates a client for the API at baseURL. The transport of
// httpClient is wrapped with otelhttp so calls propagate trace context.
func NewCartClient(baseURL string, httpClient *http.Client) *CartClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	instrumented := *httpClient
	instrumented.Transport = otelhttp.NewTransport(httpClient.Transport)

	return &CartClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &instrumented,
	}
}

// GetCart fetches the user's cart
func (c *CartClient) GetCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodGet, "/cart", url.Values{"userId": {userID}}, nil)
}

// AddItem adds quantity units of productID
func (c *CartClient) AddItem(ctx context.Context, userID, productID string, quantity int) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodPost, "/cart/add", nil,
		dto.CartItemRequest{UserID: userID, ProductID: productID, Quantity: quantity})
}

// SetQuantity sets the quantity of productID. Zero or less removes the line.
func (c *CartClient) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodPut, "/cart", nil,
		dto.CartItemRequest{UserID: userID, ProductID: productID, Quantity: quantity})
}

// RemoveItem removes the line for productID
func (c *CartClient) RemoveItem(ctx context.Context, userID, productID string) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodDelete, "/cart", nil,
		dto.CartItemRequest{UserID: userID, ProductID: productID})
}

// DecrementOrRemove lowers the line for productID by one
func (c *CartClient) DecrementOrRemove(ctx context.Context, userID, productID string) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodDelete, "/cart", nil,
		dto.CartItemRequest{UserID: userID, ProductID: productID, Decrement: true})
}

// ClearCart empties the cart
func (c *CartClient) ClearCart(ctx context.Context, userID string) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodDelete, "/cart/clear", url.Values{"userId": {userID}}, nil)
}

// Cleanup drops lines whose products were deleted
func (c *CartClient) Cleanup(ctx context.Context, userID string) (*dto.CartResponse, error) {
	return c.cart(ctx, http.MethodDelete, "/cart/cleanup", url.Values{"userId": {userID}}, nil)
}

// ApplyCoupon quotes a coupon against the current cart
func (c *CartClient) ApplyCoupon(ctx context.Context, userID, code string) (*dto.CouponResponse, error) {
	var quote dto.CouponResponse
	if err := c.do(ctx, http.MethodPost, "/cart/applyCoupon", nil, dto.CouponRequest{UserID: userID, Code: code}, &quote); err != nil {
		return nil, err
	}
	return &quote, nil
}

// ListProducts fetches the product catalog
func (c *CartClient) ListProducts(ctx context.Context) ([]*dto.ProductResponse, error) {
	var products []*dto.ProductResponse
	if err := c.do(ctx, http.MethodGet, "/products", nil, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *CartClient) cart(ctx context.Context, method, path string, query url.Values, body any) (*dto.CartResponse, error) {
	var env dto.CartEnvelope
	if err := c.do(ctx, method, path, query, body, &env); err != nil {
		return nil, err
	}
	if env.Cart == nil {
		return nil, fmt.Errorf("cart api: %s %s: response has no cart", method, path)
	}
	return env.Cart, nil
}

func (c *CartClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("cart api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
