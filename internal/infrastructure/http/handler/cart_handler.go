package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mrops-br/cart-api/internal/app/dto"
	"github.com/mrops-br/cart-api/internal/app/service"
	"github.com/mrops-br/cart-api/internal/domain"
	"github.com/mrops-br/cart-api/internal/infrastructure/http/response"
)

// CartHandler handles HTTP requests for carts. The user id is taken from the
// userId query parameter, falling back to the JSON body.
type CartHandler struct {
	service *service.CartService
	logger  *slog.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *service.CartService, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger,
	}
}

// GetCart handles GET /cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r, "")
	if !ok {
		return
	}

	cart, err := h.service.GetCart(r.Context(), userID)
	h.writeCart(w, r, cart, err)
}

// AddItem handles POST /cart/add
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, ok := h.requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	cart, err := h.service.AddItem(r.Context(), userID, productID(r, req.ProductID), req.Quantity)
	h.writeCart(w, r, cart, err)
}

// SetQuantity handles PUT /cart
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, ok := h.requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), userID, productID(r, req.ProductID), req.Quantity)
	h.writeCart(w, r, cart, err)
}

// RemoveItem handles DELETE /cart. With decrement set, in the body or as a
// query parameter, the line is lowered by one instead of removed.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, ok := h.requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	decrement := req.Decrement
	if v := r.URL.Query().Get("decrement"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, fmt.Errorf("invalid decrement flag %q", v))
			return
		}
		decrement = parsed
	}

	var (
		cart *dto.CartResponse
		err  error
	)
	if decrement {
		cart, err = h.service.DecrementOrRemove(r.Context(), userID, productID(r, req.ProductID))
	} else {
		cart, err = h.service.RemoveItem(r.Context(), userID, productID(r, req.ProductID))
	}
	h.writeCart(w, r, cart, err)
}

// ClearCart handles DELETE /cart/clear
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, ok := h.requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	cart, err := h.service.ClearCart(r.Context(), userID)
	h.writeCart(w, r, cart, err)
}

// Cleanup handles DELETE /cart/cleanup
func (h *CartHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	var req dto.CartItemRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, ok := h.requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	cart, err := h.service.PruneInvalid(r.Context(), userID)
	h.writeCart(w, r, cart, err)
}

// ApplyCoupon handles POST /cart/applyCoupon
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var req dto.CouponRequest
	if !h.decode(w, r, &req) {
		return
	}
	userID, ok := h.requireUser(w, r, req.UserID)
	if !ok {
		return
	}

	code := req.Code
	if code == "" {
		code = r.URL.Query().Get("code")
	}

	quote, err := h.service.ApplyCoupon(r.Context(), userID, code)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, quote)
}

// decode reads an optional JSON body. An empty body leaves dst untouched.
func (h *CartHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Body == nil || r.Body == http.NoBody {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(dst)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	h.logger.WarnContext(r.Context(), "Failed to decode request body",
		slog.String("error", err.Error()),
	)
	response.Error(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
	return false
}

func (h *CartHandler) requireUser(w http.ResponseWriter, r *http.Request, fromBody string) (string, bool) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID = fromBody
	}
	if userID == "" {
		response.Error(w, http.StatusUnauthorized, domain.ErrMissingUser)
		return "", false
	}
	return userID, true
}

func productID(r *http.Request, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return r.URL.Query().Get("productId")
}

func (h *CartHandler) writeCart(w http.ResponseWriter, r *http.Request, cart *dto.CartResponse, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.JSON(w, http.StatusOK, dto.CartEnvelope{Cart: cart})
}

func (h *CartHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if response.DomainError(w, err) == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Cart request failed",
			slog.String("error", err.Error()),
		)
	}
}
