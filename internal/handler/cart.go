package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/allevo/cloud-store/internal/auth"
	"github.com/allevo/cloud-store/internal/handler/dto"
	"github.com/allevo/cloud-store/internal/middleware"
	"github.com/allevo/cloud-store/internal/model"
	"github.com/allevo/cloud-store/internal/service"
)

// CartOperator is the cart façade used by the HTTP layer.
type CartOperator interface {
	FetchCart(ctx context.Context, identity *model.Identity, owner string) (*service.CartView, error)
	AddItem(ctx context.Context, identity *model.Identity, owner string, item model.CartItem) (*service.CartView, error)
}

// CartHandler handles HTTP requests for cart operations.
type CartHandler struct {
	svc    CartOperator
	logger *slog.Logger
}

// NewCartHandler creates a new CartHandler.
func NewCartHandler(svc CartOperator, logger *slog.Logger) *CartHandler {
	return &CartHandler{
		svc:    svc,
		logger: logger,
	}
}

// Get handles GET /users/{username}/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	view, err := h.svc.FetchCart(r.Context(), auth.IdentityFromContext(r.Context()), owner)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCartResponse(view))
}

// AddProduct handles PUT /users/{username}/cart/products.
func (h *CartHandler) AddProduct(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req dto.AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeDecodeError(w, err)
		return
	}
	if field := req.Missing(); field != "" {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", field+" is required")
		return
	}

	item, err := req.ToItem()
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}
	if err := middleware.ValidateCartItem(item); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		return
	}

	view, err := h.svc.AddItem(r.Context(), auth.IdentityFromContext(r.Context()), owner, item)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToCartResponse(view))
}

// owner extracts and validates the {username} path parameter.
func (h *CartHandler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner := chi.URLParam(r, "username")
	if err := middleware.ValidateUsername(owner); err != nil {
		code := "INVALID_USERNAME"
		if errors.Is(err, middleware.ErrUsernameEmpty) {
			code = "MISSING_USERNAME"
		}
		writeError(w, http.StatusBadRequest, code, err.Error())
		return "", false
	}
	return owner, true
}
