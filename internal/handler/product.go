package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/allevo/cloud-store/internal/catalog"
	"github.com/allevo/cloud-store/internal/handler/dto"
	"github.com/allevo/cloud-store/internal/model"
)

// ProductLister lists catalog products, optionally filtered by category.
type ProductLister interface {
	ListProducts(ctx context.Context, categoryID *int) ([]model.Product, error)
}

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	catalog ProductLister
	logger  *slog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(lister ProductLister, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: lister,
		logger:  logger,
	}
}

// List handles GET /products.
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	var categoryID *int
	if raw := r.URL.Query().Get("categoryId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_CATEGORY", "categoryId must be an integer")
			return
		}
		categoryID = &id
	}

	products, err := h.catalog.ListProducts(r.Context(), categoryID)
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrUnknownCategory):
			writeError(w, http.StatusBadRequest, "INVALID_CATEGORY", "Unknown category")
		case errors.Is(err, catalog.ErrUpstream):
			h.logger.Error("catalog_upstream_failed", "error", err)
			writeError(w, http.StatusBadGateway, "CATALOG_UNAVAILABLE", "Product catalog unavailable")
		default:
			h.logger.Error("internal_error", "error", err)
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		}
		return
	}

	writeJSON(w, http.StatusOK, dto.ToProductList(products))
}

// Categories handles GET /products/categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.ToCategoryList(catalog.Categories()))
}
