package transport

import (
	"net/http"

	"community-portal/internal/middleware"
	"community-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest adds quantity of a product, or of one of its variants
type AddToCartRequest struct {
	ProductID uuid.UUID  `json:"product_id" validate:"required"`
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"gte=1,lte=999"`
}

// UpdateCartItemRequest sets the quantity of a cart line. Zero or less removes it.
type UpdateCartItemRequest struct {
	VariantID *uuid.UUID `json:"variant_id"`
	Quantity  int        `json:"quantity" validate:"lte=999"`
}

// CartHandler serves the visitor's cart for one member storefront
type CartHandler struct {
	carts  service.CartService
	logger *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, logger: logger}
}

// RegisterRoutes registers cart routes on a member-scoped router
func (h *CartHandler) RegisterRoutes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.View)
		r.Delete("/", h.Clear)
		r.Post("/items", h.Add)
		r.Put("/items/{productID}", h.Update)
		r.Delete("/items/{productID}", h.Remove)
	})
}

// View returns the cart priced at current catalog prices
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	view, err := h.carts.View(r.Context(), middleware.SessionID(r.Context()), memberID(r))
	if err != nil {
		respondError(w, h.logger, "view_cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Add merges a product into the cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Add to cart validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	view, err := h.carts.Add(r.Context(), middleware.SessionID(r.Context()), memberID(r), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(w, h.logger, "add_to_cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Update sets a line's quantity
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	var req UpdateCartItemRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Update cart validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	view, err := h.carts.Update(r.Context(), middleware.SessionID(r.Context()), memberID(r), productID, req.VariantID, req.Quantity)
	if err != nil {
		respondError(w, h.logger, "update_cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Remove drops a line; variant_id in the query selects a variant line
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	productID, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}
	variantID, err := optionalUUID(r.URL.Query().Get("variant_id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid variant_id")
		return
	}

	view, err := h.carts.Remove(r.Context(), middleware.SessionID(r.Context()), memberID(r), productID, variantID)
	if err != nil {
		respondError(w, h.logger, "remove_from_cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, view)
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), middleware.SessionID(r.Context()), memberID(r)); err != nil {
		respondError(w, h.logger, "clear_cart", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
