package transport

import (
	"net/http"

	"community-portal/internal/catalog"
	"community-portal/internal/middleware"
	"community-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ResolveRequest carries the attribute values a visitor has picked so far
type ResolveRequest struct {
	Selection catalog.Selection `json:"selection"`
}

// CatalogHandler serves a member's published storefront
type CatalogHandler struct {
	catalog service.CatalogService
	carts   service.CartService
	logger  *zap.Logger
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog service.CatalogService, carts service.CartService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, carts: carts, logger: logger}
}

// RegisterRoutes registers catalog routes on a member-scoped router
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/categories", h.Categories)
		r.Get("/{productID}", h.Get)
		r.Get("/{productID}/attributes", h.Attributes)
		r.Post("/{productID}/resolve", h.Resolve)
	})
}

// List returns the published products matching the query filters
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := catalog.Criteria{
		Search:       q.Get("search"),
		Category:     q.Get("category"),
		Type:         q.Get("type"),
		PriceRange:   q.Get("price_range"),
		Availability: q.Get("availability"),
	}

	products, err := h.catalog.List(r.Context(), memberID(r), criteria)
	if err != nil {
		respondError(w, h.logger, "list_products", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}

// Categories returns the distinct categories of published products
func (h *CatalogHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.Categories(r.Context(), memberID(r))
	if err != nil {
		respondError(w, h.logger, "list_categories", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// Get returns one published product
func (h *CatalogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	product, err := h.catalog.Get(r.Context(), memberID(r), id)
	if err != nil {
		respondError(w, h.logger, "get_product", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Attributes returns the option values offered by a product's active variants
func (h *CatalogHandler) Attributes(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	attributes, err := h.catalog.Attributes(r.Context(), memberID(r), id)
	if err != nil {
		respondError(w, h.logger, "product_attributes", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"attributes": attributes})
}

// Resolve matches a selection against the product's variants. The selection
// is remembered for the session; adding the product to the cart clears it.
func (h *CatalogHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "productID")
	if !ok {
		return
	}

	var req ResolveRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Resolve validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	resolution, err := h.catalog.Resolve(r.Context(), memberID(r), id, req.Selection)
	if err != nil {
		respondError(w, h.logger, "resolve_variant", err)
		return
	}

	if err := h.carts.Select(r.Context(), middleware.SessionID(r.Context()), memberID(r), id, resolution.Selection); err != nil {
		h.logger.Warn("Failed to remember variant selection", zap.Error(err))
	}
	middleware.RespondWithJSON(w, http.StatusOK, resolution)
}
