package transport

import (
	"net/http"

	"community-portal/internal/checkout"
	"community-portal/internal/middleware"
	"community-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CheckoutHandler serves shipping quotes, order placement and order read-back
type CheckoutHandler struct {
	checkout    service.CheckoutService
	idempotency func(http.Handler) http.Handler
	logger      *zap.Logger
}

// NewCheckoutHandler creates a new CheckoutHandler. idempotency wraps the
// order submission route.
func NewCheckoutHandler(checkout service.CheckoutService, idempotency func(http.Handler) http.Handler, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout, idempotency: idempotency, logger: logger}
}

// RegisterRoutes registers checkout routes on a member-scoped router
func (h *CheckoutHandler) RegisterRoutes(r chi.Router) {
	r.Get("/shipping/methods", h.ShippingMethods)
	r.With(h.idempotency).Post("/public-checkout", h.PlaceOrder)
	r.Get("/orders/{orderID}", h.GetOrder)
}

// ShippingMethods quotes the cart for a destination
func (h *CheckoutHandler) ShippingMethods(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	quote, err := h.checkout.Quote(r.Context(), middleware.SessionID(r.Context()), memberID(r),
		q.Get("country"), q.Get("province"), q.Get("city"))
	if err != nil {
		respondError(w, h.logger, "shipping_quote", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, quote)
}

// PlaceOrder submits the cart as an order
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req checkout.Request
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Checkout validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	placed, err := h.checkout.PlaceOrder(r.Context(), middleware.SessionID(r.Context()), memberID(r),
		middleware.IdempotencyKey(r.Context()), req)
	if err != nil {
		respondError(w, h.logger, "place_order", err)
		return
	}

	status := http.StatusCreated
	if placed.Replayed {
		status = http.StatusOK
		w.Header().Set(middleware.ReplayedHeader, "true")
	}
	middleware.RespondWithJSON(w, status, placed.Order)
}

// GetOrder returns a stored order of the member
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "orderID")
	if !ok {
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), memberID(r), id)
	if err != nil {
		respondError(w, h.logger, "get_order", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
