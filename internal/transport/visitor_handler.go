package transport

import (
	"net/http"

	"community-portal/internal/middleware"
	"community-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// VerifyVisitorRequest identifies a visitor by a contact's email and phone
type VerifyVisitorRequest struct {
	Email string `json:"email" validate:"required,email,max=255"`
	Phone string `json:"phone" validate:"required,max=50"`
}

// VisitorHandler serves the visitor gate
type VisitorHandler struct {
	visitors    service.VisitorService
	limitVerify func(http.Handler) http.Handler
	logger      *zap.Logger
}

// NewVisitorHandler creates a new VisitorHandler. limitVerify throttles
// verification attempts.
func NewVisitorHandler(visitors service.VisitorService, limitVerify func(http.Handler) http.Handler, logger *zap.Logger) *VisitorHandler {
	return &VisitorHandler{visitors: visitors, limitVerify: limitVerify, logger: logger}
}

// RegisterRoutes registers visitor gate routes on a member-scoped router
func (h *VisitorHandler) RegisterRoutes(r chi.Router) {
	r.Route("/visitor", func(r chi.Router) {
		r.Get("/", h.Status)
		r.With(h.limitVerify).Post("/verify", h.Verify)
		r.Post("/logout", h.Logout)
	})
}

// Verify matches the submitted pair against the member's contacts
func (h *VisitorHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req VerifyVisitorRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Visitor verification validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	status, err := h.visitors.Verify(r.Context(), middleware.SessionID(r.Context()), memberID(r), req.Email, req.Phone)
	if err != nil {
		respondError(w, h.logger, "verify_visitor", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, status)
}

// Status returns the visitor's gate state for the member
func (h *VisitorHandler) Status(w http.ResponseWriter, r *http.Request) {
	status, err := h.visitors.Status(r.Context(), middleware.SessionID(r.Context()), memberID(r))
	if err != nil {
		respondError(w, h.logger, "visitor_status", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, status)
}

// Logout forgets the visitor for the member
func (h *VisitorHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.visitors.Logout(r.Context(), middleware.SessionID(r.Context()), memberID(r)); err != nil {
		respondError(w, h.logger, "visitor_logout", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
