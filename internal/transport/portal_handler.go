package transport

import (
	"net/http"
	"strconv"
	"time"

	"community-portal/internal/domain"
	"community-portal/internal/middleware"
	"community-portal/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const transactionDateLayout = "2006-01-02"

// PortalHandler proxies the verified visitor's wallet, billers and records
// to the member API. Routes must sit behind middleware.RequireVisitor.
type PortalHandler struct {
	wallet      service.WalletService
	billers     service.BillerService
	records     service.RecordService
	idempotency func(http.Handler) http.Handler
	logger      *zap.Logger
}

// NewPortalHandler creates a new PortalHandler. idempotency wraps the
// payment and transfer routes.
func NewPortalHandler(
	wallet service.WalletService,
	billers service.BillerService,
	records service.RecordService,
	idempotency func(http.Handler) http.Handler,
	logger *zap.Logger,
) *PortalHandler {
	return &PortalHandler{
		wallet:      wallet,
		billers:     billers,
		records:     records,
		idempotency: idempotency,
		logger:      logger,
	}
}

// RegisterRoutes registers visitor-only routes on a member-scoped router
func (h *PortalHandler) RegisterRoutes(r chi.Router) {
	r.Get("/billers", h.ListBillers)
	r.Post("/billers/{billerID}/favorite", h.ToggleFavorite)
	r.With(h.idempotency).Post("/bill-payments", h.PayBill)

	r.Get("/wallet/balance", h.Balance)
	r.Get("/wallet/transactions", h.Transactions)
	r.With(h.idempotency).Post("/wallet/transfer", h.Transfer)

	r.Get("/search-{kind}", h.SearchRecords)
	r.Post("/search-{kind}", h.SearchRecords)
}

// visitor returns the verified visitor placed in context by RequireVisitor
func (h *PortalHandler) visitor(w http.ResponseWriter, r *http.Request) (*domain.VisitorInfo, bool) {
	info, ok := middleware.GetVisitor(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, service.ErrVisitorRequired.Error())
		return nil, false
	}
	return info, true
}

// ListBillers returns the member's billers with the visitor's favorites flagged
func (h *PortalHandler) ListBillers(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}

	billers, err := h.billers.List(r.Context(), memberID(r), info.ContactID)
	if err != nil {
		respondError(w, h.logger, "list_billers", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"billers": billers})
}

// ToggleFavorite flips a biller in the visitor's favorites
func (h *PortalHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}
	billerID, err := strconv.ParseInt(chi.URLParam(r, "billerID"), 10, 64)
	if err != nil || billerID <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid billerID")
		return
	}

	if err := h.billers.ToggleFavorite(r.Context(), memberID(r), billerID, info.ContactID); err != nil {
		respondError(w, h.logger, "toggle_favorite", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PayBill submits a bill payment
func (h *PortalHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}

	var req service.BillPaymentRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Bill payment validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.billers.Pay(r.Context(), memberID(r), info.ContactID, req, middleware.IdempotencyKey(r.Context()))
	if err != nil {
		respondError(w, h.logger, "pay_bill", err)
		return
	}

	h.logger.Info("Bill paid",
		zap.String("member_id", memberID(r)),
		zap.Int64("contact_id", info.ContactID),
		zap.Int64("biller_id", req.BillerID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// Balance returns the visitor's wallet balance
func (h *PortalHandler) Balance(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}

	balance, err := h.wallet.Balance(r.Context(), info.ContactID)
	if err != nil {
		respondError(w, h.logger, "wallet_balance", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, balance)
}

// Transactions lists wallet transactions, optionally for one day
func (h *PortalHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}

	var date *time.Time
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse(transactionDateLayout, raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = &parsed
	}

	transactions, err := h.wallet.Transactions(r.Context(), info.ContactID, date)
	if err != nil {
		respondError(w, h.logger, "wallet_transactions", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
}

// Transfer moves funds from the visitor's wallet to another contact
func (h *PortalHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}

	var req service.TransferRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Transfer validation failed", zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return
	}

	result, err := h.wallet.Transfer(r.Context(), info.ContactID, req, middleware.IdempotencyKey(r.Context()))
	if err != nil {
		respondError(w, h.logger, "wallet_transfer", err)
		return
	}

	h.logger.Info("Wallet transfer submitted",
		zap.String("member_id", memberID(r)),
		zap.Int64("from_contact_id", info.ContactID),
		zap.Int64("to_contact_id", req.ToContactID),
	)
	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// SearchRecords looks up lending, healthcare or mortuary records. GET reads
// name, email and q from the query string, POST reads a JSON body.
func (h *PortalHandler) SearchRecords(w http.ResponseWriter, r *http.Request) {
	info, ok := h.visitor(w, r)
	if !ok {
		return
	}

	var query domain.RecordQuery
	if r.Method == http.MethodPost {
		if err := middleware.DecodeAndValidate(w, r, &query); err != nil {
			middleware.RespondWithDecodeError(w, err)
			return
		}
	} else {
		q := r.URL.Query()
		query = domain.RecordQuery{Name: q.Get("name"), Email: q.Get("email"), Query: q.Get("q")}
	}

	kind := domain.RecordKind(chi.URLParam(r, "kind"))
	records, err := h.records.Search(r.Context(), memberID(r), kind, query, info)
	if err != nil {
		respondError(w, h.logger, "search_"+string(kind), err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}
