package service

import (
	"context"
	"strings"

	"community-portal/internal/domain"
	"community-portal/internal/telemetry"

	"github.com/go-playground/validator/v10"
)

// BillPaymentRequest is a bill payment submitted by a verified visitor
type BillPaymentRequest struct {
	BillerID      int64        `json:"biller_id" validate:"required,gt=0"`
	BillerName    string       `json:"biller_name" validate:"required,max=255"`
	AccountNumber string       `json:"account_number" validate:"required,max=100"`
	Amount        domain.Money `json:"amount"`
	Category      string       `json:"category" validate:"max=100"`
}

// BillerService proxies billers and bill payments on the member API
type BillerService interface {
	List(ctx context.Context, memberID string, contactID int64) ([]domain.Biller, error)
	ToggleFavorite(ctx context.Context, memberID string, billerID, contactID int64) error
	Pay(ctx context.Context, memberID string, contactID int64, req BillPaymentRequest, idempotencyKey string) (*domain.BillPaymentResult, error)
}

type billerService struct {
	api      MemberAPI
	validate *validator.Validate
	metrics  *telemetry.Metrics
}

// NewBillerService creates a new instance of BillerService
func NewBillerService(api MemberAPI, metrics *telemetry.Metrics) BillerService {
	return &billerService{
		api:      api,
		validate: validator.New(),
		metrics:  metrics,
	}
}

func (s *billerService) List(ctx context.Context, memberID string, contactID int64) ([]domain.Biller, error) {
	billers, err := s.api.ListBillers(ctx, memberID, contactID)
	s.metrics.UpstreamCalled(ctx, "list_billers", err)
	if err != nil {
		return nil, err
	}
	if billers == nil {
		billers = []domain.Biller{}
	}
	return billers, nil
}

func (s *billerService) ToggleFavorite(ctx context.Context, memberID string, billerID, contactID int64) error {
	err := s.api.ToggleFavoriteBiller(ctx, memberID, billerID, contactID)
	s.metrics.UpstreamCalled(ctx, "toggle_favorite_biller", err)
	return err
}

func (s *billerService) Pay(ctx context.Context, memberID string, contactID int64, req BillPaymentRequest, idempotencyKey string) (*domain.BillPaymentResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Amount.Valid || !req.Amount.Decimal.IsPositive() {
		return nil, ErrInvalidAmount
	}

	result, err := s.api.PayBill(ctx, memberID, domain.BillPayment{
		BillerID:      req.BillerID,
		BillerName:    strings.TrimSpace(req.BillerName),
		AccountNumber: strings.TrimSpace(req.AccountNumber),
		Amount:        req.Amount.Decimal,
		Category:      req.Category,
		ContactID:     contactID,
	}, newIdempotencyKey(idempotencyKey))
	s.metrics.UpstreamCalled(ctx, "pay_bill", err)
	return result, err
}
