package service

import (
	"context"
	"strings"
	"time"

	"community-portal/internal/domain"
	"community-portal/internal/telemetry"

	"github.com/go-playground/validator/v10"
)

// TransferRequest is a wallet transfer submitted by a verified visitor
type TransferRequest struct {
	ToContactID int64        `json:"to_contact_id" validate:"required,gt=0"`
	Amount      domain.Money `json:"amount"`
	Description string       `json:"description" validate:"max=255"`
}

// WalletService proxies the visitor's wallet on the member API
type WalletService interface {
	Balance(ctx context.Context, contactID int64) (*domain.WalletBalance, error)
	Transactions(ctx context.Context, contactID int64, date *time.Time) ([]domain.Transaction, error)
	// Transfer checks the amount against the current balance before
	// submitting. Validation failures never reach the member API.
	Transfer(ctx context.Context, contactID int64, req TransferRequest, idempotencyKey string) (*domain.TransferResult, error)
}

type walletService struct {
	api      MemberAPI
	validate *validator.Validate
	metrics  *telemetry.Metrics
}

// NewWalletService creates a new instance of WalletService
func NewWalletService(api MemberAPI, metrics *telemetry.Metrics) WalletService {
	return &walletService{
		api:      api,
		validate: validator.New(),
		metrics:  metrics,
	}
}

func (s *walletService) Balance(ctx context.Context, contactID int64) (*domain.WalletBalance, error) {
	balance, err := s.api.WalletBalance(ctx, contactID)
	s.metrics.UpstreamCalled(ctx, "wallet_balance", err)
	return balance, err
}

func (s *walletService) Transactions(ctx context.Context, contactID int64, date *time.Time) ([]domain.Transaction, error) {
	transactions, err := s.api.WalletTransactions(ctx, contactID, date)
	s.metrics.UpstreamCalled(ctx, "wallet_transactions", err)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}
	return transactions, nil
}

func (s *walletService) Transfer(ctx context.Context, contactID int64, req TransferRequest, idempotencyKey string) (*domain.TransferResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}
	if !req.Amount.Valid || !req.Amount.Decimal.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.ToContactID == contactID {
		return nil, ErrSelfTransfer
	}

	balance, err := s.Balance(ctx, contactID)
	if err != nil {
		return nil, err
	}
	if req.Amount.Decimal.GreaterThan(balance.Wallet.Balance) {
		return nil, ErrInsufficientBalance
	}

	result, err := s.api.WalletTransfer(ctx, contactID, domain.Transfer{
		ToContactID: req.ToContactID,
		Amount:      req.Amount.Decimal,
		Description: strings.TrimSpace(req.Description),
	}, newIdempotencyKey(idempotencyKey))
	s.metrics.UpstreamCalled(ctx, "wallet_transfer", err)
	return result, err
}
