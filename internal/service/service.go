package service

import (
	"context"
	"errors"
	"time"

	"community-portal/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrVisitorRequired     = errors.New("visitor verification required")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInsufficientBalance = errors.New("amount exceeds wallet balance")
	ErrSelfTransfer        = errors.New("cannot transfer to your own wallet")
	ErrCartLineNotFound    = errors.New("item is not in the cart")
	ErrUnknownRecordKind   = errors.New("unknown record collection")
)

// MemberAPI is the upstream member API used by the proxy services.
// *portal.Client implements it.
type MemberAPI interface {
	ListContacts(ctx context.Context, memberID string) ([]domain.Contact, error)
	ListBillers(ctx context.Context, memberID string, contactID int64) ([]domain.Biller, error)
	ToggleFavoriteBiller(ctx context.Context, memberID string, billerID, contactID int64) error
	PayBill(ctx context.Context, memberID string, payment domain.BillPayment, idempotencyKey string) (*domain.BillPaymentResult, error)
	WalletBalance(ctx context.Context, contactID int64) (*domain.WalletBalance, error)
	WalletTransactions(ctx context.Context, contactID int64, date *time.Time) ([]domain.Transaction, error)
	WalletTransfer(ctx context.Context, contactID int64, transfer domain.Transfer, idempotencyKey string) (*domain.TransferResult, error)
	SearchRecords(ctx context.Context, memberID string, kind domain.RecordKind, query domain.RecordQuery) ([]domain.Record, error)
}

// newIdempotencyKey returns key, or a fresh one when key is blank
func newIdempotencyKey(key string) string {
	if key != "" {
		return key
	}
	return uuid.NewString()
}
