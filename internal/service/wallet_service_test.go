package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"community-portal/internal/domain"
	"community-portal/internal/portal"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transferOf(to int64, amount string) TransferRequest {
	return TransferRequest{ToContactID: to, Amount: domain.NewMoney(decimal.RequireFromString(amount))}
}

func TestWalletService_TransferValidatesBeforeCallingUpstream(t *testing.T) {
	tests := []struct {
		name    string
		req     TransferRequest
		wantErr error
	}{
		{name: "zero amount", req: transferOf(9, "0"), wantErr: ErrInvalidAmount},
		{name: "negative amount", req: transferOf(9, "-5"), wantErr: ErrInvalidAmount},
		{name: "missing amount", req: TransferRequest{ToContactID: 9}, wantErr: ErrInvalidAmount},
		{name: "self transfer", req: transferOf(7, "10"), wantErr: ErrSelfTransfer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &mockMemberAPI{balance: decimal.NewFromInt(100)}
			svc := NewWalletService(api, nil)

			_, err := svc.Transfer(context.Background(), 7, tt.req, "")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, api.calls)
		})
	}
}

func TestWalletService_TransferRequiresRecipient(t *testing.T) {
	api := &mockMemberAPI{balance: decimal.NewFromInt(100)}
	_, err := NewWalletService(api, nil).Transfer(context.Background(), 7, transferOf(0, "10"), "")

	var verrs validator.ValidationErrors
	assert.True(t, errors.As(err, &verrs))
	assert.Empty(t, api.calls)
}

func TestWalletService_TransferChecksBalance(t *testing.T) {
	api := &mockMemberAPI{balance: decimal.RequireFromString("50.00")}
	svc := NewWalletService(api, nil)

	_, err := svc.Transfer(context.Background(), 7, transferOf(9, "50.01"), "")
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, []string{"WalletBalance"}, api.calls)

	result, err := svc.Transfer(context.Background(), 7, transferOf(9, "50.00"), "key-9")
	require.NoError(t, err)
	assert.Equal(t, "TRX-1", result.Reference)
	assert.Equal(t, "key-9", api.lastKey)
	assert.True(t, api.lastTransfer.Amount.Equal(decimal.NewFromInt(50)))
}

func TestWalletService_TransferGeneratesIdempotencyKey(t *testing.T) {
	api := &mockMemberAPI{balance: decimal.NewFromInt(100)}
	_, err := NewWalletService(api, nil).Transfer(context.Background(), 7, transferOf(9, "1"), "")
	require.NoError(t, err)
	assert.NotEmpty(t, api.lastKey)
}

func TestWalletService_SurfacesUpstreamErrors(t *testing.T) {
	api := &mockMemberAPI{err: &portal.APIError{StatusCode: 422, Message: "Wallet is frozen"}}
	svc := NewWalletService(api, nil)

	_, err := svc.Balance(context.Background(), 7)
	var apiErr *portal.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Wallet is frozen", apiErr.Error())
}

func TestWalletService_TransactionsPassDate(t *testing.T) {
	api := &mockMemberAPI{}
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	txs, err := NewWalletService(api, nil).Transactions(context.Background(), 7, &day)
	require.NoError(t, err)
	assert.NotNil(t, txs)
	assert.Equal(t, &day, api.lastDate)
}
