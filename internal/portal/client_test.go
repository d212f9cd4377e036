package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"community-portal/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL + "/", APIToken: "secret", Timeout: time.Second}, srv.Client())
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func TestClient_ListBillers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/m/coop-1/billers", r.URL.Path)
		assert.Equal(t, "42", r.URL.Query().Get("contact_id"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": 3, "name": "Meralco", "category": "electricity", "is_favorite": true}},
		})
	})

	billers, err := client.ListBillers(context.Background(), "coop-1", 42)
	require.NoError(t, err)
	require.Len(t, billers, 1)
	assert.Equal(t, "Meralco", billers[0].Name)
	assert.True(t, billers[0].IsFavorite)
}

func TestClient_PayBillSendsIdempotencyKey(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/m/coop-1/bill-payments", r.URL.Path)
		assert.Equal(t, "key-1", r.Header.Get(IdempotencyHeader))

		var payment domain.BillPayment
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payment))
		assert.Equal(t, "ACC-9", payment.AccountNumber)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(250)))

		writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "Payment posted"})
	})

	result, err := client.PayBill(context.Background(), "coop-1", domain.BillPayment{
		BillerID:      3,
		AccountNumber: "ACC-9",
		Amount:        decimal.NewFromInt(250),
		ContactID:     42,
	}, "key-1")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "Payment posted", result.Message)
}

func TestClient_BusinessErrorIsSurfacedVerbatim(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"success": false, "message": "Insufficient wallet balance"})
	})

	_, err := client.WalletTransfer(context.Background(), 42, domain.Transfer{ToContactID: 7, Amount: decimal.NewFromInt(5)}, "k")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "Insufficient wallet balance", apiErr.Error())
}

func TestClient_ValidationErrorsArePreserved(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"message": "The given data was invalid.",
			"errors":  map[string][]string{"account_number": {"The account number field is required."}},
		})
	})

	_, err := client.PayBill(context.Background(), "coop-1", domain.BillPayment{}, "")

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Contains(t, apiErr.Errors, "account_number")
}

func TestClient_NonJSONErrorBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("<html>not found</html>"))
	})

	_, err := client.WalletBalance(context.Background(), 1)
	assert.True(t, IsNotFound(err))
}

func TestClient_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	client := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, nil)

	_, err := client.ListContacts(context.Background(), "coop-1")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_TimeoutIsANetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	defer close(release)

	client := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client())

	_, err := client.ListContacts(context.Background(), "coop-1")
	assert.ErrorIs(t, err, ErrNetwork)
}

func TestClient_WalletTransactionsDateFilter(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/public/contacts/42/wallet/transactions", r.URL.Path)
		assert.Equal(t, "2026-10-19", r.URL.Query().Get("date"))
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    []map[string]any{{"id": 1, "reference": "TX-1", "amount": "20.00", "type": "credit"}},
		})
	})

	day := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	txs, err := client.WalletTransactions(context.Background(), 42, &day)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "20", txs[0].Amount.String())
}

func TestClient_SearchRecords(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/m/coop-1/search-healthcare", r.URL.Path)
		writeJSON(w, http.StatusOK, map[string]any{
			"data": []map[string]any{{"id": 9, "name": "Juan", "status": "active"}},
		})
	})

	records, err := client.SearchRecords(context.Background(), "coop-1", domain.RecordKindHealthcare, domain.RecordQuery{Name: "Juan"})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "active", records[0].Status)

	_, err = client.SearchRecords(context.Background(), "coop-1", domain.RecordKind("payroll"), domain.RecordQuery{})
	assert.Error(t, err)
}
