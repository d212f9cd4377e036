package portal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"community-portal/internal/domain"
)

// ListContacts returns the contacts of a member, used by the visitor gate
func (c *Client) ListContacts(ctx context.Context, memberID string) ([]domain.Contact, error) {
	var contacts []domain.Contact
	if _, err := c.do(ctx, call{method: http.MethodGet, path: memberPath(memberID, "contacts")}, &contacts); err != nil {
		return nil, err
	}
	return contacts, nil
}

// ListBillers returns the billers visible to a contact
func (c *Client) ListBillers(ctx context.Context, memberID string, contactID int64) ([]domain.Biller, error) {
	var billers []domain.Biller
	_, err := c.do(ctx, call{
		method: http.MethodGet,
		path:   memberPath(memberID, "billers"),
		query:  url.Values{"contact_id": {strconv.FormatInt(contactID, 10)}},
	}, &billers)
	if err != nil {
		return nil, err
	}
	return billers, nil
}

// ToggleFavoriteBiller flips the favorite flag of a biller for a contact
func (c *Client) ToggleFavoriteBiller(ctx context.Context, memberID string, billerID, contactID int64) error {
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   memberPath(memberID, "billers", strconv.FormatInt(billerID, 10), "favorite"),
		body:   map[string]int64{"contact_id": contactID},
	}, nil)
	return err
}

// PayBill submits a bill payment
func (c *Client) PayBill(ctx context.Context, memberID string, payment domain.BillPayment, idempotencyKey string) (*domain.BillPaymentResult, error) {
	env, err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           memberPath(memberID, "bill-payments"),
		body:           payment,
		idempotencyKey: idempotencyKey,
	}, nil)
	if err != nil {
		return nil, err
	}
	return &domain.BillPaymentResult{Success: true, Message: env.Message}, nil
}

// WalletBalance returns the wallet and owner of a contact
func (c *Client) WalletBalance(ctx context.Context, contactID int64) (*domain.WalletBalance, error) {
	var balance domain.WalletBalance
	if _, err := c.do(ctx, call{method: http.MethodGet, path: contactPath(contactID, "wallet", "balance")}, &balance); err != nil {
		return nil, err
	}
	return &balance, nil
}

// WalletTransactions lists wallet transactions, optionally for a single day
func (c *Client) WalletTransactions(ctx context.Context, contactID int64, date *time.Time) ([]domain.Transaction, error) {
	cl := call{method: http.MethodGet, path: contactPath(contactID, "wallet", "transactions")}
	if date != nil {
		cl.query = url.Values{"date": {date.Format(time.DateOnly)}}
	}

	var transactions []domain.Transaction
	if _, err := c.do(ctx, cl, &transactions); err != nil {
		return nil, err
	}
	return transactions, nil
}

// WalletTransfer moves funds from a contact's wallet to another contact
func (c *Client) WalletTransfer(ctx context.Context, contactID int64, transfer domain.Transfer, idempotencyKey string) (*domain.TransferResult, error) {
	var result domain.TransferResult
	_, err := c.do(ctx, call{
		method:         http.MethodPost,
		path:           contactPath(contactID, "wallet", "transfer"),
		body:           transfer,
		idempotencyKey: idempotencyKey,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SearchRecords runs a free-text lookup in one record collection
func (c *Client) SearchRecords(ctx context.Context, memberID string, kind domain.RecordKind, query domain.RecordQuery) ([]domain.Record, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown record kind %q", kind)
	}

	var records []domain.Record
	_, err := c.do(ctx, call{
		method: http.MethodPost,
		path:   memberPath(memberID, "search-"+string(kind)),
		body:   query,
	}, &records)
	if err != nil {
		return nil, err
	}
	return records, nil
}
