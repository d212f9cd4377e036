package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the server-side lifecycle state read back for display
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Customer holds the contact fields captured at checkout
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Address is a structured shipping or billing address
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	Country    string `json:"country"`
	PostalCode string `json:"postal_code,omitempty"`
}

// String renders the address on a single line, skipping empty parts
func (a Address) String() string {
	parts := []string{a.Line1, a.Line2, a.City, a.Province, a.PostalCode, a.Country}
	kept := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}

// Order is a point-in-time snapshot of a checkout submission
type Order struct {
	ID              uuid.UUID       `json:"id" db:"id"`
	MemberID        string          `json:"member_id" db:"member_id"`
	IdempotencyKey  string          `json:"-" db:"idempotency_key"`
	Status          OrderStatus     `json:"status" db:"status"`
	Customer        Customer        `json:"customer"`
	ShippingAddress string          `json:"shipping_address" db:"shipping_address"`
	BillingAddress  string          `json:"billing_address" db:"billing_address"`
	ShippingMethod  string          `json:"shipping_method" db:"shipping_method"`
	Notes           string          `json:"notes,omitempty" db:"notes"`
	Lines           []OrderLine     `json:"lines"`
	Subtotal        decimal.Decimal `json:"subtotal" db:"subtotal"`
	Tax             decimal.Decimal `json:"tax" db:"tax"`
	ShippingFee     decimal.Decimal `json:"shipping_fee" db:"shipping_fee"`
	Total           decimal.Decimal `json:"total" db:"total"`
	CreatedAt       time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" db:"updated_at"`
}

// OrderLine captures product data as it was when the order was submitted
type OrderLine struct {
	ID         uuid.UUID         `json:"id" db:"id"`
	ProductID  uuid.UUID         `json:"product_id" db:"product_id"`
	VariantID  *uuid.UUID        `json:"variant_id,omitempty" db:"variant_id"`
	Name       string            `json:"name" db:"name"`
	Attributes map[string]string `json:"attributes,omitempty" db:"attributes"`
	UnitPrice  decimal.Decimal   `json:"unit_price" db:"unit_price"`
	Quantity   int               `json:"quantity" db:"quantity"`
	LineTotal  decimal.Decimal   `json:"line_total" db:"line_total"`
}
