package checkout

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"community-portal/internal/cart"
	"community-portal/internal/catalog"
	"community-portal/internal/domain"
	"community-portal/internal/shipping"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TaxRate is applied to the cart subtotal of every order
var TaxRate = decimal.RequireFromString("0.12")

var (
	ErrEmptyCart          = errors.New("cart is empty")
	ErrShippingUnresolved = errors.New("shipping is not available for the selected location")
)

// LineError reports which cart line blocked the order
type LineError struct {
	ProductID uuid.UUID
	Name      string
	Err       error
}

func (e *LineError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("product %s: %v", e.ProductID, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Request is the checkout form submitted by a visitor
type Request struct {
	Name           string `json:"name" validate:"required,max=255"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone" validate:"required,max=50"`
	Address        string `json:"address" validate:"required,max=500"`
	Address2       string `json:"address2" validate:"max=500"`
	Country        string `json:"country" validate:"required"`
	Province       string `json:"province" validate:"required"`
	City           string `json:"city" validate:"required"`
	PostalCode     string `json:"postal_code" validate:"max=20"`
	BillingAddress string `json:"billing_address" validate:"max=1000"`
	Notes          string `json:"notes" validate:"max=1000"`
}

func (r Request) shippingAddress() domain.Address {
	return domain.Address{
		Line1:      r.Address,
		Line2:      r.Address2,
		City:       r.City,
		Province:   r.Province,
		Country:    r.Country,
		PostalCode: r.PostalCode,
	}
}

// Totals are the computed amounts of an order
type Totals struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	ShippingFee decimal.Decimal `json:"shipping_fee"`
	Total       decimal.Decimal `json:"total"`
}

// ComputeTotals applies TaxRate to subtotal and adds the shipping fee
func ComputeTotals(subtotal, shippingFee decimal.Decimal) Totals {
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal:    subtotal,
		Tax:         tax,
		ShippingFee: shippingFee,
		Total:       subtotal.Add(tax).Add(shippingFee),
	}
}

// Composer turns a cart and a checkout form into an order snapshot
type Composer struct {
	rates    shipping.Table
	validate *validator.Validate
	now      func() time.Time
}

// NewComposer creates a Composer resolving shipping against rates
func NewComposer(rates shipping.Table) *Composer {
	return &Composer{
		rates:    rates,
		validate: validator.New(),
		now:      time.Now,
	}
}

// ShippingMethod resolves the shipping method of a destination. A method
// with no fee counts as unresolved.
func (c *Composer) ShippingMethod(country, province, city string) (shipping.Method, error) {
	m, err := c.rates.Resolve(country, province, city)
	if err != nil {
		return shipping.Method{}, fmt.Errorf("%w: %v", ErrShippingUnresolved, err)
	}
	if !m.Fee.IsPositive() {
		return shipping.Method{}, ErrShippingUnresolved
	}
	return m, nil
}

// Quote computes the totals the visitor would pay for a destination
func (c *Composer) Quote(ledger *cart.Ledger, source cart.ProductSource, country, province, city string) (Totals, shipping.Method, error) {
	m, err := c.ShippingMethod(country, province, city)
	if err != nil {
		return Totals{}, shipping.Method{}, err
	}
	return ComputeTotals(ledger.Total(source), m.Fee), m, nil
}

// Compose validates the request and cart and builds the order snapshot.
// Validation failures are returned as validator.ValidationErrors.
func (c *Composer) Compose(memberID string, req Request, ledger *cart.Ledger, source cart.ProductSource) (*domain.Order, error) {
	if err := c.validate.Struct(req); err != nil {
		return nil, err
	}
	if ledger == nil || ledger.IsEmpty() {
		return nil, ErrEmptyCart
	}

	method, err := c.ShippingMethod(req.Country, req.Province, req.City)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.OrderLine, 0, len(ledger.Lines))
	for _, line := range ledger.Lines {
		snapshot, err := snapshotLine(line, source)
		if err != nil {
			return nil, err
		}
		lines = append(lines, snapshot)
	}

	totals := ComputeTotals(ledger.Total(source), method.Fee)
	shippingAddress := req.shippingAddress().String()
	billingAddress := strings.TrimSpace(req.BillingAddress)
	if billingAddress == "" {
		billingAddress = shippingAddress
	}

	now := c.now().UTC()
	return &domain.Order{
		ID:       uuid.New(),
		MemberID: memberID,
		Status:   domain.OrderStatusPending,
		Customer: domain.Customer{
			Name:  strings.TrimSpace(req.Name),
			Email: strings.TrimSpace(req.Email),
			Phone: strings.TrimSpace(req.Phone),
		},
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		ShippingMethod:  method.Name,
		Notes:           strings.TrimSpace(req.Notes),
		Lines:           lines,
		Subtotal:        totals.Subtotal,
		Tax:             totals.Tax,
		ShippingFee:     totals.ShippingFee,
		Total:           totals.Total,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func snapshotLine(line domain.CartLine, source cart.ProductSource) (domain.OrderLine, error) {
	product, ok := source.Product(line.ProductID)
	if !ok {
		return domain.OrderLine{}, &LineError{ProductID: line.ProductID, Err: catalog.ErrProductNotFound}
	}

	var variant *domain.Variant
	if line.VariantID != nil {
		variant = product.Variant(*line.VariantID)
		if variant == nil {
			return domain.OrderLine{}, &LineError{ProductID: product.ID, Name: product.Name, Err: catalog.ErrVariantNotFound}
		}
	} else if product.HasVariants() {
		return domain.OrderLine{}, &LineError{ProductID: product.ID, Name: product.Name, Err: catalog.ErrVariantRequired}
	}

	if !catalog.IsOrderable(product, variant) {
		return domain.OrderLine{}, &LineError{ProductID: product.ID, Name: product.Name, Err: catalog.ErrProductUnavailable}
	}
	if !catalog.CanFulfil(product, variant, line.Quantity) {
		return domain.OrderLine{}, &LineError{ProductID: product.ID, Name: product.Name, Err: catalog.ErrInsufficientStock}
	}

	price := catalog.EffectivePrice(product, variant)
	snapshot := domain.OrderLine{
		ID:        uuid.New(),
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: price,
		Quantity:  line.Quantity,
		LineTotal: price.Mul(decimal.NewFromInt(int64(line.Quantity))),
	}
	if variant != nil {
		id := variant.ID
		snapshot.VariantID = &id
		snapshot.Attributes = make(map[string]string, len(variant.Attributes))
		for k, v := range variant.Attributes {
			snapshot.Attributes[k] = v
		}
	}
	return snapshot, nil
}
