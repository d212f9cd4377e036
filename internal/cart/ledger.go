package cart

import (
	"errors"

	"community-portal/internal/catalog"
	"community-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// ProductSource resolves live catalog data for cart lines
type ProductSource interface {
	Product(id uuid.UUID) (*domain.Product, bool)
}

// ProductMap is a ProductSource backed by an in-memory map
type ProductMap map[uuid.UUID]*domain.Product

func (m ProductMap) Product(id uuid.UUID) (*domain.Product, bool) {
	p, ok := m[id]
	return p, ok
}

// Ledger is an ordered list of cart lines plus any pending variant
// selections. The zero value is an empty cart.
type Ledger struct {
	Lines      []domain.CartLine               `json:"lines"`
	Selections map[uuid.UUID]catalog.Selection `json:"selections,omitempty"`
}

// Add merges qty into the line with the same product and variant, or
// appends a new line.
func (l *Ledger) Add(productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}

	delete(l.Selections, productID)

	if i := l.index(productID, variantID); i >= 0 {
		l.Lines[i].Quantity += qty
		return nil
	}

	l.Lines = append(l.Lines, domain.CartLine{
		ProductID: productID,
		VariantID: copyID(variantID),
		Quantity:  qty,
	})
	return nil
}

// Remove deletes the matching line. Missing lines are ignored.
func (l *Ledger) Remove(productID uuid.UUID, variantID *uuid.UUID) {
	if i := l.index(productID, variantID); i >= 0 {
		l.Lines = append(l.Lines[:i], l.Lines[i+1:]...)
	}
}

// SetQuantity replaces the quantity of the matching line. A quantity of zero
// or less removes it. It reports whether a line matched.
func (l *Ledger) SetQuantity(productID uuid.UUID, qty int, variantID *uuid.UUID) bool {
	i := l.index(productID, variantID)
	if i < 0 {
		return false
	}
	if qty <= 0 {
		l.Remove(productID, variantID)
		return true
	}
	l.Lines[i].Quantity = qty
	return true
}

// Line returns the matching line
func (l *Ledger) Line(productID uuid.UUID, variantID *uuid.UUID) (domain.CartLine, bool) {
	if i := l.index(productID, variantID); i >= 0 {
		return l.Lines[i], true
	}
	return domain.CartLine{}, false
}

// Total sums effective price times quantity using the live product data of
// source. Lines whose product is gone contribute nothing.
func (l *Ledger) Total(source ProductSource) decimal.Decimal {
	total := decimal.Zero
	for _, line := range l.Lines {
		product, ok := source.Product(line.ProductID)
		if !ok {
			continue
		}
		var variant *domain.Variant
		if line.VariantID != nil {
			variant = product.Variant(*line.VariantID)
		}
		price := catalog.EffectivePrice(product, variant)
		total = total.Add(price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}

// ItemCount is the sum of all line quantities
func (l *Ledger) ItemCount() int {
	count := 0
	for _, line := range l.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines
func (l *Ledger) IsEmpty() bool {
	return len(l.Lines) == 0
}

// Select records a pending attribute choice for a product
func (l *Ledger) Select(productID uuid.UUID, selection catalog.Selection) {
	if l.Selections == nil {
		l.Selections = make(map[uuid.UUID]catalog.Selection)
	}
	l.Selections[productID] = selection
}

// Selection returns the pending attribute choice for a product
func (l *Ledger) Selection(productID uuid.UUID) catalog.Selection {
	return l.Selections[productID]
}

// ProductIDs returns the distinct products referenced by the cart
func (l *Ledger) ProductIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(l.Lines))
	ids := make([]uuid.UUID, 0, len(l.Lines))
	for _, line := range l.Lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}

// Clear empties all lines and pending selections
func (l *Ledger) Clear() {
	l.Lines = nil
	l.Selections = nil
}

func (l *Ledger) index(productID uuid.UUID, variantID *uuid.UUID) int {
	for i, line := range l.Lines {
		if line.SameKey(productID, variantID) {
			return i
		}
	}
	return -1
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
