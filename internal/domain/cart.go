package domain

import "github.com/google/uuid"

// CartLine is one entry of a visitor cart keyed by product and optional variant
type CartLine struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

// SameKey reports whether the line is keyed by the given product and variant
func (l CartLine) SameKey(productID uuid.UUID, variantID *uuid.UUID) bool {
	if l.ProductID != productID {
		return false
	}
	if l.VariantID == nil || variantID == nil {
		return l.VariantID == nil && variantID == nil
	}
	return *l.VariantID == *variantID
}
