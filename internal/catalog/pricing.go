package catalog

import (
	"community-portal/internal/domain"

	"github.com/shopspring/decimal"
)

// EffectivePrice resolves the unit price of a selection. A variant price
// overrides the product price; absent prices resolve to zero.
func EffectivePrice(product *domain.Product, variant *domain.Variant) decimal.Decimal {
	if variant != nil && variant.Price.Valid {
		return variant.Price.Decimal
	}
	if product == nil {
		return decimal.Zero
	}
	return product.Price.Or(decimal.Zero)
}

// EffectiveStock resolves the available quantity of a selection. When a
// variant is selected its stock governs, even when it is zero.
func EffectiveStock(product *domain.Product, variant *domain.Variant) int {
	if variant != nil {
		if variant.StockQuantity == nil {
			return 0
		}
		return *variant.StockQuantity
	}
	if product == nil || product.StockQuantity == nil {
		return 0
	}
	return *product.StockQuantity
}

// tracksStock reports whether availability for the selection is bounded by stock
func tracksStock(product *domain.Product, variant *domain.Variant) bool {
	if product.Type == domain.ProductTypePhysical {
		return true
	}
	if variant != nil {
		return variant.StockQuantity != nil
	}
	return product.StockQuantity != nil
}

// IsOrderable reports whether the selection can be put in a cart.
func IsOrderable(product *domain.Product, variant *domain.Variant) bool {
	if product == nil || product.Status != domain.ProductStatusPublished {
		return false
	}
	if variant != nil && !variant.IsActive {
		return false
	}
	if !tracksStock(product, variant) {
		return true
	}
	return EffectiveStock(product, variant) > 0
}

// CanFulfil reports whether quantity units of the selection are available
func CanFulfil(product *domain.Product, variant *domain.Variant, quantity int) bool {
	if !IsOrderable(product, variant) {
		return false
	}
	if !tracksStock(product, variant) {
		return true
	}
	return EffectiveStock(product, variant) >= quantity
}
