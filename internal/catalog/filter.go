package catalog

import (
	"strings"

	"community-portal/internal/domain"

	"github.com/shopspring/decimal"
)

// Price range identifiers accepted by Filter
const (
	PriceRangeUnderLow = "under_10"
	PriceRangeLowMid   = "10_50"
	PriceRangeMidHigh  = "50_100"
	PriceRangeOverHigh = "over_100"
)

// Availability values accepted by Filter
const (
	AvailabilityInStock    = "in_stock"
	AvailabilityOutOfStock = "out_of_stock"
)

// Criteria selects products from a catalog listing. Empty fields pass everything through.
type Criteria struct {
	Search       string `json:"search"`
	Category     string `json:"category"`
	Type         string `json:"type"`
	PriceRange   string `json:"price_range"`
	Availability string `json:"availability"`
}

// PriceBuckets holds the thresholds behind the price range identifiers.
// Buckets are half-open: [0,Low), [Low,Mid), [Mid,High), [High,∞).
type PriceBuckets struct {
	Low  decimal.Decimal
	Mid  decimal.Decimal
	High decimal.Decimal
}

// DefaultPriceBuckets are expressed in the storefront's base currency units
func DefaultPriceBuckets() PriceBuckets {
	return PriceBuckets{
		Low:  decimal.NewFromInt(10),
		Mid:  decimal.NewFromInt(50),
		High: decimal.NewFromInt(100),
	}
}

// Contains reports whether price falls in the named range. Unknown ranges match everything.
func (b PriceBuckets) Contains(priceRange string, price decimal.Decimal) bool {
	switch priceRange {
	case PriceRangeUnderLow:
		return price.LessThan(b.Low)
	case PriceRangeLowMid:
		return price.GreaterThanOrEqual(b.Low) && price.LessThan(b.Mid)
	case PriceRangeMidHigh:
		return price.GreaterThanOrEqual(b.Mid) && price.LessThan(b.High)
	case PriceRangeOverHigh:
		return price.GreaterThanOrEqual(b.High)
	default:
		return true
	}
}

// Filter returns the products matching every criterion, preserving order
func Filter(products []domain.Product, c Criteria, buckets PriceBuckets) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(c.Search))

	filtered := make([]domain.Product, 0, len(products))
	for i := range products {
		p := &products[i]

		if search != "" && !matchesSearch(p, search) {
			continue
		}
		if c.Category != "" && p.Category != c.Category {
			continue
		}
		if c.Type != "" && string(p.Type) != c.Type {
			continue
		}
		if c.PriceRange != "" && !buckets.Contains(c.PriceRange, EffectivePrice(p, nil)) {
			continue
		}
		if !matchesAvailability(p, c.Availability) {
			continue
		}

		filtered = append(filtered, *p)
	}
	return filtered
}

func matchesSearch(p *domain.Product, search string) bool {
	return strings.Contains(strings.ToLower(p.Name), search) ||
		strings.Contains(strings.ToLower(p.Description), search) ||
		strings.Contains(strings.ToLower(p.Category), search)
}

func matchesAvailability(p *domain.Product, availability string) bool {
	switch availability {
	case AvailabilityInStock:
		return EffectiveStock(p, nil) > 0
	case AvailabilityOutOfStock:
		return EffectiveStock(p, nil) <= 0
	default:
		return true
	}
}

// Categories returns the distinct non-empty categories in first-seen order
func Categories(products []domain.Product) []string {
	seen := make(map[string]struct{})
	categories := []string{}
	for _, p := range products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		categories = append(categories, p.Category)
	}
	return categories
}
