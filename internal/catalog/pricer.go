package catalog

import (
	"community-portal/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Pricer is the pricing capability set shared by the cart, checkout and
// transport layers. It is constructed once and injected.
type Pricer interface {
	EffectivePrice(product *domain.Product, variant *domain.Variant) decimal.Decimal
	EffectiveStock(product *domain.Product, variant *domain.Variant) int
	IsOrderable(product *domain.Product, variant *domain.Variant) bool
	FormatPrice(amount decimal.Decimal) string
}

type pricer struct {
	symbol  string
	printer *message.Printer
}

// NewPricer creates a Pricer that formats amounts with the given currency
// symbol and the grouping rules of locale (BCP 47, falls back to English).
func NewPricer(currencySymbol, locale string) Pricer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &pricer{
		symbol:  currencySymbol,
		printer: message.NewPrinter(tag),
	}
}

func (p *pricer) EffectivePrice(product *domain.Product, variant *domain.Variant) decimal.Decimal {
	return EffectivePrice(product, variant)
}

func (p *pricer) EffectiveStock(product *domain.Product, variant *domain.Variant) int {
	return EffectiveStock(product, variant)
}

func (p *pricer) IsOrderable(product *domain.Product, variant *domain.Variant) bool {
	return IsOrderable(product, variant)
}

// FormatPrice renders amount with two decimals, e.g. "₱1,234.50"
func (p *pricer) FormatPrice(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Abs()
	}
	f := amount.Round(2).InexactFloat64()
	return sign + p.symbol + p.printer.Sprint(number.Decimal(f, number.Scale(2)))
}
