package domain

import (
	"bytes"
	"strings"

	"github.com/shopspring/decimal"
)

// Money is a nullable decimal amount. It decodes from JSON numbers, quoted
// decimal strings and null. Values that cannot be parsed decode as absent
// instead of failing the whole payload.
type Money struct {
	decimal.NullDecimal
}

// NewMoney returns a present amount.
func NewMoney(d decimal.Decimal) Money {
	return Money{decimal.NullDecimal{Decimal: d, Valid: true}}
}

// MoneyFromFloat returns a present amount from a float.
func MoneyFromFloat(f float64) Money {
	return NewMoney(decimal.NewFromFloat(f))
}

// Or returns the amount, or fallback when absent.
func (m Money) Or(fallback decimal.Decimal) decimal.Decimal {
	if !m.Valid {
		return fallback
	}
	return m.Decimal
}

func (m *Money) UnmarshalJSON(data []byte) error {
	m.Decimal = decimal.Zero
	m.Valid = false

	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	s := strings.TrimSpace(strings.Trim(string(raw), `"`))
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}

	m.Decimal = d
	m.Valid = true
	return nil
}

func (m Money) MarshalJSON() ([]byte, error) {
	if !m.Valid {
		return []byte("null"), nil
	}
	return []byte(m.Decimal.String()), nil
}
