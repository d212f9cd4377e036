package cart

import (
	"encoding/json"
	"testing"

	"community-portal/internal/catalog"
	"community-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priced(price string) *domain.Product {
	return &domain.Product{
		ID:     uuid.New(),
		Type:   domain.ProductTypeDigital,
		Status: domain.ProductStatusPublished,
		Price:  domain.NewMoney(decimal.RequireFromString(price)),
	}
}

func TestLedger_AddMergesIdenticalKeys(t *testing.T) {
	var l Ledger
	p1 := uuid.New()
	v1 := uuid.New()

	require.NoError(t, l.Add(p1, &v1, 1))
	require.NoError(t, l.Add(p1, &v1, 1))

	require.Len(t, l.Lines, 1)
	assert.Equal(t, 2, l.Lines[0].Quantity)
}

func TestLedger_DistinctVariantsAreDistinctLines(t *testing.T) {
	var l Ledger
	p1 := uuid.New()
	v1, v2 := uuid.New(), uuid.New()

	require.NoError(t, l.Add(p1, &v1, 1))
	require.NoError(t, l.Add(p1, &v2, 2))
	require.NoError(t, l.Add(p1, nil, 3))

	assert.Len(t, l.Lines, 3)
	assert.Equal(t, 6, l.ItemCount())
}

func TestLedger_AddRejectsNonPositiveQuantity(t *testing.T) {
	var l Ledger
	assert.ErrorIs(t, l.Add(uuid.New(), nil, 0), ErrInvalidQuantity)
	assert.True(t, l.IsEmpty())
}

func TestLedger_SetQuantity(t *testing.T) {
	var l Ledger
	p1 := uuid.New()
	require.NoError(t, l.Add(p1, nil, 1))

	assert.True(t, l.SetQuantity(p1, 5, nil))
	line, ok := l.Line(p1, nil)
	require.True(t, ok)
	assert.Equal(t, 5, line.Quantity)

	assert.False(t, l.SetQuantity(uuid.New(), 2, nil))
}

func TestLedger_SetQuantityZeroEqualsRemove(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()

	var a, b Ledger
	for _, l := range []*Ledger{&a, &b} {
		require.NoError(t, l.Add(p1, nil, 2))
		require.NoError(t, l.Add(p2, nil, 1))
	}

	a.SetQuantity(p1, 0, nil)
	b.Remove(p1, nil)

	assert.Equal(t, b.Lines, a.Lines)
}

func TestLedger_TotalUsesLivePrices(t *testing.T) {
	tea := priced("10")
	shirt := priced("100")
	variant := domain.Variant{ID: uuid.New(), Price: domain.MoneyFromFloat(80), IsActive: true}
	shirt.Variants = []domain.Variant{variant}
	source := ProductMap{tea.ID: tea, shirt.ID: shirt}

	var l Ledger
	require.NoError(t, l.Add(tea.ID, nil, 3))
	require.NoError(t, l.Add(shirt.ID, &variant.ID, 1))
	assert.Equal(t, "110", l.Total(source).String())

	tea.Price = domain.MoneyFromFloat(12)
	assert.Equal(t, "116", l.Total(source).String(), "totals follow current prices")

	delete(source, shirt.ID)
	assert.Equal(t, "36", l.Total(source).String())
}

func TestLedger_SelectionsClearedByAddAndClear(t *testing.T) {
	var l Ledger
	p1 := uuid.New()

	l.Select(p1, catalog.Selection{"color": "red"})
	assert.Equal(t, "red", l.Selection(p1)["color"])

	require.NoError(t, l.Add(p1, nil, 1))
	assert.Nil(t, l.Selection(p1))

	l.Select(p1, catalog.Selection{"size": "M"})
	l.Clear()
	assert.True(t, l.IsEmpty())
	assert.Nil(t, l.Selections)
	assert.Equal(t, 0, l.ItemCount())
}

func TestLedger_JSONRoundTripKeepsKeys(t *testing.T) {
	var l Ledger
	p1, v1 := uuid.New(), uuid.New()
	require.NoError(t, l.Add(p1, &v1, 2))
	l.Select(uuid.New(), catalog.Selection{"size": "S"})

	data, err := json.Marshal(&l)
	require.NoError(t, err)

	var decoded Ledger
	require.NoError(t, json.Unmarshal(data, &decoded))
	_, ok := decoded.Line(p1, &v1)
	assert.True(t, ok)
	assert.Len(t, decoded.Selections, 1)
}

func TestProperty_ItemCountIsSumOfAdds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("repeated adds of one key merge into a single line", prop.ForAll(
		func(quantities []int) bool {
			var l Ledger
			p1 := uuid.New()
			sum := 0
			for _, q := range quantities {
				if err := l.Add(p1, nil, q); err != nil {
					return false
				}
				sum += q
			}
			if len(quantities) == 0 {
				return l.IsEmpty()
			}
			return len(l.Lines) == 1 && l.ItemCount() == sum
		},
		gen.SliceOf(gen.IntRange(1, 20)),
	))

	properties.TestingRun(t)
}
