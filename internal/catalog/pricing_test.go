package catalog

import (
	"encoding/json"
	"testing"

	"community-portal/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEffectivePrice_VariantOverridesProduct(t *testing.T) {
	product := &domain.Product{Price: domain.MoneyFromFloat(100)}
	variant := &domain.Variant{Price: domain.MoneyFromFloat(80)}

	assert.True(t, decimal.NewFromInt(80).Equal(EffectivePrice(product, variant)))
}

func TestEffectivePrice_FallsBackToProduct(t *testing.T) {
	product := &domain.Product{Price: domain.MoneyFromFloat(12.5)}
	variant := &domain.Variant{}

	assert.True(t, decimal.NewFromFloat(12.5).Equal(EffectivePrice(product, variant)))
	assert.True(t, decimal.NewFromFloat(12.5).Equal(EffectivePrice(product, nil)))
}

func TestEffectivePrice_DecodedPrices(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		expected string
	}{
		{"string encoded variant price", `{"price": 100, "variants": [{"price": "79.50"}]}`, "79.5"},
		{"null variant price", `{"price": "100.00", "variants": [{"price": null}]}`, "100"},
		{"both absent", `{"variants": [{}]}`, "0"},
		{"both unparsable", `{"price": "abc", "variants": [{"price": "n/a"}]}`, "0"},
		{"unparsable variant falls back", `{"price": 15, "variants": [{"price": "free"}]}`, "15"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var product domain.Product
			require.NoError(t, json.Unmarshal([]byte(tt.payload), &product))
			require.Len(t, product.Variants, 1)

			got := EffectivePrice(&product, &product.Variants[0])
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestEffectiveStock(t *testing.T) {
	product := &domain.Product{StockQuantity: domain.IntPtr(7)}

	assert.Equal(t, 7, EffectiveStock(product, nil))
	assert.Equal(t, 0, EffectiveStock(product, &domain.Variant{StockQuantity: domain.IntPtr(0)}))
	assert.Equal(t, 3, EffectiveStock(product, &domain.Variant{StockQuantity: domain.IntPtr(3)}))
	assert.Equal(t, 0, EffectiveStock(product, &domain.Variant{}))
	assert.Equal(t, 0, EffectiveStock(&domain.Product{}, nil))
}

func TestIsOrderable(t *testing.T) {
	published := func(pt domain.ProductType, stock *int) *domain.Product {
		return &domain.Product{ID: uuid.New(), Type: pt, Status: domain.ProductStatusPublished, StockQuantity: stock}
	}

	assert.False(t, IsOrderable(published(domain.ProductTypePhysical, nil), nil), "physical with nil stock has zero stock")
	assert.True(t, IsOrderable(published(domain.ProductTypePhysical, domain.IntPtr(1)), nil))
	assert.True(t, IsOrderable(published(domain.ProductTypeDigital, nil), nil))
	assert.False(t, IsOrderable(published(domain.ProductTypeService, domain.IntPtr(0)), nil))

	draft := published(domain.ProductTypeDigital, nil)
	draft.Status = domain.ProductStatusDraft
	assert.False(t, IsOrderable(draft, nil))

	inactive := &domain.Variant{StockQuantity: domain.IntPtr(5), IsActive: false}
	assert.False(t, IsOrderable(published(domain.ProductTypePhysical, nil), inactive))

	active := &domain.Variant{StockQuantity: domain.IntPtr(5), IsActive: true}
	assert.True(t, IsOrderable(published(domain.ProductTypePhysical, nil), active))
	assert.True(t, CanFulfil(published(domain.ProductTypePhysical, nil), active, 5))
	assert.False(t, CanFulfil(published(domain.ProductTypePhysical, nil), active, 6))
}

func TestProperty_VariantPriceOverridesProductPrice(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("a present variant price always wins", prop.ForAll(
		func(productCents int64, variantCents int64) bool {
			product := &domain.Product{Price: domain.NewMoney(decimal.New(productCents, -2))}
			variant := &domain.Variant{Price: domain.NewMoney(decimal.New(variantCents, -2))}

			return EffectivePrice(product, variant).Equal(decimal.New(variantCents, -2))
		},
		gen.Int64Range(0, 10_000_000),
		gen.Int64Range(0, 10_000_000),
	))

	properties.Property("garbage prices resolve to zero", prop.ForAll(
		func(productPrice string, variantPrice string) bool {
			payload, _ := json.Marshal(map[string]any{
				"price":    productPrice,
				"variants": []map[string]any{{"price": variantPrice}},
			})

			var product domain.Product
			if err := json.Unmarshal(payload, &product); err != nil {
				return false
			}
			return EffectivePrice(&product, &product.Variants[0]).IsZero()
		},
		gen.RegexMatch(`[a-z]{1,8}`),
		gen.RegexMatch(`[a-z]{1,8}`),
	))

	properties.TestingRun(t)
}
