package service

import (
	"context"
	"testing"
	"time"

	"community-portal/internal/cart"
	"community-portal/internal/catalog"
	"community-portal/internal/domain"
	"community-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService(t *testing.T, products ...*domain.Product) CartService {
	t.Helper()
	_, client := newTestRedisClient(t)
	pricer := catalog.NewPricer("₱", "en-PH")
	catalogService := NewCatalogService(newMockProductRepository(products...), pricer, catalog.DefaultPriceBuckets())
	return NewCartService(repository.NewCartRepository(client, time.Hour), catalogService, pricer, nil)
}

func TestCartService_AddMergesAndPrices(t *testing.T) {
	bread := publishedProduct("Bread", "45.50", domain.IntPtr(10))
	svc := newTestCartService(t, bread)
	ctx := context.Background()

	_, err := svc.Add(ctx, "sid", testMember, bread.ID, nil, 1)
	require.NoError(t, err)
	view, err := svc.Add(ctx, "sid", testMember, bread.ID, nil, 2)
	require.NoError(t, err)

	require.Len(t, view.Lines, 1)
	assert.Equal(t, 3, view.Lines[0].Quantity)
	assert.Equal(t, 3, view.ItemCount)
	assert.True(t, view.Subtotal.Equal(decimal.RequireFromString("136.50")))
	assert.Equal(t, "₱136.50", view.FormattedSubtotal)
	assert.True(t, view.Lines[0].Available)
}

func TestCartService_AddRequiresVariant(t *testing.T) {
	p := shirt()
	svc := newTestCartService(t, p)

	_, err := svc.Add(context.Background(), "sid", testMember, p.ID, nil, 1)
	assert.ErrorIs(t, err, catalog.ErrVariantRequired)

	unknown := uuid.New()
	_, err = svc.Add(context.Background(), "sid", testMember, p.ID, &unknown, 1)
	assert.ErrorIs(t, err, catalog.ErrVariantNotFound)
}

func TestCartService_AddChecksAvailability(t *testing.T) {
	p := shirt()
	svc := newTestCartService(t, p)
	ctx := context.Background()
	red, blue, green := p.Variants[0].ID, p.Variants[1].ID, p.Variants[2].ID

	_, err := svc.Add(ctx, "sid", testMember, p.ID, &blue, 1)
	assert.ErrorIs(t, err, catalog.ErrProductUnavailable, "zero stock variant")

	_, err = svc.Add(ctx, "sid", testMember, p.ID, &green, 1)
	assert.ErrorIs(t, err, catalog.ErrProductUnavailable, "inactive variant")

	_, err = svc.Add(ctx, "sid", testMember, p.ID, &red, 2)
	require.NoError(t, err)
	_, err = svc.Add(ctx, "sid", testMember, p.ID, &red, 2)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock, "merged quantity exceeds stock")

	view, err := svc.View(ctx, "sid", testMember)
	require.NoError(t, err)
	assert.Equal(t, 2, view.ItemCount)
	assert.Equal(t, map[string]string{"color": "red", "size": "S"}, view.Lines[0].Attributes)
	assert.True(t, view.Lines[0].UnitPrice.Equal(decimal.NewFromInt(80)))
}

func TestCartService_AddRejectsUnpublishedAndBadQuantity(t *testing.T) {
	draft := publishedProduct("Draft", "10", domain.IntPtr(1))
	draft.Status = domain.ProductStatusDraft
	svc := newTestCartService(t, draft)

	_, err := svc.Add(context.Background(), "sid", testMember, draft.ID, nil, 1)
	assert.ErrorIs(t, err, catalog.ErrProductNotFound)

	_, err = svc.Add(context.Background(), "sid", testMember, draft.ID, nil, 0)
	assert.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestCartService_UpdateToZeroRemoves(t *testing.T) {
	bread := publishedProduct("Bread", "10", domain.IntPtr(10))
	svc := newTestCartService(t, bread)
	ctx := context.Background()

	_, err := svc.Add(ctx, "sid", testMember, bread.ID, nil, 2)
	require.NoError(t, err)

	view, err := svc.Update(ctx, "sid", testMember, bread.ID, nil, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, view.ItemCount)

	_, err = svc.Update(ctx, "sid", testMember, bread.ID, nil, 11)
	assert.ErrorIs(t, err, catalog.ErrInsufficientStock)

	view, err = svc.Update(ctx, "sid", testMember, bread.ID, nil, 0)
	require.NoError(t, err)
	assert.Empty(t, view.Lines)

	_, err = svc.Update(ctx, "sid", testMember, bread.ID, nil, 1)
	assert.ErrorIs(t, err, ErrCartLineNotFound)
}

func TestCartService_ViewUsesLivePrices(t *testing.T) {
	bread := publishedProduct("Bread", "10", domain.IntPtr(10))
	svc := newTestCartService(t, bread)
	ctx := context.Background()

	_, err := svc.Add(ctx, "sid", testMember, bread.ID, nil, 2)
	require.NoError(t, err)

	bread.Price = domain.MoneyFromFloat(12.5)
	view, err := svc.View(ctx, "sid", testMember)
	require.NoError(t, err)
	assert.True(t, view.Subtotal.Equal(decimal.NewFromInt(25)))
}

func TestCartService_SelectIsClearedByAdd(t *testing.T) {
	_, client := newTestRedisClient(t)
	p := shirt()
	pricer := catalog.NewPricer("₱", "en-PH")
	carts := repository.NewCartRepository(client, time.Hour)
	svc := NewCartService(carts, NewCatalogService(newMockProductRepository(p), pricer, catalog.DefaultPriceBuckets()), pricer, nil)
	ctx := context.Background()

	require.NoError(t, svc.Select(ctx, "sid", testMember, p.ID, catalog.Selection{"color": "red"}))
	ledger, err := carts.Load(ctx, "sid", testMember)
	require.NoError(t, err)
	assert.Equal(t, catalog.Selection{"color": "red"}, ledger.Selection(p.ID))

	red := p.Variants[0].ID
	_, err = svc.Add(ctx, "sid", testMember, p.ID, &red, 1)
	require.NoError(t, err)

	ledger, err = carts.Load(ctx, "sid", testMember)
	require.NoError(t, err)
	assert.Nil(t, ledger.Selection(p.ID))
}

func TestProperty_CartSetQuantityZeroEqualsRemove(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("update to zero leaves the same cart as remove", prop.ForAll(
		func(qty int) bool {
			bread := publishedProduct("Bread", "10", domain.IntPtr(100))
			jam := publishedProduct("Jam", "5", domain.IntPtr(100))
			svc := newTestCartService(t, bread, jam)
			ctx := context.Background()

			for _, sid := range []string{"a", "b"} {
				if _, err := svc.Add(ctx, sid, testMember, bread.ID, nil, qty); err != nil {
					return false
				}
				if _, err := svc.Add(ctx, sid, testMember, jam.ID, nil, 1); err != nil {
					return false
				}
			}

			updated, err := svc.Update(ctx, "a", testMember, bread.ID, nil, 0)
			if err != nil {
				return false
			}
			removed, err := svc.Remove(ctx, "b", testMember, bread.ID, nil)
			if err != nil {
				return false
			}
			return updated.ItemCount == removed.ItemCount &&
				updated.Subtotal.Equal(removed.Subtotal) &&
				len(updated.Lines) == 1 && len(removed.Lines) == 1
		},
		gen.IntRange(1, 50),
	))

	properties.TestingRun(t)
}
