package service

import (
	"context"
	"errors"
	"fmt"

	"community-portal/internal/cart"
	"community-portal/internal/catalog"
	"community-portal/internal/domain"
	"community-portal/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductView is a catalog product with its resolved base price and stock
type ProductView struct {
	domain.Product
	EffectivePrice decimal.Decimal `json:"effective_price"`
	FormattedPrice string          `json:"formatted_price"`
	EffectiveStock int             `json:"effective_stock"`
	Orderable      bool            `json:"orderable"`
	HasVariants    bool            `json:"has_variants"`
}

// Resolution is the outcome of matching an attribute selection to a variant
type Resolution struct {
	Selection      catalog.Selection `json:"selection"`
	Complete       bool              `json:"complete"`
	Variant        *domain.Variant   `json:"variant,omitempty"`
	Price          decimal.Decimal   `json:"price"`
	FormattedPrice string            `json:"formatted_price"`
	Stock          int               `json:"stock"`
	CanAdd         bool              `json:"can_add"`
}

// CatalogService serves the storefront catalog of a member
type CatalogService interface {
	List(ctx context.Context, memberID string, criteria catalog.Criteria) ([]ProductView, error)
	Categories(ctx context.Context, memberID string) ([]string, error)
	Get(ctx context.Context, memberID string, id uuid.UUID) (*ProductView, error)
	Attributes(ctx context.Context, memberID string, id uuid.UUID) (map[string][]string, error)
	Resolve(ctx context.Context, memberID string, id uuid.UUID, selection catalog.Selection) (*Resolution, error)
	// Source loads the live products behind ids in any status, for cart pricing
	Source(ctx context.Context, memberID string, ids []uuid.UUID) (cart.ProductMap, error)
}

type catalogService struct {
	products repository.ProductRepository
	pricer   catalog.Pricer
	buckets  catalog.PriceBuckets
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(products repository.ProductRepository, pricer catalog.Pricer, buckets catalog.PriceBuckets) CatalogService {
	return &catalogService{
		products: products,
		pricer:   pricer,
		buckets:  buckets,
	}
}

func (s *catalogService) List(ctx context.Context, memberID string, criteria catalog.Criteria) ([]ProductView, error) {
	products, err := s.products.ListPublished(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	filtered := catalog.Filter(products, criteria, s.buckets)
	views := make([]ProductView, len(filtered))
	for i := range filtered {
		views[i] = s.view(&filtered[i])
	}
	return views, nil
}

func (s *catalogService) Categories(ctx context.Context, memberID string) ([]string, error) {
	products, err := s.products.ListPublished(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return catalog.Categories(products), nil
}

func (s *catalogService) Get(ctx context.Context, memberID string, id uuid.UUID) (*ProductView, error) {
	product, err := s.published(ctx, memberID, id)
	if err != nil {
		return nil, err
	}
	view := s.view(product)
	return &view, nil
}

func (s *catalogService) Attributes(ctx context.Context, memberID string, id uuid.UUID) (map[string][]string, error) {
	product, err := s.published(ctx, memberID, id)
	if err != nil {
		return nil, err
	}
	return catalog.AvailableAttributes(product), nil
}

// Resolve matches selection against the product's active variants. A
// product without variants resolves to itself.
func (s *catalogService) Resolve(ctx context.Context, memberID string, id uuid.UUID, selection catalog.Selection) (*Resolution, error) {
	product, err := s.published(ctx, memberID, id)
	if err != nil {
		return nil, err
	}
	if selection == nil {
		selection = catalog.Selection{}
	}

	res := &Resolution{Selection: selection}
	if !product.HasVariants() {
		res.Complete = true
	} else {
		res.Complete = catalog.IsSelectionComplete(product, selection)
		res.Variant = catalog.FindMatchingVariant(product, selection)
	}

	res.Price = s.pricer.EffectivePrice(product, res.Variant)
	res.FormattedPrice = s.pricer.FormatPrice(res.Price)
	res.Stock = s.pricer.EffectiveStock(product, res.Variant)

	matched := !product.HasVariants() || res.Variant != nil
	res.CanAdd = res.Complete && matched && s.pricer.IsOrderable(product, res.Variant)
	return res, nil
}

func (s *catalogService) Source(ctx context.Context, memberID string, ids []uuid.UUID) (cart.ProductMap, error) {
	products, err := s.products.FindByIDs(ctx, memberID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	source := make(cart.ProductMap, len(products))
	for _, p := range products {
		source[p.ID] = p
	}
	return source, nil
}

func (s *catalogService) published(ctx context.Context, memberID string, id uuid.UUID) (*domain.Product, error) {
	product, err := s.products.FindByID(ctx, memberID, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, catalog.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	if product.Status != domain.ProductStatusPublished {
		return nil, catalog.ErrProductNotFound
	}
	return product, nil
}

func (s *catalogService) view(p *domain.Product) ProductView {
	price := s.pricer.EffectivePrice(p, nil)
	return ProductView{
		Product:        *p,
		EffectivePrice: price,
		FormattedPrice: s.pricer.FormatPrice(price),
		EffectiveStock: s.pricer.EffectiveStock(p, nil),
		Orderable:      s.pricer.IsOrderable(p, nil),
		HasVariants:    p.HasVariants(),
	}
}
