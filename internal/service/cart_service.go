package service

import (
	"context"
	"fmt"

	"community-portal/internal/cart"
	"community-portal/internal/catalog"
	"community-portal/internal/domain"
	"community-portal/internal/repository"
	"community-portal/internal/telemetry"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartLineView is a cart line priced with live catalog data
type CartLineView struct {
	ProductID          uuid.UUID         `json:"product_id"`
	VariantID          *uuid.UUID        `json:"variant_id,omitempty"`
	Name               string            `json:"name"`
	ImageURL           string            `json:"image_url,omitempty"`
	Attributes         map[string]string `json:"attributes,omitempty"`
	Quantity           int               `json:"quantity"`
	UnitPrice          decimal.Decimal   `json:"unit_price"`
	LineTotal          decimal.Decimal   `json:"line_total"`
	FormattedUnitPrice string            `json:"formatted_unit_price"`
	FormattedLineTotal string            `json:"formatted_line_total"`
	Available          bool              `json:"available"`
}

// CartView is the priced content of a cart
type CartView struct {
	Lines             []CartLineView  `json:"lines"`
	ItemCount         int             `json:"item_count"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	FormattedSubtotal string          `json:"formatted_subtotal"`
}

// CartService manages the visitor cart of a member storefront. Carts are
// keyed by browser session and member.
type CartService interface {
	View(ctx context.Context, sessionID, memberID string) (*CartView, error)
	Add(ctx context.Context, sessionID, memberID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*CartView, error)
	Update(ctx context.Context, sessionID, memberID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*CartView, error)
	Remove(ctx context.Context, sessionID, memberID string, productID uuid.UUID, variantID *uuid.UUID) (*CartView, error)
	Clear(ctx context.Context, sessionID, memberID string) error
	// Select remembers a partial attribute selection until the product is added
	Select(ctx context.Context, sessionID, memberID string, productID uuid.UUID, selection catalog.Selection) error
	// Snapshot returns the stored ledger with the live products it references
	Snapshot(ctx context.Context, sessionID, memberID string) (*cart.Ledger, cart.ProductMap, error)
}

type cartService struct {
	carts   repository.CartRepository
	catalog CatalogService
	pricer  catalog.Pricer
	metrics *telemetry.Metrics
}

// NewCartService creates a new instance of CartService
func NewCartService(carts repository.CartRepository, catalogService CatalogService, pricer catalog.Pricer, metrics *telemetry.Metrics) CartService {
	return &cartService{
		carts:   carts,
		catalog: catalogService,
		pricer:  pricer,
		metrics: metrics,
	}
}

func (s *cartService) View(ctx context.Context, sessionID, memberID string) (*CartView, error) {
	ledger, source, err := s.Snapshot(ctx, sessionID, memberID)
	if err != nil {
		return nil, err
	}
	return s.view(ledger, source), nil
}

// Add validates the selection against the live product and merges it into
// the cart. Products with active variants need a concrete variant.
func (s *cartService) Add(ctx context.Context, sessionID, memberID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, cart.ErrInvalidQuantity
	}

	source, err := s.catalog.Source(ctx, memberID, []uuid.UUID{productID})
	if err != nil {
		return nil, err
	}
	product, variant, err := s.selection(source, productID, variantID)
	if err != nil {
		return nil, err
	}
	if !s.pricer.IsOrderable(product, variant) {
		return nil, catalog.ErrProductUnavailable
	}

	_, err = s.carts.Update(ctx, sessionID, memberID, func(l *cart.Ledger) error {
		existing, _ := l.Line(productID, variantID)
		if !catalog.CanFulfil(product, variant, existing.Quantity+quantity) {
			return catalog.ErrInsufficientStock
		}
		return l.Add(productID, variantID, quantity)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CartMutated(ctx, "add")
	return s.View(ctx, sessionID, memberID)
}

// Update sets the quantity of a line. Zero or less removes it.
func (s *cartService) Update(ctx context.Context, sessionID, memberID string, productID uuid.UUID, variantID *uuid.UUID, quantity int) (*CartView, error) {
	var (
		product *domain.Product
		variant *domain.Variant
	)
	if quantity > 0 {
		source, err := s.catalog.Source(ctx, memberID, []uuid.UUID{productID})
		if err != nil {
			return nil, err
		}
		if product, variant, err = s.selection(source, productID, variantID); err != nil {
			return nil, err
		}
		if !catalog.CanFulfil(product, variant, quantity) {
			return nil, catalog.ErrInsufficientStock
		}
	}

	_, err := s.carts.Update(ctx, sessionID, memberID, func(l *cart.Ledger) error {
		if !l.SetQuantity(productID, quantity, variantID) {
			return ErrCartLineNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CartMutated(ctx, "update")
	return s.View(ctx, sessionID, memberID)
}

func (s *cartService) Remove(ctx context.Context, sessionID, memberID string, productID uuid.UUID, variantID *uuid.UUID) (*CartView, error) {
	_, err := s.carts.Update(ctx, sessionID, memberID, func(l *cart.Ledger) error {
		l.Remove(productID, variantID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.CartMutated(ctx, "remove")
	return s.View(ctx, sessionID, memberID)
}

func (s *cartService) Clear(ctx context.Context, sessionID, memberID string) error {
	if err := s.carts.Delete(ctx, sessionID, memberID); err != nil {
		return err
	}
	s.metrics.CartMutated(ctx, "clear")
	return nil
}

func (s *cartService) Select(ctx context.Context, sessionID, memberID string, productID uuid.UUID, selection catalog.Selection) error {
	_, err := s.carts.Update(ctx, sessionID, memberID, func(l *cart.Ledger) error {
		l.Select(productID, selection)
		return nil
	})
	return err
}

func (s *cartService) Snapshot(ctx context.Context, sessionID, memberID string) (*cart.Ledger, cart.ProductMap, error) {
	ledger, err := s.carts.Load(ctx, sessionID, memberID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if ledger.IsEmpty() {
		return ledger, cart.ProductMap{}, nil
	}

	source, err := s.catalog.Source(ctx, memberID, ledger.ProductIDs())
	if err != nil {
		return nil, nil, err
	}
	return ledger, source, nil
}

// selection resolves the product and variant a cart line refers to
func (s *cartService) selection(source cart.ProductMap, productID uuid.UUID, variantID *uuid.UUID) (*domain.Product, *domain.Variant, error) {
	product, ok := source.Product(productID)
	if !ok || product.Status != domain.ProductStatusPublished {
		return nil, nil, catalog.ErrProductNotFound
	}

	if variantID == nil {
		if product.HasVariants() {
			return nil, nil, catalog.ErrVariantRequired
		}
		return product, nil, nil
	}

	variant := product.Variant(*variantID)
	if variant == nil {
		return nil, nil, catalog.ErrVariantNotFound
	}
	return product, variant, nil
}

func (s *cartService) view(ledger *cart.Ledger, source cart.ProductMap) *CartView {
	view := &CartView{
		Lines:     make([]CartLineView, 0, len(ledger.Lines)),
		ItemCount: ledger.ItemCount(),
		Subtotal:  ledger.Total(source),
	}
	view.FormattedSubtotal = s.pricer.FormatPrice(view.Subtotal)

	for _, line := range ledger.Lines {
		lv := CartLineView{
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
		}

		if product, ok := source.Product(line.ProductID); ok {
			var variant *domain.Variant
			if line.VariantID != nil {
				variant = product.Variant(*line.VariantID)
			}
			lv.Name = product.Name
			lv.ImageURL = product.ImageURL
			if variant != nil {
				lv.Attributes = variant.Attributes
			}
			lv.UnitPrice = s.pricer.EffectivePrice(product, variant)
			lv.Available = catalog.CanFulfil(product, variant, line.Quantity)
		}

		lv.LineTotal = lv.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		lv.FormattedUnitPrice = s.pricer.FormatPrice(lv.UnitPrice)
		lv.FormattedLineTotal = s.pricer.FormatPrice(lv.LineTotal)
		view.Lines = append(view.Lines, lv)
	}
	return view
}
