package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"community-portal/internal/catalog"
	"community-portal/internal/checkout"
	"community-portal/internal/domain"
	"community-portal/internal/messaging"
	"community-portal/internal/repository"
	"community-portal/internal/shipping"
	"community-portal/internal/telemetry"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Quote is the shipping method and totals for the current cart
type Quote struct {
	Method         shipping.Method `json:"method"`
	Totals         checkout.Totals `json:"totals"`
	FormattedTotal string          `json:"formatted_total"`
}

// PlacedOrder is the result of a checkout submission. Replayed is set when
// the idempotency key matched an earlier submission.
type PlacedOrder struct {
	Order    *domain.Order
	Replayed bool
}

// CheckoutService turns visitor carts into stored orders
type CheckoutService interface {
	Quote(ctx context.Context, sessionID, memberID, country, province, city string) (*Quote, error)
	PlaceOrder(ctx context.Context, sessionID, memberID, idempotencyKey string, req checkout.Request) (*PlacedOrder, error)
	GetOrder(ctx context.Context, memberID string, id uuid.UUID) (*domain.Order, error)
}

type checkoutService struct {
	composer  *checkout.Composer
	carts     CartService
	orders    repository.OrderRepository
	publisher messaging.Publisher
	pricer    catalog.Pricer
	metrics   *telemetry.Metrics
	logger    *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	composer *checkout.Composer,
	carts CartService,
	orders repository.OrderRepository,
	publisher messaging.Publisher,
	pricer catalog.Pricer,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		composer:  composer,
		carts:     carts,
		orders:    orders,
		publisher: publisher,
		pricer:    pricer,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *checkoutService) Quote(ctx context.Context, sessionID, memberID, country, province, city string) (*Quote, error) {
	ledger, source, err := s.carts.Snapshot(ctx, sessionID, memberID)
	if err != nil {
		return nil, err
	}

	totals, method, err := s.composer.Quote(ledger, source, country, province, city)
	if err != nil {
		return nil, err
	}
	return &Quote{
		Method:         method,
		Totals:         totals,
		FormattedTotal: s.pricer.FormatPrice(totals.Total),
	}, nil
}

// orderKey binds a client idempotency key to the browser session that sent
// it, so a key reused by another session never matches.
func orderKey(sessionID, key string) string {
	sum := sha256.Sum256([]byte(sessionID + ":" + key))
	return hex.EncodeToString(sum[:])
}

// PlaceOrder composes and stores an order from the visitor's cart. A
// repeated idempotency key from the same session returns the order stored
// the first time and leaves the cart alone.
func (s *checkoutService) PlaceOrder(ctx context.Context, sessionID, memberID, idempotencyKey string, req checkout.Request) (*PlacedOrder, error) {
	key := orderKey(sessionID, newIdempotencyKey(idempotencyKey))

	if existing, err := s.orders.FindByIdempotencyKey(ctx, memberID, key); err == nil {
		return &PlacedOrder{Order: existing, Replayed: true}, nil
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return nil, fmt.Errorf("failed to check previous submission: %w", err)
	}

	ledger, source, err := s.carts.Snapshot(ctx, sessionID, memberID)
	if err != nil {
		return nil, err
	}

	order, err := s.composer.Compose(memberID, req, ledger, source)
	if err != nil {
		return nil, err
	}
	order.IdempotencyKey = key

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			existing, findErr := s.orders.FindByIdempotencyKey(ctx, memberID, key)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load concurrent submission: %w", findErr)
			}
			return &PlacedOrder{Order: existing, Replayed: true}, nil
		}
		return nil, fmt.Errorf("failed to store order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("member_id", memberID),
		zap.String("total", order.Total.StringFixed(2)),
	)

	if err := s.carts.Clear(ctx, sessionID, memberID); err != nil {
		s.logger.Error("Failed to clear cart after checkout", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	if err := s.publisher.Publish(ctx, order.ID.String(), messaging.NewOrderPlaced(order)); err != nil {
		s.logger.Error("Failed to publish order placed event", zap.String("order_id", order.ID.String()), zap.Error(err))
	}
	s.metrics.OrderPlaced(ctx, memberID, order.Total.InexactFloat64())

	return &PlacedOrder{Order: order}, nil
}

func (s *checkoutService) GetOrder(ctx context.Context, memberID string, id uuid.UUID) (*domain.Order, error) {
	order, err := s.orders.FindByID(ctx, memberID, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}
