package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"community-portal/internal/cart"

	"github.com/redis/go-redis/v9"
)

// CartRepository stores visitor carts per browser session and member
type CartRepository interface {
	Load(ctx context.Context, sessionID, memberID string) (*cart.Ledger, error)
	Update(ctx context.Context, sessionID, memberID string, fn func(*cart.Ledger) error) (*cart.Ledger, error)
	Delete(ctx context.Context, sessionID, memberID string) error
}

type cartRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartRepository creates a Redis backed CartRepository. Carts expire ttl after their last change.
func NewCartRepository(client *redis.Client, ttl time.Duration) CartRepository {
	return &cartRepository{client: client, ttl: ttl}
}

func cartKey(sessionID, memberID string) string {
	return fmt.Sprintf("cart:%s:%s", sessionID, memberID)
}

// Load returns the cart, or an empty one when none exists
func (r *cartRepository) Load(ctx context.Context, sessionID, memberID string) (*cart.Ledger, error) {
	data, err := getKey(ctx, r.client, cartKey(sessionID, memberID))
	if err != nil {
		return nil, err
	}
	return decodeLedger(data)
}

// Update applies fn to the stored cart atomically. An emptied cart is deleted.
func (r *cartRepository) Update(ctx context.Context, sessionID, memberID string, fn func(*cart.Ledger) error) (*cart.Ledger, error) {
	var result *cart.Ledger
	err := updateKey(ctx, r.client, cartKey(sessionID, memberID), r.ttl, func(current []byte) ([]byte, error) {
		ledger, err := decodeLedger(current)
		if err != nil {
			return nil, err
		}
		if err := fn(ledger); err != nil {
			return nil, err
		}
		result = ledger
		if ledger.IsEmpty() && len(ledger.Selections) == 0 {
			return nil, nil
		}
		return json.Marshal(ledger)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the cart
func (r *cartRepository) Delete(ctx context.Context, sessionID, memberID string) error {
	if err := r.client.Del(ctx, cartKey(sessionID, memberID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func decodeLedger(data []byte) (*cart.Ledger, error) {
	ledger := &cart.Ledger{}
	if len(data) == 0 {
		return ledger, nil
	}
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("failed to decode cart: %w", err)
	}
	return ledger, nil
}
