package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRequestInFlight = errors.New("a request with this idempotency key is still being processed")

// StoredResponse is the recorded outcome of a completed mutating request
type StoredResponse struct {
	StatusCode  int    `json:"status_code"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type idempotencyRecord struct {
	Done     bool            `json:"done"`
	Response *StoredResponse `json:"response,omitempty"`
}

// IdempotencyRepository de-duplicates mutating requests by key
type IdempotencyRepository interface {
	// Begin claims key. It returns the stored response when the key already
	// completed, and ErrRequestInFlight while another request holds it.
	Begin(ctx context.Context, scope, key string) (*StoredResponse, error)
	Complete(ctx context.Context, scope, key string, response StoredResponse) error
	Release(ctx context.Context, scope, key string) error
}

type idempotencyRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyRepository creates a Redis backed IdempotencyRepository
func NewIdempotencyRepository(client *redis.Client, ttl time.Duration) IdempotencyRepository {
	return &idempotencyRepository{client: client, ttl: ttl}
}

func idempotencyKey(scope, key string) string {
	return fmt.Sprintf("idem:%s:%s", scope, key)
}

func (r *idempotencyRepository) Begin(ctx context.Context, scope, key string) (*StoredResponse, error) {
	pending, err := json.Marshal(idempotencyRecord{})
	if err != nil {
		return nil, err
	}

	k := idempotencyKey(scope, key)
	claimed, err := r.client.SetNX(ctx, k, pending, r.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	if claimed {
		return nil, nil
	}

	data, err := getKey(ctx, r.client, k)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return r.Begin(ctx, scope, key)
	}

	var record idempotencyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	if !record.Done || record.Response == nil {
		return nil, ErrRequestInFlight
	}
	return record.Response, nil
}

func (r *idempotencyRepository) Complete(ctx context.Context, scope, key string, response StoredResponse) error {
	data, err := json.Marshal(idempotencyRecord{Done: true, Response: &response})
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, idempotencyKey(scope, key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotent response: %w", err)
	}
	return nil
}

// Release frees key so the request can be retried, used when it failed before reaching upstream
func (r *idempotencyRepository) Release(ctx context.Context, scope, key string) error {
	if err := r.client.Del(ctx, idempotencyKey(scope, key)).Err(); err != nil {
		return fmt.Errorf("failed to release idempotency key: %w", err)
	}
	return nil
}
