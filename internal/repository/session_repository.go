package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"community-portal/internal/domain"

	"github.com/redis/go-redis/v9"
)

// SessionRepository stores visitor sessions, one per browser session and member
type SessionRepository interface {
	Get(ctx context.Context, sessionID, memberID string) (*domain.VisitorSession, error)
	Update(ctx context.Context, sessionID, memberID string, fn func(*domain.VisitorSession) (*domain.VisitorSession, error)) error
	Delete(ctx context.Context, sessionID, memberID string) error
}

type sessionRepository struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionRepository creates a Redis backed SessionRepository
func NewSessionRepository(client *redis.Client, ttl time.Duration) SessionRepository {
	return &sessionRepository{client: client, ttl: ttl}
}

// sessionKey mirrors the browser storage key visitor_auth_{memberId}
func sessionKey(sessionID, memberID string) string {
	return fmt.Sprintf("session:%s:visitor_auth_%s", sessionID, memberID)
}

// Get returns the stored session, or nil when none exists
func (r *sessionRepository) Get(ctx context.Context, sessionID, memberID string) (*domain.VisitorSession, error) {
	data, err := getKey(ctx, r.client, sessionKey(sessionID, memberID))
	if err != nil || data == nil {
		return nil, err
	}
	return decodeSession(data)
}

// Update applies fn to the stored session atomically. fn receives nil when
// no session exists; returning nil deletes it.
func (r *sessionRepository) Update(ctx context.Context, sessionID, memberID string, fn func(*domain.VisitorSession) (*domain.VisitorSession, error)) error {
	return updateKey(ctx, r.client, sessionKey(sessionID, memberID), r.ttl, func(current []byte) ([]byte, error) {
		var session *domain.VisitorSession
		if current != nil {
			decoded, err := decodeSession(current)
			if err != nil {
				return nil, err
			}
			session = decoded
		}

		next, err := fn(session)
		if err != nil || next == nil {
			return nil, err
		}
		return json.Marshal(next)
	})
}

// Delete removes the session
func (r *sessionRepository) Delete(ctx context.Context, sessionID, memberID string) error {
	if err := r.client.Del(ctx, sessionKey(sessionID, memberID)).Err(); err != nil {
		return fmt.Errorf("failed to delete visitor session: %w", err)
	}
	return nil
}

func decodeSession(data []byte) (*domain.VisitorSession, error) {
	session := &domain.VisitorSession{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to decode visitor session: %w", err)
	}
	return session, nil
}
