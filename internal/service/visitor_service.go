package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"community-portal/internal/domain"
	"community-portal/internal/repository"
	"community-portal/internal/telemetry"
	"community-portal/internal/visitor"

	"go.uber.org/zap"
)

// VisitorStatus is the effective gate state of a visitor for one member
type VisitorStatus struct {
	State    visitor.State       `json:"state"`
	MemberID string              `json:"member_id"`
	Visitor  *domain.VisitorInfo `json:"visitor,omitempty"`
}

// ContactDirectory lists a member's contacts
type ContactDirectory interface {
	ListContacts(ctx context.Context, memberID string) ([]domain.Contact, error)
}

// VisitorService runs the visitor gate of a member portal. The gate is a
// convenience check, the member API still authorizes every call.
type VisitorService interface {
	Verify(ctx context.Context, sessionID, memberID, email, phone string) (*VisitorStatus, error)
	Status(ctx context.Context, sessionID, memberID string) (*VisitorStatus, error)
	Logout(ctx context.Context, sessionID, memberID string) error
	// Authorized returns the verified visitor, or ErrVisitorRequired
	Authorized(ctx context.Context, sessionID, memberID string) (*domain.VisitorInfo, error)
}

type visitorService struct {
	sessions repository.SessionRepository
	contacts ContactDirectory
	loc      *time.Location
	now      func() time.Time
	metrics  *telemetry.Metrics
	logger   *zap.Logger
}

// NewVisitorService creates a new instance of VisitorService. Sessions stay
// valid until the end of the calendar day in loc.
func NewVisitorService(
	sessions repository.SessionRepository,
	contacts ContactDirectory,
	loc *time.Location,
	metrics *telemetry.Metrics,
	logger *zap.Logger,
) VisitorService {
	if loc == nil {
		loc = time.UTC
	}
	return &visitorService{
		sessions: sessions,
		contacts: contacts,
		loc:      loc,
		now:      time.Now,
		metrics:  metrics,
		logger:   logger,
	}
}

// Verify moves the visitor to pending verification, looks the pair up in
// the member's contacts and authorizes on a match of both email and phone.
// On a failed lookup the previous session is restored.
func (s *visitorService) Verify(ctx context.Context, sessionID, memberID, email, phone string) (*VisitorStatus, error) {
	var previous *domain.VisitorSession
	err := s.sessions.Update(ctx, sessionID, memberID, func(current *domain.VisitorSession) (*domain.VisitorSession, error) {
		previous = current
		if _, err := visitor.Transition(visitor.Resolve(current, memberID, s.now(), s.loc), visitor.EventSubmit); err != nil {
			return nil, err
		}
		return visitor.Pending(memberID, s.now()), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start verification: %w", err)
	}

	contacts, err := s.contacts.ListContacts(ctx, memberID)
	if err != nil {
		s.metrics.VisitorVerified(ctx, "error")
		s.restore(ctx, sessionID, memberID, previous)
		return nil, err
	}

	contact, ok := visitor.MatchContact(contacts, email, phone)
	if !ok {
		if _, err := visitor.Transition(visitor.StatePendingVerification, visitor.EventNoMatch); err != nil {
			return nil, err
		}
		s.metrics.VisitorVerified(ctx, "no_match")
		if err := s.sessions.Delete(ctx, sessionID, memberID); err != nil {
			return nil, err
		}
		return nil, visitor.ErrNotVerified
	}

	if _, err := visitor.Transition(visitor.StatePendingVerification, visitor.EventMatch); err != nil {
		return nil, err
	}
	session := visitor.Authorize(memberID, contact, s.now())
	err = s.sessions.Update(ctx, sessionID, memberID, func(*domain.VisitorSession) (*domain.VisitorSession, error) {
		return session, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store visitor session: %w", err)
	}

	s.metrics.VisitorVerified(ctx, "match")
	s.logger.Info("Visitor verified",
		zap.String("member_id", memberID),
		zap.Int64("contact_id", contact.ID),
	)
	return &VisitorStatus{State: visitor.StateAuthorized, MemberID: memberID, Visitor: session.VisitorInfo}, nil
}

// Status resolves the stored session. An authorization from an earlier day
// expires and is removed.
func (s *visitorService) Status(ctx context.Context, sessionID, memberID string) (*VisitorStatus, error) {
	session, err := s.sessions.Get(ctx, sessionID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to load visitor session: %w", err)
	}

	state := visitor.Resolve(session, memberID, s.now(), s.loc)
	status := &VisitorStatus{State: state, MemberID: memberID}

	switch {
	case state == visitor.StateAuthorized:
		status.Visitor = session.VisitorInfo
	case session != nil && session.IsAuthorized:
		if _, err := visitor.Transition(visitor.StateAuthorized, visitor.EventExpire); err != nil {
			return nil, err
		}
		if err := s.sessions.Delete(ctx, sessionID, memberID); err != nil {
			s.logger.Warn("Failed to drop expired visitor session", zap.Error(err))
		}
	}
	return status, nil
}

func (s *visitorService) Logout(ctx context.Context, sessionID, memberID string) error {
	if err := s.sessions.Delete(ctx, sessionID, memberID); err != nil {
		return fmt.Errorf("failed to delete visitor session: %w", err)
	}
	return nil
}

func (s *visitorService) Authorized(ctx context.Context, sessionID, memberID string) (*domain.VisitorInfo, error) {
	status, err := s.Status(ctx, sessionID, memberID)
	if err != nil {
		return nil, err
	}
	if status.State != visitor.StateAuthorized || status.Visitor == nil {
		return nil, ErrVisitorRequired
	}
	return status.Visitor, nil
}

func (s *visitorService) restore(ctx context.Context, sessionID, memberID string, previous *domain.VisitorSession) {
	err := s.sessions.Update(ctx, sessionID, memberID, func(*domain.VisitorSession) (*domain.VisitorSession, error) {
		return previous, nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Warn("Failed to restore visitor session", zap.Error(err))
	}
}
