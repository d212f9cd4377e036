package visitor

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"community-portal/internal/domain"
)

// State of a visitor in the portal gate
type State string

const (
	StateUnauthenticated     State = "unauthenticated"
	StatePendingVerification State = "pending_verification"
	StateAuthorized          State = "authorized"
)

// Event drives a gate transition
type Event string

const (
	EventSubmit  Event = "submit"
	EventMatch   Event = "match"
	EventNoMatch Event = "no_match"
	EventLogout  Event = "logout"
	EventExpire  Event = "expire"
)

var (
	ErrInvalidTransition = errors.New("invalid visitor state transition")
	ErrNotVerified       = errors.New("no contact matches the submitted email and phone")
)

var transitions = map[State]map[Event]State{
	StateUnauthenticated: {
		EventSubmit: StatePendingVerification,
	},
	StatePendingVerification: {
		EventMatch:   StateAuthorized,
		EventNoMatch: StateUnauthenticated,
		EventSubmit:  StatePendingVerification,
	},
	StateAuthorized: {
		EventLogout: StateUnauthenticated,
		EventExpire: StateUnauthenticated,
		EventSubmit: StatePendingVerification,
	},
}

// Transition applies ev to from. The machine has no terminal state.
func Transition(from State, ev Event) (State, error) {
	to, ok := transitions[from][ev]
	if !ok {
		return from, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, ev, from)
	}
	return to, nil
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// MatchContact finds the contact whose email AND phone both equal the
// submitted pair. A contact matching only one field does not count.
func MatchContact(contacts []domain.Contact, email, phone string) (*domain.Contact, bool) {
	email = NormalizeEmail(email)
	phone = NormalizePhone(phone)
	if email == "" || phone == "" {
		return nil, false
	}

	for i := range contacts {
		c := &contacts[i]
		if NormalizeEmail(c.Email) == email && NormalizePhone(c.Phone) == phone {
			return c, true
		}
	}
	return nil, false
}

// SameDay reports whether a and b fall on the same calendar day in loc
func SameDay(a, b time.Time, loc *time.Location) bool {
	ya, ma, da := a.In(loc).Date()
	yb, mb, db := b.In(loc).Date()
	return ya == yb && ma == mb && da == db
}

// Resolve returns the effective state of a cached session for memberID at
// now. Sessions of another member or another calendar day are treated as
// unauthenticated.
func Resolve(session *domain.VisitorSession, memberID string, now time.Time, loc *time.Location) State {
	if session == nil || session.MemberID != memberID {
		return StateUnauthenticated
	}
	if State(session.State) == StatePendingVerification {
		return StatePendingVerification
	}
	if !session.IsAuthorized || !SameDay(session.Timestamp, now, loc) {
		return StateUnauthenticated
	}
	return StateAuthorized
}

// Authorize builds the session record of a verified contact
func Authorize(memberID string, contact *domain.Contact, now time.Time) *domain.VisitorSession {
	return &domain.VisitorSession{
		IsAuthorized: true,
		State:        string(StateAuthorized),
		Timestamp:    now,
		MemberID:     memberID,
		VisitorInfo: &domain.VisitorInfo{
			ContactID: contact.ID,
			Name:      contact.Name,
			Email:     contact.Email,
			Phone:     contact.Phone,
		},
	}
}

// Pending builds the session record of a verification in flight
func Pending(memberID string, now time.Time) *domain.VisitorSession {
	return &domain.VisitorSession{
		State:     string(StatePendingVerification),
		Timestamp: now,
		MemberID:  memberID,
	}
}
