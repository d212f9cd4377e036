package domain

import "time"

// Contact is a member contact record returned by the upstream member API
type Contact struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// VisitorInfo is the identity attached to an authorized visitor session
type VisitorInfo struct {
	ContactID int64  `json:"contact_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// VisitorSession is the cached identity claim for one member portal.
// It is a convenience gate, the upstream API still authorizes every call.
type VisitorSession struct {
	IsAuthorized bool         `json:"isAuthorized"`
	State        string       `json:"state"`
	Timestamp    time.Time    `json:"timestamp"`
	MemberID     string       `json:"memberId"`
	VisitorInfo  *VisitorInfo `json:"visitorInfo,omitempty"`
}
