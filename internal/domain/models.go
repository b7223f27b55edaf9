// Package domain defines the persisted record types for media requests and
// subscriptions. Records are stored as flat JSON documents (see internal/store)
// and are schema-validated on load: a record that fails Validate never enters
// the running system.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RequestStatus enumerates the lifecycle states of a media request.
// A request is created as pending and transitions exactly once to
// accepted or rejected by an administrator action.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusAccepted RequestStatus = "accepted"
	StatusRejected RequestStatus = "rejected"
)

// Valid reports whether s is a known request status.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// MediaType enumerates the catalog media kinds a request can target.
type MediaType string

const (
	MediaMovie MediaType = "movie"
	MediaTV    MediaType = "tv"
)

// Valid reports whether m is a known media type.
func (m MediaType) Valid() bool {
	return m == MediaMovie || m == MediaTV
}

// Request represents one user's ask for a title to be added to the media
// server. At most one request exists per catalog id regardless of status;
// requests are never deleted.
//
// Fields:
//   - ID: UUIDv4 assigned at creation.
//   - RequesterID / RequesterName: identity of the submitting account.
//   - RequestDate: submission time (UTC).
//   - Status: pending | accepted | rejected.
//   - MediaType / MediaID: catalog coordinates of the requested title.
//   - MediaTitle / MediaPosterPath: denormalized display data.
//   - HandledBy / HandledAt: audit fields set on resolution; empty while pending.
type Request struct {
	ID              string        `json:"requestId"`
	RequesterID     string        `json:"requesterId"`
	RequesterName   string        `json:"requesterName"`
	RequestDate     time.Time     `json:"requestDate"`
	Status          RequestStatus `json:"status"`
	MediaType       MediaType     `json:"mediaType"`
	MediaID         int64         `json:"mediaExternalId"`
	MediaTitle      string        `json:"mediaTitle"`
	MediaPosterPath string        `json:"mediaPosterPath,omitempty"`
	HandledBy       string        `json:"handledBy,omitempty"`
	HandledAt       *time.Time    `json:"handledAt,omitempty"`
}

// Validate checks structural invariants of a persisted request record.
// Called on every record when a store document is loaded.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("request: missing requestId")
	}
	if strings.TrimSpace(r.RequesterID) == "" {
		return errors.New("request: missing requesterId")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("request %s: unknown status %q", r.ID, r.Status)
	}
	if !r.MediaType.Valid() {
		return fmt.Errorf("request %s: unknown media type %q", r.ID, r.MediaType)
	}
	if r.MediaID <= 0 {
		return fmt.Errorf("request %s: invalid mediaExternalId %d", r.ID, r.MediaID)
	}
	if r.RequestDate.IsZero() {
		return fmt.Errorf("request %s: missing requestDate", r.ID)
	}
	return nil
}

// Resolved reports whether the request has left the pending state.
func (r *Request) Resolved() bool {
	return r.Status != StatusPending
}

// SubscriptionStatus enumerates the lifecycle states of a subscription.
// Deleted and revoked are terminal.
type SubscriptionStatus string

const (
	SubActive  SubscriptionStatus = "active"
	SubDeleted SubscriptionStatus = "deleted"
	SubRevoked SubscriptionStatus = "revoked"
)

// Valid reports whether s is a known subscription status.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case SubActive, SubDeleted, SubRevoked:
		return true
	}
	return false
}

// Terminal reports whether s permanently ends a subscription.
func (s SubscriptionStatus) Terminal() bool {
	return s == SubDeleted || s == SubRevoked
}

// Subscription represents a user's paid access window to the media server.
// The uniqueness key is AccountUsername (case-insensitive): saving a
// subscription for a username that already has a record overwrites it in
// place, with no history kept. Records are never physically removed; a
// confirmed removal marks the record deleted instead.
type Subscription struct {
	AccountID       string             `json:"accountId"`
	AccountUsername string             `json:"accountUsername"`
	DurationMonths  int                `json:"durationMonths"`
	PaymentMethod   string             `json:"paymentMethod"`
	StartDate       time.Time          `json:"startDate"`
	EndDate         time.Time          `json:"endDate"`
	Status          SubscriptionStatus `json:"status"`
	RemovalReason   string             `json:"removalReason,omitempty"`
}

// Validate checks structural invariants of a persisted subscription record.
func (s *Subscription) Validate() error {
	if strings.TrimSpace(s.AccountID) == "" {
		return errors.New("subscription: missing accountId")
	}
	if strings.TrimSpace(s.AccountUsername) == "" {
		return fmt.Errorf("subscription %s: missing accountUsername", s.AccountID)
	}
	if !s.Status.Valid() {
		return fmt.Errorf("subscription %s: unknown status %q", s.AccountID, s.Status)
	}
	if s.DurationMonths < 1 {
		return fmt.Errorf("subscription %s: invalid durationMonths %d", s.AccountID, s.DurationMonths)
	}
	if s.StartDate.IsZero() || s.EndDate.IsZero() {
		return fmt.Errorf("subscription %s: missing start or end date", s.AccountID)
	}
	return nil
}

// ValidAt reports whether the subscription grants access at the given
// instant. Expiry is computed, not merely stored: a record still marked
// active but with a past EndDate is not valid.
func (s *Subscription) ValidAt(now time.Time) bool {
	if s.Status.Terminal() {
		return false
	}
	return s.EndDate.After(now)
}
