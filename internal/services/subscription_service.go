// Package services – SubscriptionService
//
// This file implements the subscription lifecycle: validity lookups with
// computed expiry, creation/renewal with overwrite-by-username semantics, and
// termination gated on successful account deletion in the external directory.
// Termination deletes remotely first and marks locally second, so a failed
// remote call never leaves a record falsely marked deleted. The reverse crash
// window (remote delete succeeded, local write lost) is an accepted gap.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/jellyfin"
	"github.com/zerodown/zrs-backend/internal/store"
)

// Directory is the external account directory contract used by subscription
// operations.
type Directory interface {
	// FindUserByName resolves a username to an account, case-insensitively.
	FindUserByName(ctx context.Context, name string) (*jellyfin.User, error)
	// DeleteUser removes an account. Destructive; success only on 204.
	DeleteUser(ctx context.Context, id string) error
}

// defaultRemovalReason is recorded when a termination carries no reason.
const defaultRemovalReason = "no reason given"

// SubscriptionService manages subscription records against the flat-record
// store and keeps them consistent with the external directory.
type SubscriptionService struct {
	// Store persists subscription records.
	Store *store.SubscriptionStore
	// Directory is the external account system of record.
	Directory Directory

	// Now supplies the clock; defaults to time.Now when nil.
	Now func() time.Time
}

// now returns the current UTC time using the injected clock when present.
func (s *SubscriptionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Lookup returns the account's subscription when it is currently valid.
// Validity is computed: the status must not be terminal AND the end date must
// be in the future. Everything else — no record, expired window, deleted or
// revoked status — uniformly yields ErrNoSubscription.
func (s *SubscriptionService) Lookup(ctx context.Context, accountID string) (*domain.Subscription, error) {
	rec, err := s.Store.FindByAccountID(ctx, accountID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNoSubscription
	}
	if err != nil {
		return nil, err
	}
	if !rec.ValidAt(s.now()) {
		return nil, ErrNoSubscription
	}
	return rec, nil
}

// CreateOrRenew saves draft as the account's subscription. The end date is
// computed with calendar-month arithmetic from the start date; a zero start
// date means "now". Renewal replaces the prior record outright — the new
// window starts fresh rather than extending the old end date.
func (s *SubscriptionService) CreateOrRenew(ctx context.Context, draft domain.Subscription) (*domain.Subscription, error) {
	if draft.DurationMonths < 1 {
		return nil, ErrInvalidDuration
	}
	if strings.TrimSpace(draft.PaymentMethod) == "" {
		return nil, ErrEmptyPayment
	}

	if draft.StartDate.IsZero() {
		draft.StartDate = s.now()
	}
	draft.EndDate = draft.StartDate.AddDate(0, draft.DurationMonths, 0)
	draft.Status = domain.SubActive
	draft.RemovalReason = ""

	if err := s.Store.Upsert(ctx, draft); err != nil {
		return nil, err
	}
	return &draft, nil
}

// Terminate ends the subscription identified by accountID: the backing
// account is deleted from the directory first, and only after that succeeds
// is the local record marked deleted with the end date set to now and the
// reason recorded (a placeholder is used when the reason is blank). A failed
// remote deletion aborts without touching the store.
func (s *SubscriptionService) Terminate(ctx context.Context, accountID, reason string) (*domain.Subscription, error) {
	if _, err := s.Store.FindByAccountID(ctx, accountID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if err := s.Directory.DeleteUser(ctx, accountID); err != nil {
		return nil, fmt.Errorf("directory deletion failed, subscription unchanged: %w", err)
	}

	if strings.TrimSpace(reason) == "" {
		reason = defaultRemovalReason
	}
	endedAt := s.now()
	rec, err := s.Store.Update(ctx, accountID, func(sub *domain.Subscription) error {
		sub.Status = domain.SubDeleted
		sub.EndDate = endedAt
		sub.RemovalReason = reason
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		// Record vanished between the check and the write; the remote
		// account is already gone, so surface the inconsistency.
		return nil, ErrSubscriptionNotFound
	}
	return rec, err
}
