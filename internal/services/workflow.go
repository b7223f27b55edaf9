// Package services – SubscriptionWorkflow
//
// This file implements the two-phase stage/confirm protocol on top of
// SubscriptionService: an administrator stages a proposed mutation, reviews
// the rendered summary, and only an explicit confirm applies it. Staged state
// lives in the TTL staging store keyed by external account id; a confirm that
// finds no entry (expired, cancelled, or lost to a restart) fails with
// ErrConfirmationExpired and the flow restarts from the top.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/jellyfin"
	"github.com/zerodown/zrs-backend/internal/staging"
	"github.com/zerodown/zrs-backend/internal/store"
)

// StagedSubscription is the reviewable outcome of staging a create/renew.
type StagedSubscription struct {
	// Draft is the subscription exactly as it would be saved on confirm.
	Draft domain.Subscription
	// Overwrites reports whether confirming replaces an existing record.
	Overwrites bool
}

// StagedRemoval is the reviewable outcome of staging a removal.
type StagedRemoval struct {
	AccountID       string
	AccountUsername string
	Reason          string
	// Current is the record the removal would terminate.
	Current domain.Subscription
}

// SubscriptionInfo combines the directory account with the locally stored
// subscription record, when one exists.
type SubscriptionInfo struct {
	Account      *jellyfin.User
	Subscription *domain.Subscription
	// Valid reports whether the subscription is currently in force.
	Valid bool
}

// SubscriptionWorkflow drives staged subscription mutations. All three stage
// operations resolve the username against the directory up front so typos
// fail fast, before anything is staged.
type SubscriptionWorkflow struct {
	// Staging holds proposals between stage and confirm.
	Staging *staging.Store
	// Subs applies confirmed mutations.
	Subs *SubscriptionService
	// Directory resolves usernames to external accounts.
	Directory Directory
}

// StageSubscription validates and stages a create/renew for username. The
// draft's dates and end-date arithmetic are computed now so the reviewer sees
// the exact record a confirm would save.
func (w *SubscriptionWorkflow) StageSubscription(ctx context.Context, username string, months int, payment string) (*StagedSubscription, error) {
	if months < 1 {
		return nil, ErrInvalidDuration
	}
	if strings.TrimSpace(payment) == "" {
		return nil, ErrEmptyPayment
	}

	account, err := w.Directory.FindUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, jellyfin.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	start := w.Subs.now()
	draft := domain.Subscription{
		AccountID:       account.ID,
		AccountUsername: account.Name,
		DurationMonths:  months,
		PaymentMethod:   strings.TrimSpace(payment),
		StartDate:       start,
		EndDate:         start.AddDate(0, months, 0),
		Status:          domain.SubActive,
	}

	overwrites := false
	if _, err := w.Subs.Store.FindByUsername(ctx, account.Name); err == nil {
		overwrites = true
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	w.Staging.PutSubscription(account.ID, draft)
	return &StagedSubscription{Draft: draft, Overwrites: overwrites}, nil
}

// StageRemoval validates and stages a termination for username. Both the
// directory account and a local subscription record must exist, since a
// confirm deletes the former and marks the latter.
func (w *SubscriptionWorkflow) StageRemoval(ctx context.Context, username, reason string) (*StagedRemoval, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}

	account, err := w.Directory.FindUserByName(ctx, username)
	if err != nil {
		if errors.Is(err, jellyfin.ErrUserNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	current, err := w.Subs.Store.FindByAccountID(ctx, account.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	w.Staging.PutRemoval(account.ID, reason)
	return &StagedRemoval{
		AccountID:       account.ID,
		AccountUsername: account.Name,
		Reason:          reason,
		Current:         *current,
	}, nil
}

// ConfirmSubscription applies the staged draft for accountID. The staged
// entry is consumed whether or not the save succeeds: a failed confirm
// requires restaging rather than blind retry, because the failure may have
// been caused by the draft itself.
func (w *SubscriptionWorkflow) ConfirmSubscription(ctx context.Context, accountID string) (*domain.Subscription, error) {
	draft, ok := w.Staging.Subscription(accountID)
	if !ok {
		return nil, ErrConfirmationExpired
	}
	w.Staging.DeleteSubscription(accountID)

	saved, err := w.Subs.CreateOrRenew(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("confirming subscription: %w", err)
	}
	return saved, nil
}

// ConfirmRemoval applies the staged removal for accountID. Unlike
// ConfirmSubscription the entry is only consumed on success, so a transient
// directory failure leaves the confirm retryable within the TTL.
func (w *SubscriptionWorkflow) ConfirmRemoval(ctx context.Context, accountID string) (*domain.Subscription, error) {
	reason, ok := w.Staging.Removal(accountID)
	if !ok {
		return nil, ErrConfirmationExpired
	}

	terminated, err := w.Subs.Terminate(ctx, accountID, reason)
	if err != nil {
		return nil, err
	}
	w.Staging.DeleteRemoval(accountID)
	return terminated, nil
}

// Cancel drops any staged proposal for accountID. Cancelling when nothing is
// staged is a no-op.
func (w *SubscriptionWorkflow) Cancel(accountID string) {
	w.Staging.Cancel(accountID)
}

// Info resolves username against the directory and attaches the local
// subscription record. A username unknown to both the directory and the
// store yields ErrAccountNotFound; a directory account without a record is
// reported with a nil Subscription.
func (w *SubscriptionWorkflow) Info(ctx context.Context, username string) (*SubscriptionInfo, error) {
	account, err := w.Directory.FindUserByName(ctx, username)
	if err != nil && !errors.Is(err, jellyfin.ErrUserNotFound) {
		return nil, err
	}

	info := &SubscriptionInfo{Account: account}
	var rec *domain.Subscription
	if account != nil {
		rec, err = w.Subs.Store.FindByAccountID(ctx, account.ID)
	} else {
		rec, err = w.Subs.Store.FindByUsername(ctx, username)
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	if account == nil && rec == nil {
		return nil, ErrAccountNotFound
	}
	if rec != nil {
		info.Subscription = rec
		info.Valid = rec.ValidAt(w.Subs.now())
	}
	return info, nil
}
