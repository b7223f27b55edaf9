package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/zerodown/zrs-backend/internal/domain"
)

func newSubscription(accountID, username string) domain.Subscription {
	start := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	return domain.Subscription{
		AccountID:       accountID,
		AccountUsername: username,
		DurationMonths:  3,
		PaymentMethod:   "paypal",
		StartDate:       start,
		EndDate:         start.AddDate(0, 3, 0),
		Status:          domain.SubActive,
	}
}

func TestSubscriptionStore_UpsertOverwritesByUsername(t *testing.T) {
	s, err := OpenSubscriptionStore(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	if err := s.Upsert(ctx, newSubscription("acc-1", "Bob")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	// Same username, different case: must replace, never duplicate.
	renewed := newSubscription("acc-1", "bob")
	renewed.DurationMonths = 12
	renewed.EndDate = renewed.StartDate.AddDate(0, 12, 0)
	if err := s.Upsert(ctx, renewed); err != nil {
		t.Fatalf("renew upsert: %v", err)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected one record after overwrite, got %d", len(all))
	}
	if all[0].DurationMonths != 12 {
		t.Fatalf("overwrite did not replace record: %+v", all[0])
	}
}

func TestSubscriptionStore_Lookups(t *testing.T) {
	s, err := OpenSubscriptionStore(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	if err := s.Upsert(ctx, newSubscription("acc-7", "Carol")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	if got, err := s.FindByAccountID(ctx, "acc-7"); err != nil || got.AccountUsername != "Carol" {
		t.Fatalf("FindByAccountID: got=%+v err=%v", got, err)
	}
	if got, err := s.FindByUsername(ctx, "cArOl"); err != nil || got.AccountID != "acc-7" {
		t.Fatalf("FindByUsername case-insensitive: got=%+v err=%v", got, err)
	}
	if _, err := s.FindByAccountID(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.FindByUsername(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSubscriptionStore_UpdateMarksDeleted(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenSubscriptionStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	if err := s.Upsert(ctx, newSubscription("acc-9", "Dave")); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	now := time.Now().UTC()
	got, err := s.Update(ctx, "acc-9", func(sub *domain.Subscription) error {
		sub.Status = domain.SubDeleted
		sub.EndDate = now
		sub.RemovalReason = "fraud"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != domain.SubDeleted || got.RemovalReason != "fraud" {
		t.Fatalf("update not applied: %+v", got)
	}

	// The record is marked, never physically removed.
	s2, err := OpenSubscriptionStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	all, err := s2.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 || all[0].Status != domain.SubDeleted {
		t.Fatalf("deleted record not persisted: %+v", all)
	}
}
