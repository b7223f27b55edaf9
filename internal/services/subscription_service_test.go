package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/jellyfin"
	"github.com/zerodown/zrs-backend/internal/store"
)

type stubDirectory struct {
	findFn      func(ctx context.Context, name string) (*jellyfin.User, error)
	deleteErr   error
	deleteCalls int
}

func (s *stubDirectory) FindUserByName(ctx context.Context, name string) (*jellyfin.User, error) {
	if s.findFn != nil {
		return s.findFn(ctx, name)
	}
	return &jellyfin.User{ID: "acc-" + strings.ToLower(name), Name: name}, nil
}

func (s *stubDirectory) DeleteUser(ctx context.Context, id string) error {
	s.deleteCalls++
	return s.deleteErr
}

func newSubscriptionService(t *testing.T, dir Directory) *SubscriptionService {
	t.Helper()
	st, err := store.OpenSubscriptionStore(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return &SubscriptionService{
		Store:     st,
		Directory: dir,
		Now:       func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) },
	}
}

func activeDraft(username string, months int) domain.Subscription {
	return domain.Subscription{
		AccountID:       "acc-" + strings.ToLower(username),
		AccountUsername: username,
		DurationMonths:  months,
		PaymentMethod:   "paypal",
	}
}

func TestSubscriptionService_CreateComputesCalendarEndDate(t *testing.T) {
	svc := newSubscriptionService(t, &stubDirectory{})

	saved, err := svc.CreateOrRenew(context.Background(), activeDraft("Alice", 3))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	wantEnd := time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)
	if !saved.EndDate.Equal(wantEnd) {
		t.Fatalf("endDate = %v, want %v", saved.EndDate, wantEnd)
	}
	if !saved.StartDate.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("startDate should default to now, got %v", saved.StartDate)
	}
	if saved.Status != domain.SubActive {
		t.Fatalf("new subscription should be active, got %q", saved.Status)
	}
}

func TestSubscriptionService_RenewOverwritesByUsername(t *testing.T) {
	svc := newSubscriptionService(t, &stubDirectory{})
	ctx := context.Background()

	if _, err := svc.CreateOrRenew(ctx, activeDraft("Bob", 1)); err != nil {
		t.Fatalf("first create: %v", err)
	}
	// Same username in a different case must overwrite, not add.
	renewed, err := svc.CreateOrRenew(ctx, activeDraft("bob", 12))
	if err != nil {
		t.Fatalf("renew: %v", err)
	}
	if renewed.DurationMonths != 12 {
		t.Fatalf("renewal not applied: %+v", renewed)
	}

	all, err := svc.Store.All(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("renewal must not create a second record, got %d", len(all))
	}
}

func TestSubscriptionService_CreateValidation(t *testing.T) {
	svc := newSubscriptionService(t, &stubDirectory{})
	ctx := context.Background()

	bad := activeDraft("Alice", 0)
	if _, err := svc.CreateOrRenew(ctx, bad); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	bad = activeDraft("Alice", 3)
	bad.PaymentMethod = "   "
	if _, err := svc.CreateOrRenew(ctx, bad); !errors.Is(err, ErrEmptyPayment) {
		t.Fatalf("expected ErrEmptyPayment, got %v", err)
	}
}

func TestSubscriptionService_LookupComputesExpiry(t *testing.T) {
	svc := newSubscriptionService(t, &stubDirectory{})
	ctx := context.Background()

	if _, err := svc.CreateOrRenew(ctx, activeDraft("Alice", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Lookup(ctx, "acc-alice"); err != nil {
		t.Fatalf("lookup within window: %v", err)
	}

	// Past the end date the record is still marked active but no longer valid.
	svc.Now = func() time.Time { return time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC) }
	if _, err := svc.Lookup(ctx, "acc-alice"); !errors.Is(err, ErrNoSubscription) {
		t.Fatalf("expired subscription must yield ErrNoSubscription, got %v", err)
	}

	if _, err := svc.Lookup(ctx, "acc-nobody"); !errors.Is(err, ErrNoSubscription) {
		t.Fatalf("missing record must yield ErrNoSubscription, got %v", err)
	}
}

func TestSubscriptionService_TerminateDeletesRemoteFirst(t *testing.T) {
	dir := &stubDirectory{}
	svc := newSubscriptionService(t, dir)
	ctx := context.Background()

	if _, err := svc.CreateOrRenew(ctx, activeDraft("Alice", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	terminated, err := svc.Terminate(ctx, "acc-alice", "fraud")
	if err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if dir.deleteCalls != 1 {
		t.Fatalf("expected one directory deletion, got %d", dir.deleteCalls)
	}
	if terminated.Status != domain.SubDeleted || terminated.RemovalReason != "fraud" {
		t.Fatalf("termination not recorded: %+v", terminated)
	}
	if !terminated.EndDate.Equal(svc.Now()) {
		t.Fatalf("endDate should be clamped to termination time, got %v", terminated.EndDate)
	}

	if _, err := svc.Lookup(ctx, "acc-alice"); !errors.Is(err, ErrNoSubscription) {
		t.Fatalf("terminated subscription still valid: %v", err)
	}
}

func TestSubscriptionService_TerminateAbortsOnRemoteFailure(t *testing.T) {
	dir := &stubDirectory{deleteErr: errors.New("server unreachable")}
	svc := newSubscriptionService(t, dir)
	ctx := context.Background()

	if _, err := svc.CreateOrRenew(ctx, activeDraft("Alice", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Terminate(ctx, "acc-alice", "fraud"); err == nil {
		t.Fatalf("expected terminate to fail when directory deletion fails")
	}

	rec, err := svc.Store.FindByAccountID(ctx, "acc-alice")
	if err != nil {
		t.Fatalf("record lookup: %v", err)
	}
	if rec.Status != domain.SubActive || rec.RemovalReason != "" {
		t.Fatalf("record mutated despite aborted termination: %+v", rec)
	}
}

func TestSubscriptionService_TerminateDefaultsReason(t *testing.T) {
	svc := newSubscriptionService(t, &stubDirectory{})
	ctx := context.Background()

	if _, err := svc.CreateOrRenew(ctx, activeDraft("Alice", 3)); err != nil {
		t.Fatalf("create: %v", err)
	}

	terminated, err := svc.Terminate(ctx, "acc-alice", "  ")
	if err != nil {
		t.Fatalf("terminate: %v", err)
	}
	if terminated.RemovalReason != defaultRemovalReason {
		t.Fatalf("blank reason should fall back to placeholder, got %q", terminated.RemovalReason)
	}
}

func TestSubscriptionService_TerminateUnknownAccount(t *testing.T) {
	dir := &stubDirectory{}
	svc := newSubscriptionService(t, dir)

	_, err := svc.Terminate(context.Background(), "acc-nobody", "fraud")
	if !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("expected ErrSubscriptionNotFound, got %v", err)
	}
	if dir.deleteCalls != 0 {
		t.Fatalf("no remote deletion should happen without a record")
	}
}
