package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/zerodown/zrs-backend/internal/domain"
)

func newRequest(mediaID int64) domain.Request {
	return domain.Request{
		ID:            uuid.NewString(),
		RequesterID:   "jf-user-1",
		RequesterName: "alice",
		RequestDate:   time.Now().UTC(),
		Status:        domain.StatusPending,
		MediaType:     domain.MediaMovie,
		MediaID:       mediaID,
		MediaTitle:    fmt.Sprintf("Title %d", mediaID),
	}
}

func TestRequestStore_RoundTripPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenRequestStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	const n = 5
	ids := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		r := newRequest(int64(100 + i))
		ids = append(ids, r.ID)
		if conflict, err := s.Insert(ctx, r); err != nil || conflict != nil {
			t.Fatalf("insert %d: conflict=%v err=%v", i, conflict, err)
		}
	}

	// Reopen against the same directory to force a reload from disk.
	s2, err := OpenRequestStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	all, err := s2.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != n {
		t.Fatalf("expected %d records, got %d", n, len(all))
	}
	// Newest first: last inserted id comes back at index 0.
	for i := 0; i < n; i++ {
		if all[i].ID != ids[n-1-i] {
			t.Fatalf("order broken at %d: got %s want %s", i, all[i].ID, ids[n-1-i])
		}
	}
}

func TestRequestStore_InsertConflictKeepsSingleRecord(t *testing.T) {
	s, err := OpenRequestStore(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	first := newRequest(603)
	if conflict, err := s.Insert(ctx, first); err != nil || conflict != nil {
		t.Fatalf("first insert: conflict=%v err=%v", conflict, err)
	}

	dup := newRequest(603)
	conflict, err := s.Insert(ctx, dup)
	if err != nil {
		t.Fatalf("second insert: %v", err)
	}
	if conflict == nil {
		t.Fatalf("expected conflict for duplicate media id")
	}
	if conflict.ID != first.ID || conflict.Status != domain.StatusPending {
		t.Fatalf("conflict returned wrong record: %+v", conflict)
	}

	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one stored record, got %d", len(all))
	}
}

func TestRequestStore_Update(t *testing.T) {
	s, err := OpenRequestStore(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	r := newRequest(550)
	if _, err := s.Insert(ctx, r); err != nil {
		t.Fatalf("insert: %v", err)
	}

	now := time.Now().UTC()
	got, err := s.Update(ctx, r.ID, func(rec *domain.Request) error {
		rec.Status = domain.StatusAccepted
		rec.HandledBy = "adminX"
		rec.HandledAt = &now
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got.Status != domain.StatusAccepted || got.HandledBy != "adminX" || got.HandledAt == nil {
		t.Fatalf("update not applied: %+v", got)
	}

	if _, err := s.Update(ctx, "missing-id", func(*domain.Request) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestRequestStore_ListByRequester(t *testing.T) {
	s, err := OpenRequestStore(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	mine := newRequest(1)
	if _, err := s.Insert(ctx, mine); err != nil {
		t.Fatalf("insert: %v", err)
	}
	other := newRequest(2)
	other.RequesterID = "jf-user-2"
	if _, err := s.Insert(ctx, other); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := s.ListByRequester(ctx, "jf-user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].ID != mine.ID {
		t.Fatalf("unexpected listing: %+v", got)
	}
}

func TestOpenRequestStore_RejectsMalformedDocument(t *testing.T) {
	dir := t.TempDir()
	// Status "approved" is not part of the schema.
	raw := `[{"requestId":"x","requesterId":"u","requestDate":"2024-01-01T00:00:00Z","status":"approved","mediaType":"movie","mediaExternalId":1,"mediaTitle":"t"}]`
	if err := os.WriteFile(filepath.Join(dir, requestsFile), []byte(raw), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := OpenRequestStore(dir); err == nil {
		t.Fatalf("expected open to fail on malformed record")
	}
}

func TestOpenRequestStore_EmptyFileIsEmptyCollection(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, requestsFile), nil, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	s, err := OpenRequestStore(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	all, err := s.All(context.Background())
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected empty collection, got %d", len(all))
	}
}
