package store

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/zerodown/zrs-backend/internal/domain"
)

// subscriptionsFile is the document holding all subscription records.
const subscriptionsFile = "subscriptions.json"

// SubscriptionStore persists subscription records in a single flat JSON
// document. The collection key is the account username, compared
// case-insensitively: saving a record for an existing username overwrites it
// in place instead of adding a second record.
type SubscriptionStore struct {
	mu   sync.Mutex
	path string
}

// OpenSubscriptionStore binds a SubscriptionStore to dir, creating the
// directory when missing and rejecting malformed persisted data up front.
func OpenSubscriptionStore(dir string) (*SubscriptionStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	s := &SubscriptionStore{path: filepath.Join(dir, subscriptionsFile)}
	if _, err := readDocument[domain.Subscription, *domain.Subscription](s.path); err != nil {
		return nil, err
	}
	return s, nil
}

// All returns every stored subscription record in stored order.
func (s *SubscriptionStore) All(ctx context.Context) ([]domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readDocument[domain.Subscription, *domain.Subscription](s.path)
}

// FindByAccountID returns the record for the given directory account id,
// or ErrNotFound.
func (s *SubscriptionStore) FindByAccountID(ctx context.Context, accountID string) (*domain.Subscription, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].AccountID == accountID {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// FindByUsername returns the record whose username matches name
// case-insensitively, or ErrNotFound.
func (s *SubscriptionStore) FindByUsername(ctx context.Context, name string) (*domain.Subscription, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if strings.EqualFold(all[i].AccountUsername, name) {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// Upsert saves sub, overwriting any existing record with the same username
// (case-insensitive) in place; otherwise the record is prepended. No history
// is retained for a superseded record.
func (s *SubscriptionStore) Upsert(ctx context.Context, sub domain.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readDocument[domain.Subscription, *domain.Subscription](s.path)
	if err != nil {
		return err
	}
	for i := range all {
		if strings.EqualFold(all[i].AccountUsername, sub.AccountUsername) {
			all[i] = sub
			return writeDocument(s.path, all)
		}
	}
	all = append([]domain.Subscription{sub}, all...)
	return writeDocument(s.path, all)
}

// Update locates a record by account id, applies fn, and rewrites the
// document. Returns ErrNotFound when no record matches.
func (s *SubscriptionStore) Update(ctx context.Context, accountID string, fn func(*domain.Subscription) error) (*domain.Subscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readDocument[domain.Subscription, *domain.Subscription](s.path)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].AccountID == accountID {
			if err := fn(&all[i]); err != nil {
				return nil, err
			}
			if err := all[i].Validate(); err != nil {
				return nil, err
			}
			if err := writeDocument(s.path, all); err != nil {
				return nil, err
			}
			rec := all[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}
