// Package staging holds proposed mutations awaiting human confirmation.
//
// A staged entry is transient, process-local state: it is created when an
// administrator completes a form, consumed on confirm, dropped on cancel, and
// evicted after a TTL so abandoned proposals cannot accumulate forever. The
// store is an explicit dependency injected into the workflow rather than
// ambient package state, so tests can construct, inspect, and age it freely.
package staging

import (
	"sync"
	"time"

	"github.com/zerodown/zrs-backend/internal/domain"
)

// DefaultTTL bounds how long a staged proposal stays confirmable.
const DefaultTTL = 15 * time.Minute

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// Store keeps at most one staged subscription draft and one staged removal
// per external account id. Re-staging a key overwrites the prior entry of
// that variant (last stage wins). Safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	ttl      time.Duration
	now      func() time.Time
	subs     map[string]entry[domain.Subscription]
	removals map[string]entry[string]
}

// New returns a Store evicting entries after ttl. A non-positive ttl falls
// back to DefaultTTL.
func New(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		ttl:      ttl,
		now:      time.Now,
		subs:     make(map[string]entry[domain.Subscription]),
		removals: make(map[string]entry[string]),
	}
}

// WithClock overrides the time source. Intended for tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// PutSubscription stages a subscription draft for accountID, replacing any
// prior draft for the same key.
func (s *Store) PutSubscription(accountID string, draft domain.Subscription) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[accountID] = entry[domain.Subscription]{value: draft, expiresAt: s.now().Add(s.ttl)}
}

// Subscription returns the staged draft for accountID. An expired entry
// behaves exactly like an absent one and is evicted on the way out.
func (s *Store) Subscription(accountID string) (domain.Subscription, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.subs[accountID]
	if !ok {
		return domain.Subscription{}, false
	}
	if !e.expiresAt.After(s.now()) {
		delete(s.subs, accountID)
		return domain.Subscription{}, false
	}
	return e.value, true
}

// DeleteSubscription drops the staged draft for accountID, if any.
func (s *Store) DeleteSubscription(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, accountID)
}

// PutRemoval stages a removal reason for accountID, replacing any prior one.
func (s *Store) PutRemoval(accountID, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removals[accountID] = entry[string]{value: reason, expiresAt: s.now().Add(s.ttl)}
}

// Removal returns the staged removal reason for accountID, applying the same
// expiry semantics as Subscription.
func (s *Store) Removal(accountID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.removals[accountID]
	if !ok {
		return "", false
	}
	if !e.expiresAt.After(s.now()) {
		delete(s.removals, accountID)
		return "", false
	}
	return e.value, true
}

// DeleteRemoval drops the staged removal for accountID, if any.
func (s *Store) DeleteRemoval(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.removals, accountID)
}

// Cancel unconditionally drops both staged variants for accountID.
func (s *Store) Cancel(accountID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, accountID)
	delete(s.removals, accountID)
}
