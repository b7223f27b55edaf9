package store

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/zerodown/zrs-backend/internal/domain"
)

// requestsFile is the document holding all request records, newest first.
const requestsFile = "requests.json"

// RequestStore persists media request records in a single flat JSON document.
// All methods are safe for concurrent use; mutations serialize on an internal
// mutex so the read-modify-write cycle never loses an update.
type RequestStore struct {
	mu   sync.Mutex
	path string
}

// OpenRequestStore binds a RequestStore to dir, creating the directory when
// missing and eagerly loading the document once so malformed persisted data
// is rejected at startup rather than on first use.
func OpenRequestStore(dir string) (*RequestStore, error) {
	if err := ensureDir(dir); err != nil {
		return nil, err
	}
	s := &RequestStore{path: filepath.Join(dir, requestsFile)}
	if _, err := readDocument[domain.Request, *domain.Request](s.path); err != nil {
		return nil, err
	}
	return s, nil
}

// All returns every stored request, newest first.
func (s *RequestStore) All(ctx context.Context) ([]domain.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return readDocument[domain.Request, *domain.Request](s.path)
}

// ListByRequester returns the requests submitted by the given account,
// preserving the stored newest-first order.
func (s *RequestStore) ListByRequester(ctx context.Context, requesterID string) ([]domain.Request, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Request, 0, len(all))
	for _, r := range all {
		if r.RequesterID == requesterID {
			out = append(out, r)
		}
	}
	return out, nil
}

// FindByMediaID returns the request targeting the given catalog id,
// regardless of its status, or ErrNotFound.
func (s *RequestStore) FindByMediaID(ctx context.Context, mediaID int64) (*domain.Request, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].MediaID == mediaID {
			return &all[i], nil
		}
	}
	return nil, ErrNotFound
}

// Insert prepends req to the document unless a request for the same catalog
// id already exists. On conflict the existing record is returned so callers
// can produce a status-aware rejection; req is not stored in that case.
// The dedup check and the prepend run inside one critical section.
func (s *RequestStore) Insert(ctx context.Context, req domain.Request) (*domain.Request, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readDocument[domain.Request, *domain.Request](s.path)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].MediaID == req.MediaID {
			return &all[i], nil
		}
	}

	all = append([]domain.Request{req}, all...)
	if err := writeDocument(s.path, all); err != nil {
		return nil, err
	}
	return nil, nil
}

// Update locates a request by id, applies fn to it, and rewrites the
// document. Returns ErrNotFound when the id is unknown. The mutated record
// is returned on success.
func (s *RequestStore) Update(ctx context.Context, id string, fn func(*domain.Request) error) (*domain.Request, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := readDocument[domain.Request, *domain.Request](s.path)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
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
