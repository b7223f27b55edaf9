// Package services – RequestService
//
// This file implements the media request lifecycle: submission with a dual
// dedup check (library probe plus local store scan) and administrator
// resolution. The library probe is advisory only; a probe failure is logged
// and skipped rather than blocking the submission. The notification sink is
// load-bearing: a created request that cannot be announced fails the whole
// submission even though the record is already durable.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/store"
	"github.com/zerodown/zrs-backend/internal/tmdb"
)

// Catalog is the read-only metadata provider contract used by RequestService.
type Catalog interface {
	// Details fetches the full record for one title.
	Details(ctx context.Context, mediaType domain.MediaType, id int64) (*tmdb.MediaDetails, error)
}

// Library probes the media server for titles that already exist.
// Results are advisory; callers must tolerate errors.
type Library interface {
	// ExistsByTitleYear reports whether a title/year pair is already present.
	ExistsByTitleYear(ctx context.Context, title string, year int) (bool, error)
}

// Notifier announces newly created requests to administrators.
type Notifier interface {
	// RequestCreated emits the request for administrator action.
	RequestCreated(ctx context.Context, req *domain.Request, details *tmdb.MediaDetails) error
}

// RequestService manages the request lifecycle against the flat-record store.
type RequestService struct {
	// Store persists request records.
	Store *store.RequestStore
	// Catalog resolves media ids to metadata.
	Catalog Catalog
	// Library is the advisory existing-media probe.
	Library Library
	// Notifier is the administrator notification sink.
	Notifier Notifier

	// Now supplies the clock; defaults to time.Now when nil.
	Now func() time.Time
}

// now returns the current UTC time using the injected clock when present.
func (s *RequestService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Submit creates a pending request for the given catalog title on behalf of
// requester. The sequence is: detail fetch (NotFound on a bad id), advisory
// library probe, dedup against the local store, persist, notify.
//
// A duplicate submission returns *DuplicateRequestError carrying the stored
// record's status. A notification failure fails the submission even though
// the record was already saved; the resulting orphaned pending record is a
// known limitation.
func (s *RequestService) Submit(ctx context.Context, mediaID int64, mediaType domain.MediaType, requesterID, requesterName string) (*domain.Request, error) {
	details, err := s.Catalog.Details(ctx, mediaType, mediaID)
	if err != nil {
		if errors.Is(err, tmdb.ErrNotFound) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}

	// Best-effort check against the library. Presence short-circuits the
	// request; a failed probe only skips the optimization.
	title, year := details.DisplayTitle(), details.Year()
	if exists, err := s.Library.ExistsByTitleYear(ctx, title, year); err != nil {
		log.Warn().Err(err).Str("title", title).Int("year", year).
			Msg("library probe failed, assuming title not present")
	} else if exists {
		return nil, ErrAlreadyAvailable
	}

	req := domain.Request{
		ID:              uuid.NewString(),
		RequesterID:     requesterID,
		RequesterName:   requesterName,
		RequestDate:     s.now(),
		Status:          domain.StatusPending,
		MediaType:       mediaType,
		MediaID:         details.ID,
		MediaTitle:      title,
		MediaPosterPath: details.PosterPath,
	}

	conflict, err := s.Store.Insert(ctx, req)
	if err != nil {
		return nil, err
	}
	if conflict != nil {
		return nil, &DuplicateRequestError{Status: conflict.Status}
	}

	if err := s.Notifier.RequestCreated(ctx, &req, details); err != nil {
		return nil, fmt.Errorf("request saved but notification failed: %w", err)
	}
	return &req, nil
}

// Resolve transitions a request to accepted or rejected, stamping the
// resolver identity and time. Resolving an already-resolved request silently
// overwrites the prior resolution (last action wins).
func (s *RequestService) Resolve(ctx context.Context, id string, status domain.RequestStatus, resolvedBy string) (*domain.Request, error) {
	if status != domain.StatusAccepted && status != domain.StatusRejected {
		return nil, ErrInvalidResolution
	}

	handledAt := s.now()
	rec, err := s.Store.Update(ctx, id, func(r *domain.Request) error {
		r.Status = status
		r.HandledBy = resolvedBy
		r.HandledAt = &handledAt
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrRequestNotFound
	}
	return rec, err
}

// ListByRequester returns the requests submitted by the given account,
// newest first.
func (s *RequestService) ListByRequester(ctx context.Context, requesterID string) ([]domain.Request, error) {
	return s.Store.ListByRequester(ctx, requesterID)
}
