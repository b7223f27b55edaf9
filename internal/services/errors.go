// Package services implements the request and subscription lifecycle managers
// and the staged-confirmation workflow. This file centralizes service-level
// error values so they can be consistently returned by service methods and
// mapped to user-facing messages at the transport layer (HTTP handlers and
// the Discord interaction router).
//
// Adapter failures are not redeclared here: the jellyfin and tmdb packages
// return their own typed errors, which services either map to one of these
// sentinels (not-found cases) or propagate with the remote cause attached.
package services

import (
	"errors"
	"fmt"

	"github.com/zerodown/zrs-backend/internal/domain"
)

var (
	// ErrMediaNotFound indicates the catalog has no title for the
	// requested id and media type.
	ErrMediaNotFound = errors.New("media not found in catalog")

	// ErrAlreadyAvailable indicates the requested title is already present
	// on the media server, so there is nothing to request.
	ErrAlreadyAvailable = errors.New("title already available on the server")

	// ErrRequestNotFound indicates no request record matches the given id.
	ErrRequestNotFound = errors.New("request not found")

	// ErrAccountNotFound indicates the directory has no account with the
	// given name.
	ErrAccountNotFound = errors.New("account not found in directory")

	// ErrNoSubscription indicates the account has no currently valid
	// subscription. Callers must not distinguish "never had one" from
	// "expired" — both yield this error.
	ErrNoSubscription = errors.New("no active subscription")

	// ErrSubscriptionNotFound indicates no subscription record exists for
	// the account at all (used by mutations that require a record).
	ErrSubscriptionNotFound = errors.New("no subscription record for account")

	// ErrConfirmationExpired indicates a confirm action arrived for a
	// staged entry that no longer exists (consumed, cancelled, evicted, or
	// lost to a restart). The workflow must be restarted from the top.
	ErrConfirmationExpired = errors.New("confirmation expired, start over")

	// ErrInvalidDuration is returned when a subscription duration is not a
	// positive number of months.
	ErrInvalidDuration = errors.New("duration must be a positive number of months")

	// ErrEmptyPayment is returned when the payment note is blank.
	ErrEmptyPayment = errors.New("payment note must not be empty")

	// ErrEmptyReason is returned when a removal is staged without a reason.
	ErrEmptyReason = errors.New("removal reason must not be empty")

	// ErrInvalidResolution is returned when a request resolution carries a
	// status other than accepted or rejected.
	ErrInvalidResolution = errors.New("resolution status must be accepted or rejected")
)

// DuplicateRequestError rejects a submission whose catalog id already has a
// request record. The message depends on the stored record's status so users
// learn whether the title is in progress, already available, or was declined.
type DuplicateRequestError struct {
	Status domain.RequestStatus
}

// Error renders the status-aware rejection message.
func (e *DuplicateRequestError) Error() string {
	switch e.Status {
	case domain.StatusPending:
		return "this title has already been requested and is in progress"
	case domain.StatusAccepted:
		return "this title is already available"
	case domain.StatusRejected:
		return "this title was requested before and declined"
	default:
		return fmt.Sprintf("this title has already been requested (status %s)", e.Status)
	}
}
