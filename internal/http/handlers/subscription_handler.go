// Subscription HTTP handler.
//
// This file exposes the read-only subscription view:
//   - GET /subscriptions/me   (the caller's active subscription, if any)
//
// Subscription lifecycle changes (create, renew, remove) happen exclusively
// through the admin Discord channel; the portal only reads.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/zerodown/zrs-backend/internal/services"
)

// MySubscription returns the caller's subscription when it is currently
// valid. A missing, expired, or removed record is reported uniformly as
// not found: callers cannot tell the cases apart.
func (h *Handlers) MySubscription(c *gin.Context) {
	sub, err := h.subSvc.Lookup(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrNoSubscription) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "no active subscription")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, sub)
}
