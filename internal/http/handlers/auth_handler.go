// Auth HTTP handlers.
//
// This file exposes the authentication endpoints:
//   - POST /auth/login     (exchange username/password for a session token)
//   - GET  /auth/me        (profile behind a bearer token)
//   - POST /auth/password  (change own password)
//
// The portal issues no credentials of its own: every call is brokered to the
// media server's directory, so its accounts and tokens are the single source
// of truth. Handlers are transport-thin: they validate input, call the
// directory client, and translate results into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zerodown/zrs-backend/internal/domain"
	"github.com/zerodown/zrs-backend/internal/jellyfin"
	"github.com/zerodown/zrs-backend/internal/tmdb"
)

//
// Service contracts (context-aware)
//

// AuthService brokers credentials to the media server directory.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type AuthService interface {
	// AuthenticateByName exchanges a username/password pair for a session.
	AuthenticateByName(ctx context.Context, username, password string) (*jellyfin.Session, error)
	// Me returns the profile behind an access token.
	Me(ctx context.Context, token string) (*jellyfin.User, error)
	// ChangePassword updates the password of the account behind token.
	ChangePassword(ctx context.Context, token, userID, currentPw, newPw string) error
}

// CatalogService supplies browse and search results from the metadata
// provider.
type CatalogService interface {
	// Popular returns a merged movie/series browse page.
	Popular(ctx context.Context) ([]tmdb.MediaSummary, error)
	// SearchMulti searches movies and series by free text.
	SearchMulti(ctx context.Context, query string) ([]tmdb.MediaSummary, error)
}

// RequestService covers the request operations reachable over HTTP.
// Resolution is not among them; that happens through the admin channel.
type RequestService interface {
	// Submit creates a pending request on behalf of the caller.
	Submit(ctx context.Context, mediaID int64, mediaType domain.MediaType, requesterID, requesterName string) (*domain.Request, error)
	// ListByRequester returns the caller's requests, newest first.
	ListByRequester(ctx context.Context, requesterID string) ([]domain.Request, error)
}

// SubscriptionService covers the read-only subscription view exposed to
// authenticated users.
type SubscriptionService interface {
	// Lookup returns the caller's subscription when currently valid.
	Lookup(ctx context.Context, accountID string) (*domain.Subscription, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for auth, catalog, requests, and
// subscriptions. It depends on abstract service interfaces to keep transport
// concerns separate from business logic.
type Handlers struct {
	authSvc    AuthService
	catalogSvc CatalogService
	reqSvc     RequestService
	subSvc     SubscriptionService
}

// New constructs and returns a Handlers instance bound to the given services.
func New(authSvc AuthService, catalogSvc CatalogService, reqSvc RequestService, subSvc SubscriptionService) *Handlers {
	return &Handlers{authSvc: authSvc, catalogSvc: catalogSvc, reqSvc: reqSvc, subSvc: subSvc}
}

// userID extracts the authenticated account id from the Gin context (set by
// the bearer-auth middleware). Handlers behind that middleware can rely on a
// non-empty value; elsewhere this returns "".
func userID(c *gin.Context) string {
	if v, ok := c.Get("userID"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// userName extracts the authenticated account username from the Gin context.
func userName(c *gin.Context) string {
	if v, ok := c.Get("userName"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// bearerToken extracts the access token from the Authorization header.
// Returns "" when the header is absent or not a Bearer credential.
func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

//
// DTOs
//

// LoginRequest is the JSON payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the session token and profile on successful login.
type LoginResponse struct {
	AccessToken string        `json:"accessToken"`
	User        jellyfin.User `json:"user"`
}

// ChangePasswordRequest is the JSON payload for POST /auth/password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

//
// Handlers
//

// Login exchanges a username/password pair for a media server session token.
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "username and password are required")
		return
	}

	session, err := h.authSvc.AuthenticateByName(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, jellyfin.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "username or password is incorrect")
			return
		}
		failUpstream(c, err)
		return
	}
	ok(c, http.StatusOK, LoginResponse{AccessToken: session.AccessToken, User: session.User})
}

// Me returns the profile of the authenticated caller.
func (h *Handlers) Me(c *gin.Context) {
	user, err := h.authSvc.Me(c.Request.Context(), bearerToken(c))
	if err != nil {
		if errors.Is(err, jellyfin.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "session is invalid or expired")
			return
		}
		failUpstream(c, err)
		return
	}
	ok(c, http.StatusOK, user)
}

// ChangePassword updates the caller's directory password. The current
// password is re-verified by the directory itself.
func (h *Handlers) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "currentPassword and newPassword are required")
		return
	}

	err := h.authSvc.ChangePassword(c.Request.Context(), bearerToken(c), userID(c), req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, jellyfin.ErrInvalidCredentials) {
			fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "current password is incorrect")
			return
		}
		failUpstream(c, err)
		return
	}
	noContent(c)
}

// failUpstream maps adapter failures to a 502 with a stable code. The remote
// status is in the error, which is logged by fail for 5xx responses.
func failUpstream(c *gin.Context, err error) {
	fail(c, http.StatusBadGateway, ErrCodeUpstream, err.Error())
}
