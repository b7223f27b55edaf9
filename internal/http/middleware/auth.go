// Bearer-token authentication middleware.
//
// This file validates media server session tokens on protected routes. The
// portal does not mint tokens of its own: the Authorization bearer credential
// is forwarded to the directory, which either resolves it to an account or
// rejects it. On success the account id and username are stored in the Gin
// context for downstream handlers.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/zerodown/zrs-backend/internal/jellyfin"
)

// TokenValidator resolves an access token to the account behind it.
type TokenValidator interface {
	// Me returns the profile behind the token, or
	// jellyfin.ErrInvalidCredentials when the token is not accepted.
	Me(ctx context.Context, token string) (*jellyfin.User, error)
}

// BearerAuth returns middleware that requires a valid bearer token.
//
// Behavior:
//   - Extracts the token from the Authorization header ("Bearer <token>",
//     scheme match is case-insensitive).
//   - Validates it against the directory via v.Me.
//   - On success stores the account under the "userID" and "userName" Gin
//     context keys and continues the chain.
//   - On a missing or rejected token aborts with 401 and the standard error
//     envelope. Directory outages also abort with 401: a token that cannot
//     be verified is not accepted.
func BearerAuth(v TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			abortUnauthorized(c, "a bearer token is required")
			return
		}

		user, err := v.Me(c.Request.Context(), token)
		if err != nil {
			abortUnauthorized(c, "session is invalid or expired")
			return
		}

		c.Set("userID", user.ID)
		c.Set("userName", user.Name)
		c.Next()
	}
}

// extractBearer returns the credential portion of a Bearer Authorization
// header value, or "" when the value is absent or uses another scheme.
func extractBearer(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// abortUnauthorized writes the standard 401 envelope and stops the chain.
func abortUnauthorized(c *gin.Context, msg string) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    msg,
	})
}
