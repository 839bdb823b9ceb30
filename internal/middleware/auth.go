package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"community-service/internal/models"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "session"

// Context keys set by the auth middlewares.
const (
	ViewerKey = "viewer"
	UserIDKey = "userID"
)

// Authenticator resolves a session token to a viewer.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (models.Viewer, error)
}

// TokenFromRequest returns the session token from the Authorization header,
// the token query parameter or the session cookie, in that order.
func TokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return strings.TrimSpace(parts[1])
		}
		return strings.TrimSpace(header)
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// OptionalAuth attaches the viewer when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := TokenFromRequest(c); token != "" {
			if viewer, err := auth.Authenticate(c.Request.Context(), token); err == nil {
				setViewer(c, viewer)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects requests without a valid session.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		viewer, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		setViewer(c, viewer)
		c.Next()
	}
}

func setViewer(c *gin.Context, viewer models.Viewer) {
	c.Set(ViewerKey, &viewer)
	c.Set(UserIDKey, viewer.UserID)
}

// Viewer returns the authenticated viewer, or nil for anonymous requests.
func Viewer(c *gin.Context) *models.Viewer {
	if val, ok := c.Get(ViewerKey); ok {
		if v, ok := val.(*models.Viewer); ok {
			return v
		}
	}
	return nil
}
