package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"community-service/internal/auth"
	"community-service/internal/middleware"
	"community-service/internal/telemetry"
)

// Accounts is the identity provider used by the auth endpoints.
type Accounts interface {
	SignUp(ctx context.Context, in auth.SignUpInput) (auth.Result, error)
	SignIn(ctx context.Context, in auth.SignInInput) (auth.Result, error)
	SignOut(ctx context.Context, token string) error
}

// AuthHandler serves sign-up, sign-in and sign-out.
type AuthHandler struct {
	accounts     Accounts
	audit        *telemetry.AuditEmitter
	secureCookie bool
}

// NewAuthHandler constructs an AuthHandler. secureCookie marks the session
// cookie Secure.
func NewAuthHandler(accounts Accounts, audit *telemetry.AuditEmitter, secureCookie bool) *AuthHandler {
	return &AuthHandler{accounts: accounts, audit: audit, secureCookie: secureCookie}
}

// SignUp handles POST /auth/signup.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var in auth.SignUpInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	res, err := h.accounts.SignUp(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	h.setCookie(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusCreated, gin.H{"token": res.Token, "expires_at": res.ExpiresAt, "viewer": res.Viewer, "redirect": "/"})
	emitAudit(c, h.audit, "INFO", "account created")
}

// SignIn handles POST /auth/signin.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var in auth.SignInInput
	if err := c.ShouldBind(&in); err != nil {
		badRequest(c, h.audit, err)
		return
	}
	res, err := h.accounts.SignIn(c.Request.Context(), in)
	if err != nil {
		respondError(c, h.audit, err)
		return
	}
	h.setCookie(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{"token": res.Token, "expires_at": res.ExpiresAt, "viewer": res.Viewer, "redirect": "/"})
}

// SignOut handles POST /auth/signout. Signing out without a session is a no-op.
func (h *AuthHandler) SignOut(c *gin.Context) {
	if token := middleware.TokenFromRequest(c); token != "" {
		if err := h.accounts.SignOut(c.Request.Context(), token); err != nil {
			respondError(c, h.audit, err)
			return
		}
	}
	c.SetCookie(middleware.SessionCookie, "", -1, "/", "", h.secureCookie, true)
	c.JSON(http.StatusOK, gin.H{"status": "signed out", "redirect": "/"})
}

func (h *AuthHandler) setCookie(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookie, true)
}
