package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/auth"
	"community-service/internal/repositories"
	"community-service/internal/screens"
	"community-service/internal/storage"
	"community-service/internal/telemetry"
	"community-service/internal/validation"
	"community-service/internal/viewsync"
)

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var nf *viewsync.NotFoundError
	switch {
	case errors.Is(err, validation.ErrInvalid), errors.Is(err, storage.ErrInvalidPath):
		return http.StatusBadRequest
	case errors.Is(err, viewsync.ErrLoginRequired),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, screens.ErrNotMember):
		return http.StatusForbidden
	case errors.As(err, &nf), errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repositories.ErrDuplicate),
		errors.Is(err, auth.ErrAccountExists),
		errors.Is(err, viewsync.ErrToggleBusy),
		errors.Is(err, screens.ErrAdminCannotLeave):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": msg} and records an audit line.
func respondError(c *gin.Context, audit *telemetry.AuditEmitter, err error) {
	status := statusFor(err)
	level := "WARN"
	if status >= http.StatusInternalServerError {
		level = "ERROR"
	}
	c.JSON(status, gin.H{"error": err.Error()})
	emitAudit(c, audit, level, err.Error())
}

func badRequest(c *gin.Context, audit *telemetry.AuditEmitter, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	emitAudit(c, audit, "WARN", "invalid request payload")
}

// notices collects the notices an action emits for the JSON response.
type notices struct {
	list []viewsync.Notice
}

func (n *notices) Notify(notice viewsync.Notice) {
	n.list = append(n.list, notice)
}

// last returns the most recent notice, or nil.
func (n *notices) last() *viewsync.Notice {
	if len(n.list) == 0 {
		return nil
	}
	return &n.list[len(n.list)-1]
}
