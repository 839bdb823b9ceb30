package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"community-service/internal/telemetry"
)

// SubscriptionCounter reports live change subscriptions.
type SubscriptionCounter interface {
	Count() int
}

// RegisterDebugRoutes wires debug-only endpoints: an audit round trip and the
// number of open change subscriptions held by mounted screens.
func RegisterDebugRoutes(router *gin.Engine, emitter *telemetry.AuditEmitter, subs SubscriptionCounter, enabled bool) {
	if !enabled {
		return
	}

	debug := router.Group("/debug")
	debug.GET("/audit-test", func(c *gin.Context) {
		if emitter == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "request_id": requestIDFromContext(c)})
		emitAudit(c, emitter, "INFO", "audit test")
	})
	debug.GET("/subscriptions", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"subscriptions": subs.Count()})
	})
}
