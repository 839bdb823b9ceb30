package ws

import (
	"time"

	"community-service/internal/observability"
)

// ConnInfo identifies a screen session for lifecycle events.
type ConnInfo struct {
	ConnID      string
	Screen      string
	ResourceID  string
	UserID      string
	ConnectedAt time.Time
	observability.RequestMeta
}

func (i ConnInfo) payload(event, reason string) map[string]interface{} {
	duration := int64(0)
	if event != "ws_connect" {
		duration = time.Since(i.ConnectedAt).Milliseconds()
	}
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        i.Screen,
			"resource_id": i.ResourceID,
			"event":       event,
			"conn_id":     i.ConnID,
			"duration_ms": duration,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id":   i.UserID,
			"device_id": i.DeviceID,
			"ip":        i.IP,
		},
	}
}
