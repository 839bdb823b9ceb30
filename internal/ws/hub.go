package ws

import (
	"context"
	"sync"

	"community-service/internal/observability"
)

const wsRoutingKey = "ws_events.screens"

// Hub tracks open screen sessions per screen kind.
type Hub struct {
	rooms map[string]map[*Session]ConnInfo
	mu    sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*Session]ConnInfo)}
}

// Add registers a session under its screen kind.
func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kind := s.info.Screen
	if _, ok := h.rooms[kind]; !ok {
		h.rooms[kind] = make(map[*Session]ConnInfo)
	}
	h.rooms[kind][s] = s.info
}

// Remove unregisters a session. Removing an unknown session is a no-op.
func (h *Hub) Remove(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	kind := s.info.Screen
	if sessions, ok := h.rooms[kind]; ok {
		delete(sessions, s)
		if len(sessions) == 0 {
			delete(h.rooms, kind)
		}
	}
}

// Count returns the open sessions of a screen kind, or of all kinds when kind is "".
func (h *Hub) Count(kind string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if kind != "" {
		return len(h.rooms[kind])
	}
	total := 0
	for _, sessions := range h.rooms {
		total += len(sessions)
	}
	return total
}

// CloseAll ends every open session; used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	all := make([]*Session, 0)
	for _, sessions := range h.rooms {
		for s := range sessions {
			all = append(all, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range all {
		s.Close()
	}
}

func (h *Hub) getConnInfo(s *Session) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if sessions, ok := h.rooms[s.info.Screen]; ok {
		info, exists := sessions[s]
		return info, exists
	}
	return ConnInfo{}, false
}

func (h *Hub) publishWSError(s *Session, err error) {
	info, ok := h.getConnInfo(s)
	if !ok {
		return
	}
	publishLifecycle(context.Background(), info, "ws_error", err.Error())
}

func publishLifecycle(ctx context.Context, info ConnInfo, event, reason string) {
	_ = observability.PublishEvent(ctx, wsRoutingKey, "ws_events", event, info.payload(event, reason), info.RequestMeta)
	observability.IncWSEvent(info.Screen, event)
}
