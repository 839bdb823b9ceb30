package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"

	"community-service/internal/middleware"
	"community-service/internal/observability"
	"community-service/internal/screens"
	"community-service/internal/viewsync"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ScreenHandler serves one websocket route per screen. Each connection mounts
// its own screen and unmounts it when the connection ends.
type ScreenHandler struct {
	hub *Hub
	svc *screens.Service
	log zerolog.Logger
}

// NewScreenHandler constructs a ScreenHandler.
func NewScreenHandler(hub *Hub, svc *screens.Service, log zerolog.Logger) *ScreenHandler {
	return &ScreenHandler{hub: hub, svc: svc, log: log}
}

// Questions handles /ws/questions.
func (h *ScreenHandler) Questions(c *gin.Context) {
	h.serve(c, "", h.svc.NewQuestionList(middleware.Viewer(c)))
}

// Question handles /ws/questions/:id.
func (h *ScreenHandler) Question(c *gin.Context) {
	id := c.Param("id")
	h.serve(c, id, h.svc.NewQuestionDetail(middleware.Viewer(c), id))
}

// Groups handles /ws/groups.
func (h *ScreenHandler) Groups(c *gin.Context) {
	h.serve(c, "", h.svc.NewGroupList(middleware.Viewer(c)))
}

// Group handles /ws/groups/:id.
func (h *ScreenHandler) Group(c *gin.Context) {
	id := c.Param("id")
	h.serve(c, id, h.svc.NewGroupDetail(middleware.Viewer(c), id))
}

// Profile handles /ws/profile. Anonymous requests are refused before the upgrade.
func (h *ScreenHandler) Profile(c *gin.Context) {
	p, err := h.svc.NewProfile(middleware.Viewer(c))
	if err != nil {
		var lr *viewsync.LoginRequiredError
		if errors.As(err, &lr) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": lr.Prompt, "redirect": lr.Redirect})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.serve(c, "", p)
}

func (h *ScreenHandler) serve(c *gin.Context, resourceID string, screen screens.Screen) {
	ctx, span := otel.Tracer("community-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Debug().Err(err).Str("screen", screen.Name()).Msg("websocket upgrade failed")
		return
	}

	info := ConnInfo{
		ConnID:      newConnID(),
		Screen:      screen.Name(),
		ResourceID:  resourceID,
		ConnectedAt: time.Now(),
		RequestMeta: observability.MetaFromRequest(c.Request.WithContext(ctx)),
	}
	if v := middleware.Viewer(c); v != nil {
		info.UserID = v.UserID
	}

	// The session outlives the upgrade request.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s := newSession(conn, screen, info, h.hub, h.log)
	go s.writePump()

	if err := screen.Mount(sessionCtx); err != nil {
		screen.Unmount()
		s.pushError(err)
		s.Close()
		cancel()
		return
	}
	// Snapshots always read current state.
	screen.OnUpdate(s.markDirty)
	s.markDirty()

	h.hub.Add(s)
	observability.IncWSActive(info.Screen)
	publishLifecycle(sessionCtx, info, "ws_connect", "")

	go func() {
		reason := s.readPump(sessionCtx)
		screen.Unmount()
		h.hub.Remove(s)
		s.Close()
		cancel()
		observability.DecWSActive(info.Screen)
		publishLifecycle(context.WithoutCancel(sessionCtx), info, "ws_disconnect", reason)
	}()
}
