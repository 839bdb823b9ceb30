package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"community-service/internal/screens"
	"community-service/internal/viewsync"
)

const (
	// Time allowed to write a frame to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong from the peer.
	pongWait = 60 * time.Second

	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Actions may carry inline files.
	maxMessageSize = 16 << 20

	noticeBuffer = 32
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Frame types sent to the client.
const (
	FrameSnapshot = "snapshot"
	FrameNotice   = "notice"
	FrameError    = "error"
)

// Frame is one server-to-client message.
type Frame struct {
	Type     string           `json:"type"`
	Screen   string           `json:"screen"`
	Data     any              `json:"data,omitempty"`
	Notice   *viewsync.Notice `json:"notice,omitempty"`
	Error    string           `json:"error,omitempty"`
	Redirect string           `json:"redirect,omitempty"`
}

// Session binds one websocket connection to one mounted screen. Snapshots are
// coalesced: the writer always sends the screen's latest state.
type Session struct {
	conn   *websocket.Conn
	screen screens.Screen
	info   ConnInfo
	hub    *Hub
	log    zerolog.Logger

	dirty   chan struct{}
	notices chan Frame
	done    chan struct{}
	once    sync.Once
}

func newSession(conn *websocket.Conn, screen screens.Screen, info ConnInfo, hub *Hub, log zerolog.Logger) *Session {
	s := &Session{
		conn:    conn,
		screen:  screen,
		info:    info,
		hub:     hub,
		log:     log.With().Str("conn_id", info.ConnID).Str("screen", info.Screen).Logger(),
		dirty:   make(chan struct{}, 1),
		notices: make(chan Frame, noticeBuffer),
		done:    make(chan struct{}),
	}
	screen.SetNotifier(viewsync.NotifierFunc(s.pushNotice))
	return s
}

// Close asks the writer to send a close frame and drop the connection, which
// in turn ends the reader. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *Session) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *Session) pushNotice(n viewsync.Notice) {
	s.push(Frame{Type: FrameNotice, Screen: s.info.Screen, Notice: &n})
}

func (s *Session) pushError(err error) {
	f := Frame{Type: FrameError, Screen: s.info.Screen, Error: err.Error()}
	var nf *viewsync.NotFoundError
	var lr *viewsync.LoginRequiredError
	switch {
	case errors.As(err, &nf):
		f.Redirect = nf.Redirect
	case errors.As(err, &lr):
		f.Redirect = lr.Redirect
	}
	s.push(f)
}

func (s *Session) push(f Frame) {
	select {
	case s.notices <- f:
	case <-s.done:
	default:
		s.log.Warn().Str("type", f.Type).Msg("notice buffer full, frame dropped")
	}
}

// readPump decodes actions from the peer and dispatches them to the screen.
func (s *Session) readPump(ctx context.Context) string {
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error { s.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Msg("websocket closed normally")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warn().Err(err).Msg("unexpected websocket close")
				s.hub.publishWSError(s, err)
			}
			return err.Error()
		}

		var action screens.Action
		if err := json.Unmarshal(message, &action); err != nil {
			s.log.Debug().Err(err).Msg("invalid action frame")
			s.pushError(errors.New("invalid action"))
			continue
		}
		if err := s.screen.Handle(ctx, action); err != nil {
			s.log.Debug().Err(err).Str("action", action.Type).Msg("action failed")
			s.pushError(err)
		}
	}
}

// writePump sends snapshots, notices and pings until the session closes.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.Close()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.flush()
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case f := <-s.notices:
			if err := s.write(f); err != nil {
				return
			}
		case <-s.dirty:
			if err := s.write(Frame{Type: FrameSnapshot, Screen: s.info.Screen, Data: s.screen.Snapshot()}); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// flush writes the notices queued before the session closed.
func (s *Session) flush() {
	for {
		select {
		case f := <-s.notices:
			if err := s.write(f); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(f Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		s.log.Error().Err(err).Str("type", f.Type).Msg("encode frame failed")
		return nil
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		s.log.Debug().Err(err).Msg("websocket write error")
		s.hub.publishWSError(s, err)
		return err
	}
	return nil
}
