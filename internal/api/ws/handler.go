package ws

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/session"
)

const (
	writeWait    = 10 * time.Second
	pongWait     = 60 * time.Second
	pingPeriod   = pongWait * 9 / 10
	sendBuffer   = 64
	maxReadBytes = 4096
)

// Handler manages WebSocket connections.
type Handler struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates a WebSocket handler.
func NewHandler(sessions *session.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger.Named("ws"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type message struct {
	Type       string        `json:"type"`
	Subscriber string        `json:"subscriber,omitempty"`
	Session    string        `json:"session,omitempty"`
	Navigation *session.View `json:"navigation,omitempty"`
	Message    string        `json:"message,omitempty"`
	Timestamp  int64         `json:"timestamp"`
}

// HandleConnection upgrades and streams events for the session in :id.
func (h *Handler) HandleConnection(c *gin.Context) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	sub := uuid.NewString()
	logger := h.logger.With(zap.String("subscriber", sub), zap.String("session", s.ID()))
	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	out := make(chan any, sendBuffer)
	cancel := s.Listen(func(ev session.Event) {
		select {
		case out <- ev:
		default:
			h.metrics.RecordWSMessage("out", "dropped")
		}
	})
	defer cancel()

	view := s.View()
	out <- message{Type: "hello", Subscriber: sub, Session: s.ID(), Timestamp: time.Now().Unix()}
	out <- session.Event{Type: session.EventNavigation, Session: s.ID(), Navigation: &view}

	done := make(chan struct{})
	go h.readLoop(conn, out, done, logger)
	h.writeLoop(conn, out, done, logger)
	logger.Debug("WebSocket closed")
}

// readLoop answers pings and detects disconnects. It closes done on exit.
func (h *Handler) readLoop(conn *websocket.Conn, out chan<- any, done chan<- struct{}, logger *zap.Logger) {
	defer close(done)

	conn.SetReadLimit(maxReadBytes)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg message
		if err := conn.ReadJSON(&msg); err != nil {
			var closeErr *websocket.CloseError
			if !errors.As(err, &closeErr) {
				logger.Debug("WebSocket read error", zap.Error(err))
			}
			return
		}
		h.metrics.RecordWSMessage("in", msg.Type)

		reply := message{Type: "pong", Timestamp: time.Now().Unix()}
		if msg.Type != "ping" {
			reply = message{Type: "error", Message: "unknown message type", Timestamp: time.Now().Unix()}
		}
		select {
		case out <- reply:
		default:
		}
	}
}

func (h *Handler) writeLoop(conn *websocket.Conn, out <-chan any, done <-chan struct{}, logger *zap.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			return
		case v := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(v); err != nil {
				logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}
			h.metrics.RecordWSMessage("out", kindOf(v))
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func kindOf(v any) string {
	switch m := v.(type) {
	case session.Event:
		return m.Type
	case message:
		return m.Type
	default:
		return "unknown"
	}
}
