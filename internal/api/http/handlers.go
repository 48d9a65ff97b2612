package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/gesture"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/session"
	"github.com/GriffinCanCode/swipereader/internal/shared/utils"
	"github.com/GriffinCanCode/swipereader/internal/surface"
)

// InvokeTimeout bounds a capability round trip into a surface.
const InvokeTimeout = 5 * time.Second

// Handlers contains all HTTP handlers.
type Handlers struct {
	sessions *session.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
	started  time.Time
}

// NewHandlers creates a handler set.
func NewHandlers(sessions *session.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		sessions: sessions,
		metrics:  metrics,
		logger:   logger.Named("api"),
		started:  time.Now(),
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	r.GET("/metrics/json", h.MetricsJSON)

	r.GET("/sessions", h.ListSessions)
	r.POST("/sessions", h.CreateSession)

	s := r.Group("/sessions/:id")
	s.GET("", h.GetSession)
	s.DELETE("", h.DeleteSession)
	s.POST("/push", h.Push)
	s.POST("/replace", h.Replace)
	s.POST("/reload", h.Reload)
	s.POST("/forward", h.Forward)
	s.POST("/backward", h.Backward)
	s.POST("/gesture", h.Gesture)
	s.POST("/gesture/settle", h.Settle)
	s.GET("/surfaces/:key", h.GetSurface)
	s.POST("/surfaces/:key/invoke", h.Invoke)
}

// Root reports service identity.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "swipereader",
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.sessions.Len(),
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	})
}

type pathRequest struct {
	Path         string `json:"path"`
	ReuseSurface string `json:"reuse_surface"`
}

// CreateSession starts a navigator at the requested path.
func (h *Handlers) CreateSession(c *gin.Context) {
	defer h.track(c, "create_session")()

	req := pathRequest{Path: "/"}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
	}
	if err := utils.ValidatePath(req.Path); err != nil {
		badRequest(c, err)
		return
	}

	s, err := h.sessions.Create(req.Path)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.View())
}

// ListSessions lists session summaries.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.sessions.List()})
}

// GetSession returns a session's navigation view.
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.View())
}

// DeleteSession closes a session and its surfaces.
func (h *Handlers) DeleteSession(c *gin.Context) {
	defer h.track(c, "delete_session")()

	if err := h.sessions.Delete(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Push opens a path on a new layer.
func (h *Handlers) Push(c *gin.Context) {
	s, req, ok := h.pathRequest(c)
	if !ok {
		return
	}
	if req.ReuseSurface != "" {
		if err := utils.ValidateID(req.ReuseSurface, "reuse_surface"); err != nil {
			badRequest(c, err)
			return
		}
	}
	v, err := s.Push(req.Path, req.ReuseSurface)
	h.respond(c, v, true, err)
}

// Replace swaps the top layer.
func (h *Handlers) Replace(c *gin.Context) {
	s, req, ok := h.pathRequest(c)
	if !ok {
		return
	}
	v, err := s.Replace(req.Path)
	h.respond(c, v, true, err)
}

// Reload recreates the top layer's surface.
func (h *Handlers) Reload(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, err := s.Reload()
	h.respond(c, v, true, err)
}

// Forward redoes a backward move.
func (h *Handlers) Forward(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, moved, err := s.Forward()
	h.respond(c, v, moved, err)
}

// Backward reveals the previous layer.
func (h *Handlers) Backward(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, moved, err := s.Backward()
	h.respond(c, v, moved, err)
}

type gestureRequest struct {
	Phase   string  `json:"phase" binding:"required,oneof=down move up cancel"`
	TouchID int     `json:"touch_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	TimeMS  int64   `json:"t_ms"`
}

// Gesture feeds one touch event to the recognizer.
func (h *Handlers) Gesture(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	var req gestureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	p := gesture.Point{X: req.X, Y: req.Y}
	t := time.Duration(req.TimeMS) * time.Millisecond

	switch req.Phase {
	case "down":
		st, armed, err := s.GestureDown(req.TouchID, p, t)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"gesture": st, "armed": armed})
	case "move":
		st, err := s.GestureMove(req.TouchID, p, t)
		if err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"gesture": st})
	case "up":
		r, resolved, err := s.GestureUp(req.TouchID, p, t)
		if err != nil {
			h.fail(c, err)
			return
		}
		body := gin.H{"resolved": resolved}
		if resolved {
			body["resolution"] = r
		}
		c.JSON(http.StatusOK, body)
	case "cancel":
		if err := s.GestureCancel(); err != nil {
			h.fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"cancelled": true})
	}
}

// Settle completes a resolved gesture's transition.
func (h *Handlers) Settle(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	v, r, committed, err := s.GestureSettle()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"committed":  committed,
		"resolution": r,
		"navigation": v,
	})
}

// GetSurface returns a surface's observer state.
func (h *Handlers) GetSurface(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	snap, err := s.Surface(c.Param("key"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

type invokeRequest struct {
	Capability string `json:"capability" binding:"required"`
	Args       []any  `json:"args"`
}

// Invoke calls a capability inside a surface. Stale capabilities are
// accepted and ignored.
func (h *Handlers) Invoke(c *gin.Context) {
	defer h.track(c, "invoke")()

	s, ok := h.session(c)
	if !ok {
		return
	}
	var req invokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateCapability(req.Capability); err != nil {
		badRequest(c, err)
		return
	}
	if err := utils.ValidateArgs(req.Args); err != nil {
		badRequest(c, err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), InvokeTimeout)
	defer cancel()
	if err := s.Invoke(ctx, c.Param("key"), req.Capability, req.Args...); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"invoked": req.Capability})
}

func (h *Handlers) session(c *gin.Context) (*session.Session, bool) {
	s, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return s, true
}

func (h *Handlers) pathRequest(c *gin.Context) (*session.Session, pathRequest, bool) {
	s, ok := h.session(c)
	if !ok {
		return nil, pathRequest{}, false
	}
	var req pathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return nil, req, false
	}
	if err := utils.ValidatePath(req.Path); err != nil {
		badRequest(c, err)
		return nil, req, false
	}
	return s, req, true
}

func (h *Handlers) respond(c *gin.Context, v session.View, moved bool, err error) {
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"moved": moved, "navigation": v})
}

// fail maps domain errors to status codes.
func (h *Handlers) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, surface.ErrSurfaceNotFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidPath):
		status = http.StatusBadRequest
	case errors.Is(err, session.ErrClosed):
		status = http.StatusGone
	case errors.Is(err, surface.ErrNotReady):
		status = http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
