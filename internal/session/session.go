// Package session coordinates one navigation stack with its surface pool,
// gesture recognizer and per-surface observer state.
//
// A Session's mutex is its UI event loop: every navigation and gesture
// operation runs under it, and the pool collect pass always follows the
// stack mutation it belongs to.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/bridge"
	"github.com/GriffinCanCode/swipereader/internal/gesture"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/navigation"
	"github.com/GriffinCanCode/swipereader/internal/shared/id"
	"github.com/GriffinCanCode/swipereader/internal/surface"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrClosed          = errors.New("session is closed")
	ErrInvalidPath     = errors.New("invalid path")
)

// Event types pushed to listeners.
const (
	EventNavigation = "navigation"
	EventState      = "state"
)

// Event is a change notification for presentation clients.
type Event struct {
	Type       string           `json:"type"`
	Session    string           `json:"session"`
	Navigation *View            `json:"navigation,omitempty"`
	State      *bridge.Snapshot `json:"state,omitempty"`
}

// View is a snapshot of a session's navigation.
type View struct {
	ID         string              `json:"id"`
	Past       []*navigation.Layer `json:"past"`
	Future     []*navigation.Layer `json:"future"`
	Top        *navigation.Layer   `json:"top"`
	CanBack    bool                `json:"can_back"`
	CanForward bool                `json:"can_forward"`
	Gesture    gesture.State       `json:"gesture"`
	Surfaces   []surface.Info      `json:"surfaces"`
	CreatedAt  time.Time           `json:"created_at"`
}

type tracked struct {
	state  *bridge.State
	cancel []func()
}

// Session is one presentation client's navigator.
type Session struct {
	id        id.SessionID
	origin    *url.URL
	createdAt time.Time
	logger    *zap.Logger
	metrics   *monitoring.Metrics

	mu      sync.Mutex
	closed  bool
	stack   *navigation.Stack
	pool    *surface.Pool
	gesture *gesture.Controller
	states  map[string]*tracked

	lmu       sync.Mutex
	listeners map[int]func(Event)
	seq       int
}

func newSession(origin *url.URL, rootPath string, pool *surface.Pool, cfg gesture.Config, logger *zap.Logger, metrics *monitoring.Metrics) (*Session, error) {
	if _, err := Resolve(origin, rootPath); err != nil {
		return nil, err
	}

	sid := id.NewSessionID()
	s := &Session{
		id:        sid,
		origin:    origin,
		createdAt: time.Now(),
		logger:    logger.With(zap.String("session", sid.String())),
		metrics:   metrics,
		stack:     navigation.New(rootPath, nil),
		pool:      pool,
		gesture:   gesture.NewController(cfg),
		states:    make(map[string]*tracked),
		listeners: make(map[int]func(Event)),
	}

	s.mu.Lock()
	s.syncLocked()
	s.mu.Unlock()
	return s, nil
}

// ID returns the session id.
func (s *Session) ID() string { return s.id.String() }

// Push opens path on a new layer, or on reuseSurface when non-empty.
func (s *Session) Push(path, reuseSurface string) (View, error) {
	return s.mutate("push", path, func() bool {
		s.stack.PushPath(path, reuseSurface)
		return true
	})
}

// Replace swaps the top layer for path.
func (s *Session) Replace(path string) (View, error) {
	return s.mutate("replace", path, func() bool {
		s.stack.Replace(path)
		return true
	})
}

// Reload recreates the top layer's surface.
func (s *Session) Reload() (View, error) {
	return s.mutate("reload", "", func() bool {
		s.stack.Reload()
		return true
	})
}

// Forward redoes the most recent backward move. At the end of history it is
// a no-op and the returned bool is false.
func (s *Session) Forward() (View, bool, error) {
	moved := false
	v, err := s.mutate("forward", "", func() bool {
		_, moved = s.stack.Forward()
		return moved
	})
	return v, moved, err
}

// Backward reveals the previous layer. At the root it is a no-op and the
// returned bool is false.
func (s *Session) Backward() (View, bool, error) {
	moved := false
	v, err := s.mutate("backward", "", func() bool {
		_, moved = s.stack.Backward()
		return moved
	})
	return v, moved, err
}

// mutate runs one stack operation on the loop, then acquires and collects.
func (s *Session) mutate(op, path string, fn func() bool) (View, error) {
	if path != "" {
		if _, err := Resolve(s.origin, path); err != nil {
			return View{}, err
		}
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, ErrClosed
	}
	committed := fn()
	if committed {
		s.gesture.Cancel()
		s.syncLocked()
	}
	v := s.viewLocked()
	s.mu.Unlock()

	s.metrics.NavigationOp(op, committed)
	if committed {
		s.logger.Debug("Navigation committed", zap.String("op", op), zap.String("top", v.Top.Path))
		s.broadcast(Event{Type: EventNavigation, Session: s.ID(), Navigation: &v})
	}
	return v, nil
}

// syncLocked makes every layer's surface live, then collects the rest.
func (s *Session) syncLocked() {
	live := s.stack.LiveKeys()
	layers := append(s.stack.Past(), s.stack.Future()...)
	for _, l := range layers {
		if _, ok := s.states[l.SurfaceKey]; ok {
			continue
		}
		uri, err := Resolve(s.origin, l.Path)
		if err != nil {
			// Paths are validated before they reach the stack.
			s.logger.Error("Unresolvable layer path", zap.String("path", l.Path), zap.Error(err))
			continue
		}
		s.track(l.SurfaceKey, uri)
	}

	for _, key := range s.pool.CollectUnreferenced(live) {
		s.untrack(key)
	}
	for key := range s.states {
		if !slices.Contains(live, key) {
			s.untrack(key)
		}
	}
}

func (s *Session) track(key, uri string) {
	st := bridge.NewState(key)
	t := &tracked{state: st}

	if cancel, err := s.pool.Open(key, uri, st); err == nil {
		t.cancel = append(t.cancel, cancel)
	}
	t.cancel = append(t.cancel, st.Listen(func(snap bridge.Snapshot) {
		s.broadcast(Event{Type: EventState, Session: s.ID(), State: &snap})
	}))
	s.states[key] = t
}

func (s *Session) untrack(key string) {
	t, ok := s.states[key]
	if !ok {
		return
	}
	for _, cancel := range t.cancel {
		cancel()
	}
	delete(s.states, key)
}

// GestureDown starts a gesture. It reports whether the controller armed.
func (s *Session) GestureDown(touch int, p gesture.Point, t time.Duration) (gesture.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gesture.State{}, false, ErrClosed
	}

	armed := s.gesture.Down(touch, p, t, gesture.Bounds{
		CanBack:    s.stack.CanBack(),
		CanForward: s.stack.CanForward(),
		Layer:      s.stack.Top().ID.String(),
	})
	if armed {
		s.metrics.Gesture("armed")
	}
	return s.gesture.State(), armed, nil
}

// GestureMove feeds a touch sample.
func (s *Session) GestureMove(touch int, p gesture.Point, t time.Duration) (gesture.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gesture.State{}, ErrClosed
	}
	s.gesture.Move(touch, p, t)
	return s.gesture.State(), nil
}

// GestureUp releases the driving touch. The history is not touched until
// GestureSettle.
func (s *Session) GestureUp(touch int, p gesture.Point, t time.Duration) (gesture.Resolution, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return gesture.Resolution{}, false, ErrClosed
	}
	r, ok := s.gesture.Up(touch, p, t)
	return r, ok, nil
}

// GestureCancel abandons the current gesture.
func (s *Session) GestureCancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.gesture.Phase() != gesture.Idle {
		s.metrics.Gesture("cancel")
	}
	s.gesture.Cancel()
	return nil
}

// GestureSettle completes the transition animation. A committing resolution
// moves history, provided the layer the gesture started on is still on top.
func (s *Session) GestureSettle() (View, gesture.Resolution, bool, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return View{}, gesture.Resolution{}, false, ErrClosed
	}

	r, ok := s.gesture.Settle()
	committed := false
	if ok && r.Commit && r.Layer == s.stack.Top().ID.String() {
		switch r.Direction {
		case gesture.Backward:
			_, committed = s.stack.Backward()
		case gesture.Forward:
			_, committed = s.stack.Forward()
		}
	}
	if committed {
		s.syncLocked()
	}
	v := s.viewLocked()
	s.mu.Unlock()

	if !ok {
		return v, r, false, nil
	}
	if committed {
		s.metrics.Gesture("commit")
		s.metrics.NavigationOp(r.Direction.String(), true)
		s.broadcast(Event{Type: EventNavigation, Session: s.ID(), Navigation: &v})
	} else {
		s.metrics.Gesture("cancel")
	}
	return v, r, committed, nil
}

// View returns the current navigation snapshot.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() View {
	v := View{
		ID:         s.ID(),
		Past:       s.stack.Past(),
		Future:     s.stack.Future(),
		Top:        s.stack.Top(),
		CanBack:    s.stack.CanBack(),
		CanForward: s.stack.CanForward(),
		Gesture:    s.gesture.State(),
		CreatedAt:  s.createdAt,
	}
	for _, key := range s.pool.Keys() {
		if info, ok := s.pool.Info(key); ok {
			v.Surfaces = append(v.Surfaces, info)
		}
	}
	return v
}

// Surface returns the observer state of a live surface.
func (s *Session) Surface(key string) (bridge.Snapshot, error) {
	s.mu.Lock()
	t, ok := s.states[key]
	s.mu.Unlock()
	if !ok {
		return bridge.Snapshot{}, fmt.Errorf("%w: %s", surface.ErrSurfaceNotFound, key)
	}
	return t.state.Snapshot(), nil
}

// Invoke calls a capability on a surface. Capabilities of collected
// surfaces are silently ignored.
func (s *Session) Invoke(ctx context.Context, key, capability string, args ...any) error {
	return s.pool.Invoke(ctx, key, capability, args...)
}

// Listen registers fn for session events. fn runs on surface goroutines and
// must not block or call back into the session's navigation methods.
func (s *Session) Listen(fn func(Event)) (cancel func()) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.seq++
	n := s.seq
	s.listeners[n] = fn
	return func() {
		s.lmu.Lock()
		defer s.lmu.Unlock()
		delete(s.listeners, n)
	}
}

func (s *Session) broadcast(ev Event) {
	s.lmu.Lock()
	fns := make([]func(Event), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.lmu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Close tears down every surface. It is idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.gesture.Cancel()
	for key := range s.states {
		s.untrack(key)
	}
	s.mu.Unlock()

	s.pool.Close()

	s.lmu.Lock()
	s.listeners = make(map[int]func(Event))
	s.lmu.Unlock()
}

// Resolve turns a layer path, query included, into an absolute URI on
// origin. Absolute paths must stay on origin's host.
func Resolve(origin *url.URL, path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
	}
	if ref.IsAbs() && ref.Host != origin.Host {
		return "", fmt.Errorf("%w: %q leaves %s", ErrInvalidPath, path, origin.Host)
	}
	return origin.ResolveReference(ref).String(), nil
}
