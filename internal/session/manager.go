package session

import (
	"fmt"
	"net/url"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/gesture"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/swipereader/internal/shared/id"
	"github.com/GriffinCanCode/swipereader/internal/surface"
)

// Options configures a Manager.
type Options struct {
	// Origin is the site every layer path resolves against.
	Origin  string
	Gesture gesture.Config
	// Pool is the template for each session's surface pool.
	Pool    surface.Options
	Logger  *zap.Logger
	Metrics *monitoring.Metrics
}

// Summary describes a session in listings.
type Summary struct {
	ID        string    `json:"id"`
	Top       string    `json:"top"`
	Depth     int       `json:"depth"`
	Surfaces  int       `json:"surfaces"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager holds independent sessions sharing one surface driver.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	driver  surface.Driver
	origin  *url.URL
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// NewManager creates a manager opening surfaces through driver.
func NewManager(driver surface.Driver, opts Options) (*Manager, error) {
	origin, err := url.Parse(opts.Origin)
	if err != nil || !origin.IsAbs() {
		return nil, fmt.Errorf("invalid origin %q", opts.Origin)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Pool.Logger == nil {
		opts.Pool.Logger = opts.Logger
	}
	if opts.Pool.Metrics == nil {
		opts.Pool.Metrics = opts.Metrics
	}

	return &Manager{
		sessions: make(map[string]*Session),
		driver:   driver,
		origin:   origin,
		opts:     opts,
		logger:   opts.Logger.Named("session"),
		metrics:  opts.Metrics,
	}, nil
}

// Create starts a session showing rootPath.
func (m *Manager) Create(rootPath string) (*Session, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	m.mu.Unlock()

	pool := surface.NewPool(m.driver, m.opts.Pool)
	s, err := newSession(m.origin, rootPath, pool, m.opts.Gesture, m.logger, m.metrics)
	if err != nil {
		pool.Close()
		return nil, err
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		s.Close()
		return nil, ErrClosed
	}
	m.sessions[s.ID()] = s
	count := len(m.sessions)
	m.mu.Unlock()

	m.metrics.SetSessionsActive(count)
	m.logger.Info("Session created", zap.String("session", s.ID()), zap.String("path", rootPath))
	return s, nil
}

// Get returns a session by id.
func (m *Manager) Get(sid string) (*Session, error) {
	if !id.HasKind(sid, id.SessionPrefix) {
		return nil, fmt.Errorf("%w: malformed id %q", ErrSessionNotFound, sid)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sid]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	return s, nil
}

// Delete closes and removes a session.
func (m *Manager) Delete(sid string) error {
	m.mu.Lock()
	s, ok := m.sessions[sid]
	if ok {
		delete(m.sessions, sid)
	}
	count := len(m.sessions)
	m.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sid)
	}
	s.Close()
	m.metrics.SetSessionsActive(count)
	m.logger.Info("Session closed", zap.String("session", sid))
	return nil
}

// List returns summaries ordered by creation time.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.RUnlock()

	out := make([]Summary, 0, len(sessions))
	for _, s := range sessions {
		v := s.View()
		out = append(out, Summary{
			ID:        v.ID,
			Top:       v.Top.Path,
			Depth:     len(v.Past),
			Surfaces:  len(v.Surfaces),
			CreatedAt: v.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close closes every session. Later Create calls fail with ErrClosed.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Close()
		}()
	}
	wg.Wait()
	m.metrics.SetSessionsActive(0)
}
