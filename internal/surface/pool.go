package surface

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/bridge"
	"github.com/GriffinCanCode/swipereader/internal/content"
	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
)

var (
	ErrSurfaceNotFound = errors.New("surface not found")
	ErrNotReady        = bridge.ErrNotReady
	ErrPoolClosed      = errors.New("surface pool is closed")
)

// Driver opens documents for surfaces. Drivers are shared between pools and
// must be safe for concurrent use.
type Driver interface {
	Open(ctx context.Context, uri string) (document.Document, error)
}

// Options configures a Pool.
type Options struct {
	// Content is the template for every surface's content context. Rules is
	// replaced by RuleSource when that is set.
	Content    content.Options
	RuleSource func() content.Rules
	Logger     *zap.Logger
	Metrics    *monitoring.Metrics
}

// Pool owns the live surfaces of one navigation stack.
type Pool struct {
	mu      sync.Mutex
	entries map[string]*Entry
	closed  bool

	driver  Driver
	router  *bridge.Router
	opts    Options
	logger  *zap.Logger
	metrics *monitoring.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates an empty pool over driver.
func NewPool(driver Driver, opts Options) *Pool {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	p := &Pool{
		entries: make(map[string]*Entry),
		driver:  driver,
		opts:    opts,
		logger:  opts.Logger.Named("pool"),
		metrics: opts.Metrics,
	}
	p.ctx, p.cancel = context.WithCancel(context.Background())
	p.router = bridge.NewRouter(p, opts.Logger, opts.Metrics)
	return p
}

// Acquire creates the entry for key if it does not exist. It reports whether
// a new entry was created.
func (p *Pool) Acquire(key, uri string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	if _, ok := p.entries[key]; ok {
		return false
	}
	p.startLocked(newEntry(p, key, uri))
	return true
}

// Open acquires key and subscribes obs to it. A new surface only starts once
// obs is in place, so its first envelopes and open failures reach obs.
func (p *Pool) Open(key, uri string, obs bridge.Observer) (cancel func(), err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPoolClosed
	}
	if e, ok := p.entries[key]; ok {
		return e.subscribe(obs), nil
	}
	e := newEntry(p, key, uri)
	cancel = e.subscribe(obs)
	p.startLocked(e)
	return cancel, nil
}

func (p *Pool) startLocked(e *Entry) {
	key, uri := e.key, e.uri
	p.entries[key] = e
	p.metrics.SurfaceAcquired()
	p.logger.Debug("Surface acquired", zap.String("surface", key), zap.String("uri", uri))

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		e.run()
	}()
}

// Subscribe adds an observer to the surface key.
func (p *Pool) Subscribe(key string, obs bridge.Observer) (cancel func(), err error) {
	p.mu.Lock()
	e, ok := p.entries[key]
	p.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSurfaceNotFound, key)
	}
	return e.subscribe(obs), nil
}

// CollectUnreferenced removes every entry whose key is not in live and
// returns the removed keys in sorted order. Teardown happens in the
// background.
func (p *Pool) CollectUnreferenced(live []string) []string {
	keep := make(map[string]struct{}, len(live))
	for _, k := range live {
		keep[k] = struct{}{}
	}

	p.mu.Lock()
	var removed []*Entry
	for key, e := range p.entries {
		if _, ok := keep[key]; !ok {
			delete(p.entries, key)
			removed = append(removed, e)
		}
	}
	p.mu.Unlock()

	keys := p.teardown(removed)
	if len(keys) > 0 {
		p.logger.Debug("Collected surfaces", zap.Strings("surfaces", keys))
	}
	return keys
}

func (p *Pool) teardown(entries []*Entry) []string {
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		keys = append(keys, e.key)
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			e.close()
		}()
	}
	sort.Strings(keys)
	p.metrics.SurfacesCollectedN(len(keys))
	return keys
}

// Lookup implements bridge.Directory.
func (p *Pool) Lookup(key string) (bridge.Target, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.entries[key]
	if !ok {
		return nil, false
	}
	return e, true
}

// Invoke calls a capability on surface key. A collected key is a no-op.
func (p *Pool) Invoke(ctx context.Context, key, name string, args ...any) error {
	return p.router.Invoke(ctx, key, name, args...)
}

// Info describes a live entry.
func (p *Pool) Info(key string) (Info, bool) {
	p.mu.Lock()
	e, ok := p.entries[key]
	p.mu.Unlock()
	if !ok {
		return Info{}, false
	}
	return e.info(), true
}

// Keys returns the live keys in sorted order.
func (p *Pool) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]string, 0, len(p.entries))
	for k := range p.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of live entries.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Close tears down every entry and waits for all surface goroutines.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	entries := make([]*Entry, 0, len(p.entries))
	for key, e := range p.entries {
		entries = append(entries, e)
		delete(p.entries, key)
	}
	p.mu.Unlock()

	p.cancel()
	p.teardown(entries)
	p.wg.Wait()
}

// contentOptions builds the content options for a new surface.
func (p *Pool) contentOptions() content.Options {
	opts := p.opts.Content
	if p.opts.RuleSource != nil {
		opts.Rules = p.opts.RuleSource()
	}
	if opts.Logger == nil {
		opts.Logger = p.opts.Logger.Named("content")
	}
	if opts.OnSuppressed == nil {
		opts.OnSuppressed = p.metrics.EmissionSuppressed
	}
	return opts
}

// Status is the lifecycle state of an entry.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusFailed  Status = "failed"
	StatusClosed  Status = "closed"
)

// Info is a read-only view of an entry.
type Info struct {
	Key       string    `json:"key"`
	URI       string    `json:"uri"`
	Status    Status    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
