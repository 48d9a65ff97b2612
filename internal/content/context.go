package content

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/document"
)

// ErrClosed is returned by operations on a closed content context.
var ErrClosed = errors.New("content context is closed")

// Defaults for Options fields left zero.
const (
	DefaultDelay           = 200 * time.Millisecond
	DefaultMaxDelay        = 1 * time.Second
	DefaultDispatchTimeout = 2 * time.Second
)

// Options configures a content context.
type Options struct {
	Rules           Rules
	Modules         []Module
	Delay           time.Duration
	MaxDelay        time.Duration
	DispatchTimeout time.Duration
	Clock           Clock
	Logger          *zap.Logger
	OnSuppressed    func(kind string)
}

func (o *Options) defaults() {
	if o.Modules == nil {
		o.Modules = DefaultModules()
	}
	if o.Delay <= 0 {
		o.Delay = DefaultDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.DispatchTimeout <= 0 {
		o.DispatchTimeout = DefaultDispatchTimeout
	}
	if o.Clock == nil {
		o.Clock = RealClock
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}

// Context is the content script of one surface. Each document generation is
// a separate page-context lifetime with its own registry, dispatcher VM and
// watches. Everything it owns runs on a single loop goroutine; the host
// reaches it only through posted envelopes and Dispatch.
type Context struct {
	doc    document.Document
	opts   Options
	logger *zap.Logger

	generation uint64
	lifetime   int
	dispatcher *Dispatcher
	watcher    *Watcher
	debouncer  *Debouncer
	emitter    *Emitter
	env        *Env

	mu       sync.Mutex
	registry *Registry
	tasks    []func()
	wake     chan struct{}
	latest   *goquery.Document
	closed   bool

	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
	closeOnce sync.Once
}

// New builds a content context over doc whose envelopes go to post. Call
// Start to begin observing.
func New(doc document.Document, post Poster, opts Options) (*Context, error) {
	opts.defaults()

	c := &Context{
		doc:        doc,
		opts:       opts,
		logger:     opts.Logger.With(zap.String("uri", doc.URI())),
		generation: doc.Generation(),
		registry:   NewRegistry(),
		debouncer:  NewDebouncer(opts.Clock),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	c.emitter = NewEmitter(post, c.registry, opts.OnSuppressed)
	c.env = &Env{
		Rules:     opts.Rules,
		Sanitizer: NewSanitizer(),
		Perform:   c.perform,
	}

	dispatcher, watcher, err := c.arm(c.registry)
	if err != nil {
		return nil, err
	}
	c.dispatcher, c.watcher = dispatcher, watcher
	return c, nil
}

// arm builds the per-lifetime dispatcher and watch set over registry.
func (c *Context) arm(registry *Registry) (*Dispatcher, *Watcher, error) {
	dispatcher, err := NewDispatcher(registry, c.opts.DispatchTimeout, c.console)
	if err != nil {
		return nil, nil, err
	}
	watcher := NewWatcher()
	for _, mod := range c.opts.Modules {
		if err := c.install(watcher, mod); err != nil {
			dispatcher.Close()
			return nil, nil, fmt.Errorf("install %s: %w", mod.ID(), err)
		}
	}
	return dispatcher, watcher, nil
}

// renew ends the current lifetime after the document loaded a new page.
// Handles minted for the old page stop resolving, the dedup state is
// dropped and one-shot watches are armed again.
func (c *Context) renew() error {
	registry := newLifetimeRegistry(c.lifetime + 1)
	dispatcher, watcher, err := c.arm(registry)
	if err != nil {
		return err
	}
	c.lifetime++

	c.mu.Lock()
	old := c.registry
	c.registry = registry
	c.mu.Unlock()

	c.dispatcher.Close()
	old.Close()
	c.dispatcher, c.watcher = dispatcher, watcher
	c.emitter.Reset(registry)

	c.logger.Debug("Page context renewed", zap.Int("lifetime", c.lifetime))
	return nil
}

func (c *Context) install(watcher *Watcher, mod Module) error {
	m, err := mod.Matcher(c.opts.Rules)
	if err != nil {
		return err
	}

	switch mod := mod.(type) {
	case Reactor:
		watcher.WatchOnce(m, func(node *goquery.Selection) {
			if err := mod.React(node, c.env); err != nil {
				c.diagnose("warn", mod.ID(), err)
			}
		})
	case Extractor:
		watcher.Watch(m, func(*goquery.Selection) {
			c.debouncer.Schedule(mod.ID(), c.opts.Delay, c.opts.MaxDelay, func() {
				c.enqueue(func() { c.extract(mod, m) })
			})
		})
	default:
		return fmt.Errorf("module %s neither extracts nor reacts", mod.ID())
	}
	return nil
}

// Start launches the loop. The first pass runs against the document as it is
// now. Start is idempotent.
func (c *Context) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

func (c *Context) run() {
	defer close(c.done)

	c.refresh()
	for {
		select {
		case <-c.ctx.Done():
			return
		case _, ok := <-c.doc.Changes():
			if !ok {
				return
			}
			c.refresh()
		case <-c.wake:
			c.drain()
		}
	}
}

// refresh snapshots the document and re-tests every watch against it. A
// generation change seen here starts a new lifetime first.
func (c *Context) refresh() {
	gen := c.doc.Generation()
	snap, err := c.doc.Snapshot(c.ctx)
	if err != nil {
		if !errors.Is(err, document.ErrClosed) && c.ctx.Err() == nil {
			c.diagnose("warn", "watcher", err)
		}
		return
	}
	if gen != c.generation {
		if err := c.renew(); err != nil {
			c.diagnose("error", "watcher", err)
			return
		}
		c.generation = gen
	}
	c.latest = snap
	c.watcher.Notify(snap)
}

func (c *Context) extract(mod Extractor, m Matcher) {
	if c.latest == nil {
		return
	}
	root := m.Match(c.latest)
	if root.Length() == 0 {
		return
	}

	payload, err := mod.Extract(root, c.env)
	if err != nil {
		c.diagnose("error", mod.ID(), err)
		return
	}
	posted, err := c.emitter.Emit(mod.Kind(), payload)
	if err != nil {
		c.diagnose("error", mod.ID(), err)
		return
	}
	if posted {
		c.logger.Debug("Emitted extraction", zap.String("module", mod.ID()), zap.String("kind", mod.Kind()))
	}
}

// Dispatch evaluates a host statement against the remote function registry
// on the loop and waits for it to finish.
func (c *Context) Dispatch(ctx context.Context, statement string) error {
	result := make(chan error, 1)
	if !c.enqueue(func() { result <- c.dispatcher.Run(ctx, statement) }) {
		return ErrClosed
	}

	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrClosed
	}
}

func (c *Context) enqueue(task func()) bool {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return false
	}
	c.tasks = append(c.tasks, task)
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
	return true
}

func (c *Context) drain() {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()

	for _, task := range tasks {
		task()
	}
}

func (c *Context) perform(action document.Action) error {
	return c.doc.Perform(c.ctx, action)
}

func (c *Context) console(level, message string) {
	if err := c.emitter.Diagnostic(level, "console", message); err != nil {
		c.logger.Warn("Failed to post console output", zap.Error(err))
	}
}

func (c *Context) diagnose(level, module string, err error) {
	c.logger.Debug("Content diagnostic", zap.String("module", module), zap.Error(err))
	if perr := c.emitter.Diagnostic(level, module, err.Error()); perr != nil {
		c.logger.Warn("Failed to post diagnostic", zap.Error(perr))
	}
}

// Registry exposes the remote function registry of the current lifetime.
func (c *Context) Registry() *Registry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.registry
}

// Close ends the lifetime: pending extractions are dropped and registered
// closures become unreachable. The document itself is left to its owner.
func (c *Context) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.tasks = nil
		c.mu.Unlock()

		c.cancel()
		c.debouncer.Close()
		c.startOnce.Do(func() { close(c.done) })
		<-c.done
		c.dispatcher.Close()
		c.Registry().Close()
	})
}
