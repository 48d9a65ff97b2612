package surface

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/bridge"
	"github.com/GriffinCanCode/swipereader/internal/content"
	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// Entry is one live surface: a document, its content context and the
// observers of its messages.
type Entry struct {
	pool      *Pool
	key       string
	uri       string
	createdAt time.Time

	mu        sync.Mutex
	observers map[int]bridge.Observer
	seq       int
	status    Status
	err       error
	script    *content.Context

	inboxMu sync.Mutex
	inbox   [][]byte
	signal  chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func newEntry(p *Pool, key, uri string) *Entry {
	e := &Entry{
		pool:      p,
		key:       key,
		uri:       uri,
		createdAt: time.Now(),
		observers: make(map[int]bridge.Observer),
		status:    StatusLoading,
		signal:    make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	e.ctx, e.cancel = context.WithCancel(p.ctx)
	return e
}

// run opens the document, starts the content context and pumps its
// envelopes to the router until the entry is closed.
func (e *Entry) run() {
	defer close(e.done)
	logger := e.pool.logger.With(zap.String("surface", e.key))

	doc, err := e.pool.driver.Open(e.ctx, e.uri)
	if err != nil {
		if e.ctx.Err() == nil {
			logger.Warn("Failed to open surface", zap.String("uri", e.uri), zap.Error(err))
			e.fail(err)
		}
		<-e.ctx.Done()
		return
	}
	defer doc.Close()

	script, err := content.New(doc, e.post, e.pool.contentOptions())
	if err != nil {
		logger.Warn("Failed to start content script", zap.Error(err))
		e.fail(err)
		<-e.ctx.Done()
		return
	}
	defer script.Close()

	e.mu.Lock()
	e.script = script
	e.status = StatusReady
	e.mu.Unlock()
	script.Start()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.signal:
			for _, raw := range e.drain() {
				if e.ctx.Err() != nil {
					return
				}
				e.pool.router.Deliver(e.key, raw)
			}
		}
	}
}

// fail records err and reports it to observers as a diagnostic.
func (e *Entry) fail(err error) {
	e.mu.Lock()
	e.status, e.err = StatusFailed, err
	e.mu.Unlock()

	data, merr := sonic.ConfigStd.Marshal(types.Diagnostic{Level: "error", Module: "surface", Message: err.Error()})
	if merr != nil {
		return
	}
	raw, merr := sonic.ConfigStd.Marshal(types.Envelope{Kind: types.KindDiagnostic, Data: data})
	if merr != nil {
		return
	}
	e.pool.router.Deliver(e.key, raw)
}

// post is the content context's Poster. It never blocks the page side.
func (e *Entry) post(raw []byte) {
	e.inboxMu.Lock()
	e.inbox = append(e.inbox, raw)
	e.inboxMu.Unlock()

	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *Entry) drain() [][]byte {
	e.inboxMu.Lock()
	defer e.inboxMu.Unlock()
	batch := e.inbox
	e.inbox = nil
	return batch
}

// Inject implements types.Injector by running statement in the content
// context.
func (e *Entry) Inject(ctx context.Context, statement string) error {
	e.mu.Lock()
	script := e.script
	e.mu.Unlock()

	if script == nil {
		return fmt.Errorf("%w: %s", ErrNotReady, e.key)
	}
	return script.Dispatch(ctx, statement)
}

// Observers implements bridge.Target.
func (e *Entry) Observers() []bridge.Observer {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]int, 0, len(e.observers))
	for id := range e.observers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]bridge.Observer, 0, len(ids))
	for _, id := range ids {
		out = append(out, e.observers[id])
	}
	return out
}

func (e *Entry) subscribe(obs bridge.Observer) func() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	id := e.seq
	e.observers[id] = obs
	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.observers, id)
	}
}

func (e *Entry) info() Info {
	e.mu.Lock()
	defer e.mu.Unlock()

	info := Info{Key: e.key, URI: e.uri, Status: e.status, CreatedAt: e.createdAt}
	if e.err != nil {
		info.Error = e.err.Error()
	}
	return info
}

func (e *Entry) close() {
	e.cancel()
	<-e.done

	e.mu.Lock()
	e.status = StatusClosed
	e.script = nil
	e.mu.Unlock()
}
