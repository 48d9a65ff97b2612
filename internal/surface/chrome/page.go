package chrome

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/GriffinCanCode/swipereader/internal/document"
)

const changedBinding = "__swipeChanged"

// observerScript batches subtree mutations into one binding call per tick.
const observerScript = `(() => {
	if (window.__swipeObserver) return;
	let pending = false;
	const fire = () => {
		if (pending) return;
		pending = true;
		setTimeout(() => { pending = false; window.` + changedBinding + `(); }, 16);
	};
	const start = () => {
		window.__swipeObserver = new MutationObserver(fire);
		window.__swipeObserver.observe(document.documentElement, {
			childList: true, subtree: true, attributes: true, characterData: true,
		});
		fire();
	};
	if (document.documentElement) start();
	else document.addEventListener('DOMContentLoaded', start);
})();`

// Page adapts a rod page to document.Document.
type Page struct {
	uri        string
	page       *rod.Page
	actTimeout time.Duration
	changes    chan struct{}
	generation atomic.Uint64

	mu        sync.Mutex
	stop      []func() error
	closed    bool
	closeOnce sync.Once
}

func newPage(uri string, page *rod.Page, actTimeout time.Duration) *Page {
	return &Page{
		uri:        uri,
		page:       page,
		actTimeout: actTimeout,
		changes:    make(chan struct{}, 1),
	}
}

// observe exposes the change binding and installs the observer on every
// document the page loads.
func (p *Page) observe() error {
	stopExpose, err := p.page.Expose(changedBinding, func(gson.JSON) (interface{}, error) {
		p.notify()
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("expose change binding: %w", err)
	}
	removeScript, err := p.page.EvalOnNewDocument(observerScript)
	if err != nil {
		_ = stopExpose()
		return fmt.Errorf("install observer: %w", err)
	}

	p.mu.Lock()
	p.stop = append(p.stop, removeScript, stopExpose)
	p.mu.Unlock()
	return nil
}

// trackNavigations advances the generation whenever the top frame commits a
// new document. Call it after the initial load so that load is generation 0.
func (p *Page) trackNavigations() {
	ctx, cancel := context.WithCancel(context.Background())
	wait := p.page.Context(ctx).EachEvent(func(ev *proto.PageFrameNavigated) {
		if ev.Frame == nil || ev.Frame.ParentID != "" {
			return
		}
		p.generation.Add(1)
		p.notify()
	})
	go wait()

	p.mu.Lock()
	p.stop = append(p.stop, func() error {
		cancel()
		return nil
	})
	p.mu.Unlock()
}

func (p *Page) notify() {
	select {
	case p.changes <- struct{}{}:
	default:
	}
}

func (p *Page) URI() string { return p.uri }

func (p *Page) Changes() <-chan struct{} { return p.changes }

func (p *Page) Generation() uint64 { return p.generation.Load() }

// Snapshot serializes the live DOM and parses it.
func (p *Page) Snapshot(ctx context.Context) (*goquery.Document, error) {
	if p.isClosed() {
		return nil, document.ErrClosed
	}
	markup, err := p.page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("read page html: %w", err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

// Perform dispatches a real input event or scroll on the first match.
func (p *Page) Perform(ctx context.Context, action document.Action) error {
	if p.isClosed() {
		return document.ErrClosed
	}
	page := p.page.Context(ctx).Timeout(p.actTimeout)

	has, el, err := page.Has(action.Selector)
	if err != nil {
		return fmt.Errorf("find %s: %w", action.Selector, err)
	}
	if !has {
		return fmt.Errorf("%w: %s", document.ErrNoMatch, action.Selector)
	}

	switch action.Type {
	case document.ActionClick:
		return el.Click(proto.InputMouseButtonLeft, 1)
	case document.ActionScrollTo:
		return el.ScrollIntoView()
	default:
		return fmt.Errorf("%w: %s", document.ErrUnsupportedAction, action.Type)
	}
}

func (p *Page) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Close removes the observer and closes the tab.
func (p *Page) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		stops := p.stop
		p.stop = nil
		p.mu.Unlock()

		for _, stop := range stops {
			_ = stop()
		}
		err = p.page.Close()
	})
	return err
}
