package document

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ActionHandler applies an action to a static document. Handlers usually
// call Mutate or Replace to reflect the action's effect.
type ActionHandler func(ctx context.Context, doc *Static, action Action) error

// Static is an in-process document tree.
type Static struct {
	uri     string
	mu      sync.RWMutex
	root    *html.Node
	handler ActionHandler
	changes chan struct{}
	gen     uint64
	closed  bool
}

// NewStatic wraps a parsed tree.
func NewStatic(uri string, root *html.Node) *Static {
	return &Static{
		uri:     uri,
		root:    root,
		changes: make(chan struct{}, 1),
	}
}

// ParseStatic parses UTF-8 HTML from r.
func ParseStatic(uri string, r io.Reader) (*Static, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return NewStatic(uri, root), nil
}

// MustParseStatic parses markup and panics on failure.
func MustParseStatic(uri, markup string) *Static {
	doc, err := ParseStatic(uri, strings.NewReader(markup))
	if err != nil {
		panic(err)
	}
	return doc
}

// URI returns the document address.
func (s *Static) URI() string { return s.uri }

// OnAction installs the handler used by Perform.
func (s *Static) OnAction(h ActionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = h
}

// Snapshot returns a deep copy of the current tree.
func (s *Static) Snapshot(ctx context.Context) (*goquery.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, s.root); err != nil {
		return nil, fmt.Errorf("render snapshot: %w", err)
	}
	return goquery.NewDocumentFromReader(&buf)
}

// Changes returns the coalescing change channel.
func (s *Static) Changes() <-chan struct{} { return s.changes }

// Generation returns the number of Replace calls so far.
func (s *Static) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Mutate edits the tree in place and signals a change.
func (s *Static) Mutate(fn func(doc *goquery.Document)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	fn(goquery.NewDocumentFromNode(s.root))
	s.mu.Unlock()

	s.notify()
	return nil
}

// Replace swaps the whole tree for markup, as when the page navigates, and
// starts a new generation.
func (s *Static) Replace(markup string) error {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("parse replacement: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.root = root
	s.gen++
	s.mu.Unlock()

	s.notify()
	return nil
}

// Perform routes the action to the installed handler.
func (s *Static) Perform(ctx context.Context, action Action) error {
	s.mu.RLock()
	handler, closed := s.handler, s.closed
	s.mu.RUnlock()

	if closed {
		return ErrClosed
	}
	if handler == nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedAction, action.Type)
	}
	return handler(ctx, s, action)
}

// Close releases the tree. Further snapshots fail with ErrClosed.
func (s *Static) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.root = nil
	return nil
}

func (s *Static) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}
