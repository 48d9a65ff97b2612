package document

import (
	"context"
	"errors"

	"github.com/PuerkitoBio/goquery"
)

var (
	ErrUnsupportedAction = errors.New("action not supported by document")
	ErrClosed            = errors.New("document is closed")
	ErrNoMatch           = errors.New("selector matched nothing")
)

// ActionType enumerates user actions a content script can perform.
type ActionType string

const (
	ActionClick    ActionType = "click"
	ActionScrollTo ActionType = "scroll_to"
)

// Action targets the first element matching Selector.
type Action struct {
	Type     ActionType `json:"type"`
	Selector string     `json:"selector"`
}

// Click builds a click action.
func Click(selector string) Action {
	return Action{Type: ActionClick, Selector: selector}
}

// ScrollTo builds a scroll-into-view action.
func ScrollTo(selector string) Action {
	return Action{Type: ActionScrollTo, Selector: selector}
}

// Document is a live, mutable document owned by one rendering surface.
type Document interface {
	URI() string
	Snapshot(ctx context.Context) (*goquery.Document, error)
	// Changes fires after the document subtree changes. Notifications are
	// coalesced: several changes may produce one signal.
	Changes() <-chan struct{}
	// Generation counts in-place page loads. It increases before the Changes
	// signal of the load, and each value is one page-context lifetime.
	Generation() uint64
	Perform(ctx context.Context, action Action) error
	Close() error
}
