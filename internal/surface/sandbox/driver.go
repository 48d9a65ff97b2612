// Package sandbox hosts documents as in-process trees fetched over HTTP.
//
// No page script runs. Actions are emulated: links and GET forms navigate
// by fetching and swapping the tree, comment toggles and vote arrows update
// classes locally, and scrolling is a no-op.
package sandbox

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
)

// Driver opens surfaces through a document loader.
type Driver struct {
	loader  *document.Loader
	logger  *zap.Logger
	metrics *monitoring.Metrics
}

// New creates a sandbox driver.
func New(loader *document.Loader, logger *zap.Logger, metrics *monitoring.Metrics) *Driver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Driver{loader: loader, logger: logger.Named("sandbox"), metrics: metrics}
}

// Open fetches uri and wraps it as a static document.
func (d *Driver) Open(ctx context.Context, uri string) (document.Document, error) {
	doc, err := d.fetch(ctx, uri)
	if err != nil {
		return nil, err
	}
	doc.OnAction(d.handle)
	return doc, nil
}

func (d *Driver) fetch(ctx context.Context, uri string) (*document.Static, error) {
	timer := monitoring.NewTimer(d.metrics, "loader", "load")
	doc, err := d.loader.Load(ctx, uri)
	if timer.Observe(err) != nil {
		return nil, err
	}
	return doc, nil
}

func (d *Driver) handle(ctx context.Context, doc *document.Static, action document.Action) error {
	snap, err := doc.Snapshot(ctx)
	if err != nil {
		return err
	}
	target := snap.Find(action.Selector).First()
	if target.Length() == 0 {
		return fmt.Errorf("%w: %s", document.ErrNoMatch, action.Selector)
	}

	switch action.Type {
	case document.ActionScrollTo:
		return nil
	case document.ActionClick:
	default:
		return fmt.Errorf("%w: %s", document.ErrUnsupportedAction, action.Type)
	}

	switch {
	case target.HasClass("arrow"):
		return doc.Mutate(func(g *goquery.Document) { vote(g, action.Selector) })
	case target.HasClass("expand"):
		return doc.Mutate(func(g *goquery.Document) { toggle(g, action.Selector) })
	}

	next, ok, err := destination(doc.URI(), target)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: click on <%s>", document.ErrUnsupportedAction, goquery.NodeName(target))
	}

	d.logger.Debug("Following link", zap.String("from", doc.URI()), zap.String("to", next))
	page, err := d.fetch(ctx, next)
	if err != nil {
		return err
	}
	defer page.Close()

	fresh, err := page.Snapshot(ctx)
	if err != nil {
		return err
	}
	markup, err := fresh.Html()
	if err != nil {
		return err
	}
	return doc.Replace(markup)
}

// destination resolves where clicking target navigates: a link's href or a
// GET form submitted by a named button.
func destination(base string, target *goquery.Selection) (string, bool, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", false, fmt.Errorf("parse document uri: %w", err)
	}

	if link := target.Closest("a[href]"); link.Length() > 0 {
		href, _ := link.Attr("href")
		if strings.HasPrefix(href, "#") || strings.HasPrefix(strings.ToLower(href), "javascript:") {
			return "", false, nil
		}
		ref, err := url.Parse(href)
		if err != nil {
			return "", false, fmt.Errorf("parse href: %w", err)
		}
		return baseURL.ResolveReference(ref).String(), true, nil
	}

	form := target.Closest("form")
	if form.Length() == 0 || !strings.EqualFold(form.AttrOr("method", "get"), "get") {
		return "", false, nil
	}
	ref, err := url.Parse(form.AttrOr("action", ""))
	if err != nil {
		return "", false, fmt.Errorf("parse form action: %w", err)
	}
	dest := baseURL.ResolveReference(ref)
	query := url.Values{}
	form.Find("input[name]").Each(func(_ int, in *goquery.Selection) {
		query.Add(in.AttrOr("name", ""), in.AttrOr("value", ""))
	})
	if name := target.AttrOr("name", ""); name != "" {
		query.Add(name, target.AttrOr("value", ""))
	}
	dest.RawQuery = query.Encode()
	return dest.String(), true, nil
}

// vote flips the clicked arrow and its midcol the way the site renders a
// vote. Clicking an active arrow clears the vote.
func vote(g *goquery.Document, selector string) {
	arrow := g.Find(selector).First()
	midcol := arrow.Closest(".midcol")
	up := arrow.HasClass("up") || arrow.HasClass("upmod")
	active := arrow.HasClass("upmod") || arrow.HasClass("downmod")

	midcol.RemoveClass("likes dislikes unvoted")
	midcol.Find(".arrow.upmod").RemoveClass("upmod").AddClass("up")
	midcol.Find(".arrow.downmod").RemoveClass("downmod").AddClass("down")

	switch {
	case active:
		midcol.AddClass("unvoted")
	case up:
		midcol.AddClass("likes")
		midcol.Find(".arrow.up").RemoveClass("up").AddClass("upmod")
	default:
		midcol.AddClass("dislikes")
		midcol.Find(".arrow.down").RemoveClass("down").AddClass("downmod")
	}
}

// toggle collapses or expands the comment owning the clicked control.
func toggle(g *goquery.Document, selector string) {
	thing := g.Find(selector).First().Closest(".thing")
	if thing.HasClass("collapsed") {
		thing.RemoveClass("collapsed").AddClass("noncollapsed")
	} else {
		thing.RemoveClass("noncollapsed").AddClass("collapsed")
	}
}
