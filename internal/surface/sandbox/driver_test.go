package sandbox

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/infrastructure/monitoring"
)

func newSite(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if r.URL.Query().Get("over18") == "yes" {
			fmt.Fprint(w, `<html><body><div id="siteTable"><p class="ok">welcome</p></div></body></html>`)
			return
		}
		fmt.Fprint(w, `<html><body>
			<div class="interstitial"><form><button name="over18" value="yes">Continue</button></form></div>
			<a class="next" href="/page2">next</a>
			<a class="anchor" href="#top">top</a>
			<div class="thing" data-fullname="t3_a">
			  <div class="midcol unvoted"><div class="arrow up"></div><div class="arrow down"></div></div>
			  <p class="tagline"><a class="expand" href="#">[–]</a></p>
			</div>
		</body></html>`)
	})
	mux.HandleFunc("/page2", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, `<html><body><h1>Page two</h1></body></html>`)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newDriver(t *testing.T) *Driver {
	cfg := document.DefaultLoaderConfig()
	cfg.RequestsPerSecond = 100
	cfg.Timeout = 5 * time.Second
	return New(document.NewLoader(cfg), zaptest.NewLogger(t), monitoring.NewMetrics())
}

func open(t *testing.T, d *Driver, uri string) document.Document {
	t.Helper()
	doc, err := d.Open(context.Background(), uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = doc.Close() })
	return doc
}

func text(t *testing.T, doc document.Document, selector string) string {
	t.Helper()
	snap, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	return snap.Find(selector).First().Text()
}

func attr(t *testing.T, doc document.Document, selector, name string) string {
	t.Helper()
	snap, err := doc.Snapshot(context.Background())
	require.NoError(t, err)
	return snap.Find(selector).First().AttrOr(name, "")
}

func TestClickLinkReplacesDocument(t *testing.T) {
	srv := newSite(t)
	doc := open(t, newDriver(t), srv.URL+"/")
	ctx := context.Background()

	require.NoError(t, doc.Perform(ctx, document.Click("a.next")))
	assert.Equal(t, "Page two", text(t, doc, "h1"))

	select {
	case <-doc.Changes():
	default:
		t.Fatal("replacement should signal a change")
	}
}

func TestClickGetFormSubmits(t *testing.T) {
	srv := newSite(t)
	doc := open(t, newDriver(t), srv.URL+"/")

	require.NoError(t, doc.Perform(context.Background(), document.Click(`.interstitial button[name="over18"]`)))
	assert.Equal(t, "welcome", text(t, doc, ".ok"))
}

func TestVoteAndToggleEmulated(t *testing.T) {
	srv := newSite(t)
	doc := open(t, newDriver(t), srv.URL+"/")
	ctx := context.Background()

	require.NoError(t, doc.Perform(ctx, document.Click(".thing .arrow.up")))
	assert.Equal(t, "midcol likes", attr(t, doc, ".midcol", "class"))

	require.NoError(t, doc.Perform(ctx, document.Click(".thing .arrow.upmod")))
	assert.Equal(t, "midcol unvoted", attr(t, doc, ".midcol", "class"), "clicking an active arrow clears the vote")

	require.NoError(t, doc.Perform(ctx, document.Click(".thing .arrow.down")))
	assert.Equal(t, "midcol dislikes", attr(t, doc, ".midcol", "class"))

	require.NoError(t, doc.Perform(ctx, document.Click(".thing .expand")))
	assert.Equal(t, "thing collapsed", attr(t, doc, ".thing", "class"))
}

func TestUnsupportedActions(t *testing.T) {
	srv := newSite(t)
	doc := open(t, newDriver(t), srv.URL+"/")
	ctx := context.Background()

	assert.ErrorIs(t, doc.Perform(ctx, document.Click(".missing")), document.ErrNoMatch)
	assert.ErrorIs(t, doc.Perform(ctx, document.Click("a.anchor")), document.ErrUnsupportedAction)
	assert.NoError(t, doc.Perform(ctx, document.ScrollTo(".thing")))
}

func TestOpenFailure(t *testing.T) {
	srv := newSite(t)
	_, err := newDriver(t).Open(context.Background(), srv.URL+"/%zz")
	assert.Error(t, err)
}
