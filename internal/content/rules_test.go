package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestLoadRulesYAMLOverlaysDefaults(t *testing.T) {
	rules, err := LoadRules("testdata/rules.yaml")
	require.NoError(t, err)

	defaults := DefaultRules()
	assert.Equal(t, "xpath://div[@id='siteTable']", rules.Listing.Root)
	assert.Equal(t, ".nextprev a", rules.Listing.Next)
	assert.Equal(t, defaults.Listing.Item, rules.Listing.Item, "absent keys keep defaults")
	assert.Equal(t, "button.accept", rules.Interstitial.Accept)
	assert.Equal(t, defaults.Interstitial.Root, rules.Interstitial.Root)
	assert.Equal(t, defaults.Comments, rules.Comments)
}

func TestLoadRulesTOML(t *testing.T) {
	rules, err := LoadRules("testdata/rules.toml")
	require.NoError(t, err)

	assert.Equal(t, ".selftext .md", rules.Detail.Body)
	assert.Equal(t, "#subs a", rules.Subscriptions.Item)
	assert.Equal(t, DefaultRules().Detail.Root, rules.Detail.Root)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules("testdata/missing.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	_, err = LoadRules(path)
	assert.Error(t, err)
}

func TestDefaultRulesCompile(t *testing.T) {
	rules := DefaultRules()
	for _, mod := range DefaultModules() {
		_, err := mod.Matcher(rules)
		assert.NoError(t, err, mod.ID())
	}
}

func TestMatcherXPath(t *testing.T) {
	doc := fixture(t, "listing.html")

	m, err := ParseMatcher("xpath://div[@id='siteTable']")
	require.NoError(t, err)
	assert.Equal(t, "siteTable", m.Match(doc).AttrOr("id", ""))

	miss, err := ParseMatcher("xpath://section")
	require.NoError(t, err)
	assert.Equal(t, 0, miss.Match(doc).Length())

	_, err = ParseMatcher("xpath://[")
	assert.Error(t, err)
	_, err = ParseMatcher("div[")
	assert.Error(t, err)
	_, err = ParseMatcher("  ")
	assert.Error(t, err)
}

func TestRuleSetWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listing:\n  next: \".a\"\n"), 0o644))

	rs, err := NewRuleSet(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, ".a", rs.Current().Listing.Next)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rs.Watch(ctx) }()

	assert.Eventually(t, func() bool {
		// Rewrite until the watcher has been installed and picked it up.
		_ = os.WriteFile(path, []byte("listing:\n  next: \".b\"\n"), 0o644)
		return rs.Current().Listing.Next == ".b"
	}, 2*time.Second, 50*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	require.NoError(t, os.WriteFile(path, []byte("listing: [broken"), 0o644))
	rs.reload()
	assert.Equal(t, ".b", rs.Current().Listing.Next, "parse failure keeps previous rules")
}
