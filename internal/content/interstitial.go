package content

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/swipereader/internal/document"
)

// InterstitialModule accepts the content-warning gate once per page context.
type InterstitialModule struct{}

func (InterstitialModule) ID() string { return "interstitial" }

func (InterstitialModule) Matcher(rules Rules) (Matcher, error) {
	return ParseMatcher(rules.Interstitial.Root)
}

func (InterstitialModule) React(_ *goquery.Selection, env *Env) error {
	r := env.Rules.Interstitial
	accept := r.Accept
	if !strings.HasPrefix(r.Root, xpathPrefix) {
		accept = scoped(r.Root, r.Accept)
	}
	return env.Perform(document.Click(accept))
}
