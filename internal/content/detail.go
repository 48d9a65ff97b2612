package content

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// DetailModule extracts the head post of a comments page.
type DetailModule struct{}

func (DetailModule) ID() string   { return "detail" }
func (DetailModule) Kind() string { return types.KindDetail }

func (DetailModule) Matcher(rules Rules) (Matcher, error) {
	return ParseMatcher(rules.Detail.Root)
}

func (DetailModule) Extract(root *goquery.Selection, env *Env) (any, error) {
	r := env.Rules.Detail

	detail := types.Detail{
		Post:     extractPost(root, env),
		BodyHTML: env.Sanitizer.HTML(root.Find(r.Body).First()),
	}
	if root.Closest("body").Find(r.CommentArea).Length() > 0 {
		detail.ScrollToComments = env.capability("detail:comments", document.ScrollTo(r.CommentArea))
	}
	return detail, nil
}
