package content

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// Module is one unit of page-side behavior keyed by a matcher. Each module
// owns exactly one debounce identity, its ID.
type Module interface {
	ID() string
	Matcher(rules Rules) (Matcher, error)
}

// Extractor modules turn a matched root into a typed payload of Kind.
type Extractor interface {
	Module
	Kind() string
	Extract(root *goquery.Selection, env *Env) (any, error)
}

// Reactor modules act on the document the first time their matcher hits.
type Reactor interface {
	Module
	React(root *goquery.Selection, env *Env) error
}

// Env is what a module may touch while extracting or reacting.
type Env struct {
	Rules     Rules
	Sanitizer *Sanitizer
	Perform   func(action document.Action) error
}

// capability wraps a document action as a remotely invocable closure.
func (e *Env) capability(name string, action document.Action) *types.Capability {
	return types.NewFunc(name, func([]json.RawMessage) error {
		return e.Perform(action)
	})
}

// DefaultModules returns the full module set in installation order.
func DefaultModules() []Module {
	return []Module{
		InterstitialModule{},
		ListingModule{},
		DetailModule{},
		CommentsModule{},
		SubscriptionsModule{},
	}
}

// scoped prefixes each alternative of a selector list with scope.
func scoped(scope, list string) string {
	parts := strings.Split(list, ",")
	for i, p := range parts {
		parts[i] = scope + " " + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func thingScope(fullname string) string {
	return fmt.Sprintf(".thing[data-fullname=%q]", fullname)
}

// likesOf reads the vote state from a midcol's class list.
func likesOf(midcol *goquery.Selection) types.Vote {
	switch {
	case midcol.HasClass("likes"):
		return types.VoteUp
	case midcol.HasClass("dislikes"):
		return types.VoteDown
	default:
		return types.VoteNone
	}
}

// votes builds the up/down capabilities for the thing named fullname.
func votes(env *Env, fullname string) (up, down *types.Capability) {
	if fullname == "" {
		return nil, nil
	}
	scope := thingScope(fullname) + " > " + env.Rules.Listing.Midcol
	up = env.capability("vote:"+fullname+":up", document.Click(scoped(scope, env.Rules.Listing.UpArrow)))
	down = env.capability("vote:"+fullname+":down", document.Click(scoped(scope, env.Rules.Listing.DownArrow)))
	return up, down
}
