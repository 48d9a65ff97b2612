package content

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// SubscriptionsModule extracts the followed-communities bar.
type SubscriptionsModule struct{}

func (SubscriptionsModule) ID() string   { return "subscriptions" }
func (SubscriptionsModule) Kind() string { return types.KindSubscriptionList }

func (SubscriptionsModule) Matcher(rules Rules) (Matcher, error) {
	return ParseMatcher(rules.Subscriptions.Root)
}

func (SubscriptionsModule) Extract(root *goquery.Selection, env *Env) (any, error) {
	list := types.SubscriptionList{Subscriptions: []types.Subscription{}}
	root.Find(env.Rules.Subscriptions.Item).Each(func(_ int, s *goquery.Selection) {
		name := Text(s)
		if name == "" {
			return
		}
		list.Subscriptions = append(list.Subscriptions, types.Subscription{
			Name: name,
			URL:  s.AttrOr("href", ""),
		})
	})
	return list, nil
}
