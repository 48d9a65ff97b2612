package content

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// ListingModule extracts the post list of a front page or community.
type ListingModule struct{}

func (ListingModule) ID() string   { return "listing" }
func (ListingModule) Kind() string { return types.KindListing }

func (ListingModule) Matcher(rules Rules) (Matcher, error) {
	return ParseMatcher(rules.Listing.Root)
}

func (ListingModule) Extract(root *goquery.Selection, env *Env) (any, error) {
	r := env.Rules.Listing

	listing := types.Listing{Posts: []types.Post{}}
	root.Find(r.Item).Each(func(_ int, s *goquery.Selection) {
		listing.Posts = append(listing.Posts, extractPost(s, env))
	})
	if root.Find(r.Next).Length() > 0 {
		listing.LoadMore = env.capability("listing:more", document.Click(r.Next))
	}
	return listing, nil
}

// extractPost reads a link thing's data attributes.
func extractPost(s *goquery.Selection, env *Env) types.Post {
	r := env.Rules.Listing

	post := types.Post{
		ID:           s.AttrOr("data-fullname", ""),
		Title:        Text(s.Find(r.Title).First()),
		Author:       s.AttrOr("data-author", ""),
		Subreddit:    s.AttrOr("data-subreddit", ""),
		Domain:       s.AttrOr("data-domain", ""),
		Score:        atoi(s.AttrOr("data-score", "")),
		CommentCount: atoi(s.AttrOr("data-comments-count", "")),
		URL:          s.AttrOr("data-url", ""),
		Permalink:    s.AttrOr("data-permalink", ""),
		Thumbnail:    s.Find(r.Thumbnail).First().AttrOr("src", ""),
		Likes:        likesOf(s.ChildrenFiltered(r.Midcol).First()),
	}
	post.Upvote, post.Downvote = votes(env, post.ID)
	return post
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return parseCount(s)
	}
	return n
}
