package content

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/GriffinCanCode/swipereader/internal/document"
	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

// CommentsModule extracts the nested discussion of a comments page.
type CommentsModule struct{}

func (CommentsModule) ID() string   { return "comments" }
func (CommentsModule) Kind() string { return types.KindCommentTree }

func (CommentsModule) Matcher(rules Rules) (Matcher, error) {
	return ParseMatcher(rules.Comments.Root)
}

func (CommentsModule) Extract(root *goquery.Selection, env *Env) (any, error) {
	tree := types.CommentTree{
		PostID: root.Closest("body").Find(env.Rules.Detail.Root).First().AttrOr("data-fullname", ""),
	}
	tree.Comments, tree.LoadMore = walkComments(root, 0, env)
	if tree.Comments == nil {
		tree.Comments = []types.Comment{}
	}
	return tree, nil
}

// walkComments reads the direct comment children of one sitetable. A
// trailing "more" stub becomes the returned capability.
func walkComments(list *goquery.Selection, depth int, env *Env) ([]types.Comment, *types.Capability) {
	r := env.Rules.Comments

	var (
		out  []types.Comment
		more *types.Capability
	)
	list.ChildrenFiltered(r.Comment).Each(func(_ int, s *goquery.Selection) {
		out = append(out, extractComment(s, depth, env))
	})
	list.ChildrenFiltered(r.More).Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("data-fullname", "")
		if id == "" {
			return
		}
		more = env.capability("more:"+id, document.Click(fmt.Sprintf("%s[data-fullname=%q] a", r.More, id)))
	})
	return out, more
}

func extractComment(s *goquery.Selection, depth int, env *Env) types.Comment {
	r := env.Rules.Comments
	entry := s.ChildrenFiltered(r.Entry).First()

	c := types.Comment{
		ID:        s.AttrOr("data-fullname", ""),
		Author:    Text(entry.Find(r.Author).First()),
		BodyHTML:  env.Sanitizer.HTML(entry.Find(r.Body).First()),
		Score:     parseCount(entry.Find(r.Score).First().AttrOr("title", "")),
		Depth:     depth,
		Collapsed: s.HasClass("collapsed"),
		Likes:     likesOf(s.ChildrenFiltered(env.Rules.Listing.Midcol).First()),
	}
	if c.Score == 0 {
		c.Score = parseCount(Text(entry.Find(r.Score).First()))
	}
	c.Upvote, c.Downvote = votes(env, c.ID)
	if c.ID != "" {
		c.Toggle = env.capability("toggle:"+c.ID, document.Click(scoped(thingScope(c.ID)+" > "+r.Entry, r.Toggle)))
	}

	children := s.ChildrenFiltered(r.Children).ChildrenFiltered(r.Listing)
	c.Replies, c.More = walkComments(children, depth+1, env)
	return c
}
