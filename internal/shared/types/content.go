package types

import "encoding/json"

// Wire names for envelope kinds.
const (
	KindDiagnostic       = "diagnostic"
	KindListing          = "listing"
	KindDetail           = "detail"
	KindCommentTree      = "commentTree"
	KindSubscriptionList = "subscriptionList"
)

// Vote direction as rendered by the page: -1 down, 0 none, 1 up.
type Vote int

const (
	VoteDown Vote = -1
	VoteNone Vote = 0
	VoteUp   Vote = 1
)

// Post is one link entry of a listing or the head of a detail page.
type Post struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Author       string      `json:"author"`
	Subreddit    string      `json:"subreddit"`
	Domain       string      `json:"domain,omitempty"`
	Score        int         `json:"score"`
	CommentCount int         `json:"comment_count"`
	URL          string      `json:"url"`
	Permalink    string      `json:"permalink"`
	Thumbnail    string      `json:"thumbnail,omitempty"`
	Likes        Vote        `json:"likes"`
	Upvote       *Capability `json:"upvote,omitempty"`
	Downvote     *Capability `json:"downvote,omitempty"`
}

// Listing is a page of posts.
type Listing struct {
	Posts    []Post      `json:"posts"`
	LoadMore *Capability `json:"load_more,omitempty"`
}

// Detail is a single post with its body.
type Detail struct {
	Post             Post        `json:"post"`
	BodyHTML         string      `json:"body_html,omitempty"`
	ScrollToComments *Capability `json:"scroll_to_comments,omitempty"`
}

// Comment is one node of a comment tree.
type Comment struct {
	ID        string      `json:"id"`
	Author    string      `json:"author"`
	BodyHTML  string      `json:"body_html"`
	Score     int         `json:"score"`
	Depth     int         `json:"depth"`
	Collapsed bool        `json:"collapsed"`
	Likes     Vote        `json:"likes"`
	Upvote    *Capability `json:"upvote,omitempty"`
	Downvote  *Capability `json:"downvote,omitempty"`
	Toggle    *Capability `json:"toggle,omitempty"`
	Replies   []Comment   `json:"replies,omitempty"`
	More      *Capability `json:"more,omitempty"`
}

// CommentTree is the discussion below a detail page.
type CommentTree struct {
	PostID   string      `json:"post_id"`
	Comments []Comment   `json:"comments"`
	LoadMore *Capability `json:"load_more,omitempty"`
}

// Subscription is a community the signed-in account follows.
type Subscription struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// SubscriptionList is the account's followed communities.
type SubscriptionList struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// Diagnostic is free-form page-side output (console, extraction failures).
type Diagnostic struct {
	Level   string `json:"level"`
	Module  string `json:"module,omitempty"`
	Message string `json:"message"`
}

// Envelope is the content→host wire wrapper.
type Envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}
