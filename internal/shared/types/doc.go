// Package types provides the data structures shared by the content side and
// the host side of the surface bridge.
//
// Content Types:
//   - Post, Listing: a page of posts
//   - Detail: a single post with its body
//   - Comment, CommentTree: threaded discussion
//   - Subscription, SubscriptionList: the signed-in user's communities
//   - Diagnostic: log lines raised by content modules
//   - Envelope: the {kind, data} wire wrapper
//
// Capabilities:
//
// A Capability is a remote function. On the content side it wraps a Func and
// serializes as an opaque token, CapabilityPrefix followed by its name. On
// the host side the token is rebound to an Injector, and Invoke turns a call
// into a dispatch statement that runs back in the originating content
// context.
//
//	like := types.NewFunc("post:t3_abc:like", func(args []json.RawMessage) error {
//	    ...
//	})
//	// host side, after decoding:
//	err := post.Like.Invoke(ctx)
package types
