package bridge

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

type fakeTarget struct {
	mu         sync.Mutex
	statements []string
	observers  []Observer
	err        error
}

func (f *fakeTarget) Inject(_ context.Context, statement string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.statements = append(f.statements, statement)
	return nil
}

func (f *fakeTarget) Observers() []Observer { return f.observers }

func TestParseKind(t *testing.T) {
	for _, k := range append(ContentKinds(), KindDiagnostic) {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("poll")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "Kind(9)", Kind(9).String())
}

func TestParseHydratesCapabilities(t *testing.T) {
	target := &fakeTarget{}
	raw := []byte(`{"kind":"listing","data":{"posts":[{"id":"t3_a","title":"A","likes":0,
		"upvote":"__swipe_fn__ vote:t3_a:up"}],"load_more":"__swipe_fn__ listing:more"}}`)

	msg, err := Parse(raw, target)
	require.NoError(t, err)
	listing, ok := msg.(*Listing)
	require.True(t, ok)
	require.Len(t, listing.Posts, 1)
	assert.Nil(t, listing.Posts[0].Downvote)

	up := listing.Posts[0].Upvote
	require.NotNil(t, up)
	assert.Equal(t, "vote:t3_a:up", up.Name())
	assert.True(t, up.Bound())
	assert.True(t, listing.LoadMore.Bound())

	require.NoError(t, up.Invoke(context.Background(), "up"))
	assert.Equal(t, []string{`__swipe.execute("vote:t3_a:up", "[\"up\"]");`}, target.statements)
}

func TestParseNestedComments(t *testing.T) {
	raw := []byte(`{"kind":"commentTree","data":{"post_id":"t3_a","comments":[
		{"id":"t1_a","author":"x","body_html":"","score":1,"depth":0,"collapsed":false,"likes":0,
		 "replies":[{"id":"t1_b","author":"y","body_html":"","score":0,"depth":1,"collapsed":true,"likes":-1,
		   "toggle":"__swipe_fn__ toggle:t1_b"}]}]}}`)

	msg, err := Parse(raw, &fakeTarget{})
	require.NoError(t, err)
	tree := msg.(*CommentTree)
	reply := tree.Comments[0].Replies[0]
	assert.Equal(t, types.VoteDown, reply.Likes)
	require.NotNil(t, reply.Toggle)
	assert.True(t, reply.Toggle.Bound(), "capabilities are bound at any depth")
}

func TestParseDiagnosticVerbatim(t *testing.T) {
	msg, err := Parse([]byte(`{"kind":"diagnostic","data":{"level":"warn","message":"x","extra":1}}`), nil)
	require.NoError(t, err)
	d := msg.(*Diagnostic)
	assert.Equal(t, "warn", d.Level)
	assert.JSONEq(t, `{"level":"warn","message":"x","extra":1}`, string(d.Raw))

	msg, err = Parse([]byte(`{"kind":"diagnostic","data":"plain text"}`), nil)
	require.NoError(t, err)
	assert.Equal(t, `"plain text"`, msg.(*Diagnostic).Message)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want error
	}{
		{"not json", `{kind`, ErrMalformedEnvelope},
		{"missing kind", `{"data":{}}`, ErrMalformedEnvelope},
		{"missing data", `{"kind":"listing"}`, ErrMalformedEnvelope},
		{"unknown kind", `{"kind":"poll","data":{}}`, ErrUnknownKind},
		{"bad payload", `{"kind":"listing","data":{"posts":"nope"}}`, ErrMalformedEnvelope},
		{"bad token", `{"kind":"listing","data":{"posts":[],"load_more":"click me"}}`, ErrMalformedEnvelope},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.raw), &fakeTarget{})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
