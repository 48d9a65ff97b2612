package content

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/swipereader/internal/shared/types"
)

type sink struct{ envelopes []types.Envelope }

func (s *sink) post(b []byte) {
	var env types.Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		panic(err)
	}
	s.envelopes = append(s.envelopes, env)
}

func TestEmitterSuppressesIdenticalContent(t *testing.T) {
	out := &sink{}
	var suppressed []string
	e := NewEmitter(out.post, NewRegistry(), func(kind string) { suppressed = append(suppressed, kind) })

	listing := types.Listing{Posts: []types.Post{{ID: "t3_a", Title: "A"}}}
	posted, err := e.Emit(types.KindListing, listing)
	require.NoError(t, err)
	assert.True(t, posted)

	posted, err = e.Emit(types.KindListing, listing)
	require.NoError(t, err)
	assert.False(t, posted)
	assert.Equal(t, []string{types.KindListing}, suppressed)

	// Same bytes under another kind is not a repeat.
	posted, err = e.Emit(types.KindDetail, listing)
	require.NoError(t, err)
	assert.True(t, posted)

	listing.Posts[0].Title = "B"
	posted, err = e.Emit(types.KindListing, listing)
	require.NoError(t, err)
	assert.True(t, posted)

	assert.Len(t, out.envelopes, 3)
}

func TestEmitterDiagnosticsNeverSuppressed(t *testing.T) {
	out := &sink{}
	e := NewEmitter(out.post, NewRegistry(), nil)

	require.NoError(t, e.Diagnostic("warn", "listing", "selector missed"))
	require.NoError(t, e.Diagnostic("warn", "listing", "selector missed"))

	require.Len(t, out.envelopes, 2)
	assert.Equal(t, types.KindDiagnostic, out.envelopes[0].Kind)
	assert.JSONEq(t, `{"level":"warn","module":"listing","message":"selector missed"}`, string(out.envelopes[1].Data))
}

func TestEmitterRegistersCapabilities(t *testing.T) {
	out := &sink{}
	registry := NewRegistry()
	e := NewEmitter(out.post, registry, nil)

	called := false
	tree := types.CommentTree{
		PostID: "t3_a",
		Comments: []types.Comment{{
			ID:     "t1_c1",
			Toggle: types.NewFunc("toggle:t1_c1", func([]json.RawMessage) error { called = true; return nil }),
		}},
		LoadMore: types.NewFunc("", func([]json.RawMessage) error { return nil }),
	}

	_, err := e.Emit(types.KindCommentTree, tree)
	require.NoError(t, err)
	require.Len(t, out.envelopes, 1)

	var decoded struct {
		Comments []struct {
			Toggle string `json:"toggle"`
		} `json:"comments"`
		LoadMore string `json:"load_more"`
	}
	require.NoError(t, json.Unmarshal(out.envelopes[0].Data, &decoded))
	assert.Equal(t, types.CapabilityPrefix+" toggle:t1_c1", decoded.Comments[0].Toggle)

	name, ok := types.ParseToken(decoded.LoadMore)
	require.True(t, ok)
	assert.True(t, registry.Has(name), "generated name is registered")

	require.NoError(t, registry.Execute("toggle:t1_c1", "[]"))
	assert.True(t, called)
}

func TestEmitterResetStartsLifetime(t *testing.T) {
	out := &sink{}
	first := NewRegistry()
	e := NewEmitter(out.post, first, nil)

	listing := func() types.Listing {
		return types.Listing{Posts: []types.Post{{
			ID:     "t3_a",
			Upvote: types.NewFunc("vote:t3_a:up", func([]json.RawMessage) error { return nil }),
		}}}
	}
	posted, err := e.Emit(types.KindListing, listing())
	require.NoError(t, err)
	require.True(t, posted)

	next := newLifetimeRegistry(1)
	e.Reset(next)

	posted, err = e.Emit(types.KindListing, listing())
	require.NoError(t, err)
	assert.True(t, posted, "first emission of a lifetime is never suppressed")
	assert.True(t, next.Has("vote:t3_a:up@1"))
	assert.Equal(t, 1, first.Len(), "earlier registry gains nothing")
}
