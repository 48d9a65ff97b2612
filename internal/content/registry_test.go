package content

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRoundTrip(t *testing.T) {
	r := NewRegistry()

	var got []json.RawMessage
	name := r.Register("toggle:t1_c1", func(args []json.RawMessage) error {
		got = args
		return nil
	})
	assert.Equal(t, "toggle:t1_c1", name)
	assert.True(t, r.Has(name))

	require.NoError(t, r.Execute(name, `[true, {"n": 1}]`))
	require.Len(t, got, 2)
	assert.JSONEq(t, `{"n": 1}`, string(got[1]))
}

func TestRegistryGeneratedNames(t *testing.T) {
	r := NewRegistry()
	noop := func([]json.RawMessage) error { return nil }

	a := r.Register("", noop)
	b := r.Register("", noop)
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Len())
}

func TestRegistryReplace(t *testing.T) {
	r := NewRegistry()
	calls := ""
	r.Register("more", func([]json.RawMessage) error { calls += "old"; return nil })
	r.Register("more", func([]json.RawMessage) error { calls += "new"; return nil })

	require.NoError(t, r.Execute("more", "[]"))
	assert.Equal(t, "new", calls)
	assert.Equal(t, 1, r.Len())
}

func TestRegistryUnknownAndClosed(t *testing.T) {
	r := NewRegistry()
	boom := errors.New("boom")
	r.Register("fail", func([]json.RawMessage) error { return boom })

	assert.NoError(t, r.Execute("missing", "[]"), "unknown names are no-ops")
	assert.ErrorIs(t, r.Execute("fail", ""), boom)

	r.Close()
	assert.NoError(t, r.Execute("fail", "[]"), "closed registry is a no-op")
	r.Register("late", func([]json.RawMessage) error { return boom })
	assert.False(t, r.Has("late"))
}

func TestLaterLifetimeNamesDoNotCollide(t *testing.T) {
	first := newLifetimeRegistry(0)
	later := newLifetimeRegistry(2)
	noop := func([]json.RawMessage) error { return nil }

	assert.Equal(t, "vote:t3_a:up", first.Register("vote:t3_a:up", noop))

	name := later.Register("vote:t3_a:up", noop)
	assert.Equal(t, "vote:t3_a:up@2", name)
	assert.Equal(t, name, later.Register(name, noop), "already scoped names are kept")
	assert.Equal(t, "fn_1@2", later.Register("", noop))
	assert.False(t, later.Has("vote:t3_a:up"))
}
