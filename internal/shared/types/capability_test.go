package types

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingInjector struct {
	statements []string
}

func (r *recordingInjector) Inject(ctx context.Context, statement string) error {
	r.statements = append(r.statements, statement)
	return nil
}

func TestCapabilityTokenRoundTrip(t *testing.T) {
	c := NewFunc("vote:t3_abc:up", func([]json.RawMessage) error { return nil })

	data, err := json.Marshal(c)
	require.NoError(t, err)
	assert.Equal(t, `"__swipe_fn__ vote:t3_abc:up"`, string(data))

	var decoded Capability
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "vote:t3_abc:up", decoded.Name())
	assert.Nil(t, decoded.Func())
	assert.False(t, decoded.Bound())
}

func TestCapabilityRejectsPlainStrings(t *testing.T) {
	var c Capability
	err := json.Unmarshal([]byte(`"hello"`), &c)
	assert.ErrorIs(t, err, ErrNotCapability)

	err = json.Unmarshal([]byte(`42`), &c)
	assert.ErrorIs(t, err, ErrNotCapability)
}

func TestUnnamedCapabilityCannotMarshal(t *testing.T) {
	_, err := json.Marshal(NewFunc("", nil))
	assert.ErrorIs(t, err, ErrUnnamedCapability)
}

func TestParseToken(t *testing.T) {
	tests := []struct {
		in     string
		name   string
		wantOK bool
	}{
		{"__swipe_fn__ fn_1", "fn_1", true},
		{"__swipe_fn__ ", "", false},
		{"__swipe_fn__fn_1", "", false},
		{"fn_1", "", false},
	}
	for _, tt := range tests {
		name, ok := ParseToken(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.name, name, tt.in)
	}
}

func TestInvokeBuildsDispatchStatement(t *testing.T) {
	inj := &recordingInjector{}
	c := NewRef("more:c1", inj)

	require.NoError(t, c.Invoke(context.Background(), "up", 2))
	require.Len(t, inj.statements, 1)
	assert.Equal(t, `__swipe.execute("more:c1", "[\"up\",2]");`, inj.statements[0])
}

func TestInvokeUnbound(t *testing.T) {
	c := NewRef("x", nil)
	assert.ErrorIs(t, c.Invoke(context.Background()), ErrUnboundCapability)
}

func TestWalkCapabilitiesVisitsNestedFields(t *testing.T) {
	tree := CommentTree{
		Comments: []Comment{
			{
				ID:     "c1",
				Upvote: NewFunc("a", nil),
				Replies: []Comment{
					{ID: "c2", Toggle: NewFunc("b", nil)},
				},
			},
		},
		LoadMore: NewFunc("c", nil),
	}

	var names []string
	WalkCapabilities(&tree, func(c *Capability) { names = append(names, c.Name()) })

	assert.ElementsMatch(t, []string{"a", "b", "c"}, names)
}
