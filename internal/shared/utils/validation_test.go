package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		path    string
		wantErr bool
	}{
		{"/", false},
		{"/r/golang/comments/abc/title/?sort=new", false},
		{"", true},
		{"r/golang", true},
		{"//evil.test/", true},
		{"/r/go\x00lang", true},
		{"/" + strings.Repeat("a", MaxPathLength), true},
	}
	for _, tt := range tests {
		err := ValidatePath(tt.path)
		assert.Equal(t, tt.wantErr, err != nil, "%q: %v", tt.path, err)
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("sf_01J9Z3", "key"))
	assert.Error(t, ValidateID("", "key"))
	assert.Error(t, ValidateID("../etc", "key"))
	assert.Error(t, ValidateID(strings.Repeat("a", MaxIDLength+1), "key"))
}

func TestValidateCapability(t *testing.T) {
	assert.NoError(t, ValidateCapability("vote:t3_abc:up"))
	assert.NoError(t, ValidateCapability("fn_12"))
	assert.NoError(t, ValidateCapability("more:t1_x@2"))
	assert.Error(t, ValidateCapability("vote(1); alert(2)"))
	assert.Error(t, ValidateCapability(""))
}

func TestValidateArgs(t *testing.T) {
	assert.NoError(t, ValidateArgs(nil))
	assert.NoError(t, ValidateArgs([]any{1, "two", map[string]any{"three": []any{3}}}))

	var deep any = "leaf"
	for i := 0; i < MaxArgsDepth+1; i++ {
		deep = []any{deep}
	}
	assert.Error(t, ValidateArgs([]any{deep}))
	assert.Error(t, ValidateArgs([]any{strings.Repeat("x", MaxArgsSize)}))
}

func TestHasher(t *testing.T) {
	h := DefaultHasher()
	assert.Equal(t, h.HashString("abc"), h.Hash([]byte("abc")))
	assert.NotEqual(t, h.HashString("abc"), h.HashString("abd"))
	assert.Len(t, h.HashString(""), 64)
	assert.Equal(t, h.HashFields("a", "b"), h.HashFields("b", "a"))
	assert.NotEqual(t, h.HashString("abc"), NewHasher(SHA256).HashString("abc"))
	assert.Equal(t, "ba7816bf", Short(NewHasher(SHA256).HashString("abc")))
	assert.Equal(t, "ba7816bf", Short(NewHasher("md5").HashString("abc")), "unknown algorithms use sha256")
	assert.Equal(t, "abc", Short("abc"))
}
