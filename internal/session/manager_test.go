package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestManagerLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestManager(t)
	defer m.Close()

	a, err := m.Create("/")
	require.NoError(t, err)
	b, err := m.Create("/r/golang/")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, 2, m.Len())

	got, err := m.Get(a.ID())
	require.NoError(t, err)
	assert.Same(t, a, got)

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].Depth)

	require.NoError(t, m.Delete(a.ID()))
	_, err = m.Get(a.ID())
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, m.Delete(a.ID()), ErrSessionNotFound)
	assert.Equal(t, 1, m.Len())
}

func TestManagerClose(t *testing.T) {
	defer goleak.VerifyNone(t)

	m := newTestManager(t)
	_, err := m.Create("/")
	require.NoError(t, err)

	m.Close()
	assert.Zero(t, m.Len())
	_, err = m.Create("/")
	assert.ErrorIs(t, err, ErrClosed)
}

func TestManagerRejectsRelativeOrigin(t *testing.T) {
	_, err := NewManager(&siteDriver{}, Options{Origin: "/relative"})
	assert.Error(t, err)
}
