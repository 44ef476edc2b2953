package session

import (
	"context"
	"testing"

	"chart-feed/src/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idle(name string) *Session {
	return WithSource(testConfig(name, 3_600_000, 5), counting(), nil, nil, logger.NewNopLogger())
}

func TestManager_Registry(t *testing.T) {
	m := NewManager([]*Session{idle("b"), idle("a")}, logger.NewNopLogger())

	assert.ErrorIs(t, m.AddSession(idle("a")), ErrSessionExists)

	s, err := m.GetSession("a")
	require.NoError(t, err)
	assert.Equal(t, "a", s.Name())

	_, err = m.GetSession("zzz")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	all := m.GetAllSessions()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "b", all[1].Name())

	assert.ErrorIs(t, m.RemoveSession("zzz"), ErrSessionNotFound)
	require.NoError(t, m.RemoveSession("b"))
	assert.Len(t, m.GetAllSessions(), 1)
}

func TestManager_Lifecycle(t *testing.T) {
	m := NewManager([]*Session{idle("a"), idle("b")}, logger.NewNopLogger())

	assert.Error(t, m.StartSession("a"), "not running yet")

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()))

	for _, st := range m.Statuses() {
		assert.True(t, st.IsRunning, st.Name)
		assert.Equal(t, 5, st.StreamLength)
	}

	// sessions added while running start immediately
	require.NoError(t, m.AddSession(idle("c")))
	c, _ := m.GetSession("c")
	assert.True(t, c.IsRunning())

	require.NoError(t, m.StopSession("a"))
	assert.ErrorIs(t, m.StopSession("a"), ErrNotRunning)
	require.NoError(t, m.StartSession("a"))
	assert.ErrorIs(t, m.StartSession("a"), ErrAlreadyRunning)
	assert.ErrorIs(t, m.StartSession("zzz"), ErrSessionNotFound)

	// removing a running session stops it
	require.NoError(t, m.RemoveSession("b"))

	require.NoError(t, m.Stop())
	for _, s := range m.GetAllSessions() {
		assert.False(t, s.IsRunning(), s.Name())
	}
	require.NoError(t, m.Stop())
}
