package gametestx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitions(t *testing.T) {
	var l lifecycle
	require.NoError(t, l.to(Running, ""))
	require.NoError(t, l.to(TimedOut, "timed out after 3 ticks"))
	assert.Equal(t, "timed out after 3 ticks", l.reason)

	assert.Error(t, l.to(Succeeded, ""))
	assert.Error(t, l.to(Failed, "late"))
	assert.Equal(t, TimedOut, l.state)
	assert.Equal(t, "timed out after 3 ticks", l.reason)
}

func TestLifecyclePendingCanFail(t *testing.T) {
	var l lifecycle
	require.NoError(t, l.to(Failed, "cancelled"))
	assert.True(t, l.state.Terminal())

	var p lifecycle
	assert.Error(t, p.to(Succeeded, ""))
}

func TestStateText(t *testing.T) {
	for _, s := range []State{Pending, Running, Succeeded, Failed, TimedOut, Skipped} {
		b, err := s.MarshalText()
		require.NoError(t, err)
		var got State
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, s, got)
	}
	var s State
	assert.Error(t, s.UnmarshalText([]byte("exploded")))
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.True(t, TimedOut.Failure())
	assert.False(t, Skipped.Failure())
}
