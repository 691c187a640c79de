package gametestx_test

import (
	"errors"
	"testing"

	. "github.com/comalice/gametestx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test async body idles: each Idle resumes exactly n ticks later.
func TestAsyncBodyIdles(t *testing.T) {
	reg := NewRegistry()
	var woke []int
	reg.RegisterAsync("async", "sapling", func(t *T) error {
		for range 3 {
			t.Idle(2)
			woke = append(woke, t.Tick())
		}
		t.Succeed()
		return nil
	})

	res := result(t, runAll(t, reg), "async:sapling")
	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, 6, res.ElapsedTicks)
	assert.Equal(t, []int{2, 4, 6}, woke)
}

func TestAsyncBodyMixesWithScheduledCallbacks(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAsync("async", "lever", func(t *T) error {
		t.RunAtTick(3, func(t *T) { t.Context().Set("powered", true) })
		t.Idle(4)
		if t.Context().Get("powered") != true {
			return errors.New("lamp not powered")
		}
		t.SucceedWhen(func(t *T) error { return nil })
		return nil
	})
	res := result(t, runAll(t, reg), "async:lever")
	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, 4, res.ElapsedTicks)
}

// A returned error or a panic fails the test, as does Idle called outside the body.
func TestAsyncBodyFailures(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterAsync("async", "error", func(t *T) error {
		t.Idle(1)
		return errors.New("chest is empty")
	})
	reg.RegisterAsync("async", "panic", func(t *T) error {
		t.Idle(1)
		panic("boom")
	})
	reg.Register("async", "sync_idle", func(t *T) { t.Idle(1) })
	reg.RegisterAsync("async", "callback_idle", func(t *T) error {
		t.RunAtTick(1, func(t *T) { t.Idle(1) })
		t.Idle(5)
		return nil
	})
	rep := runAll(t, reg)

	errRes := result(t, rep, "async:error")
	assert.Equal(t, Failed, errRes.State)
	assert.Equal(t, 1, errRes.ElapsedTicks)
	assert.Equal(t, "chest is empty", errRes.FailureReason)

	assert.Equal(t, "panic: boom", result(t, rep, "async:panic").FailureReason)
	assert.Equal(t, "Idle called outside an async test body", result(t, rep, "async:sync_idle").FailureReason)

	cb := result(t, rep, "async:callback_idle")
	assert.Equal(t, Failed, cb.State)
	assert.Equal(t, 1, cb.ElapsedTicks)
	assert.Equal(t, "Idle called outside an async test body", cb.FailureReason)
}

func TestAsyncIdleZeroReturnsImmediately(t *testing.T) {
	reg := NewRegistry()
	tick := -1
	reg.RegisterAsync("async", "zero", func(t *T) error {
		t.Idle(0)
		t.Idle(-3)
		tick = t.Tick()
		t.Succeed()
		return nil
	})
	res := result(t, runAll(t, reg), "async:zero")
	assert.Equal(t, Succeeded, res.State)
	assert.Equal(t, 0, res.ElapsedTicks)
	assert.Equal(t, 0, tick)
}

// A suspended body is unwound on timeout so its defers run.
func TestAsyncBodyUnwindsOnTimeout(t *testing.T) {
	reg := NewRegistry()
	cleaned := false
	resumed := false
	reg.RegisterAsync("async", "forever", func(t *T) error {
		defer func() { cleaned = true }()
		t.Idle(1000)
		resumed = true
		return nil
	}).MaxTicks(5)

	res := result(t, runAll(t, reg), "async:forever")
	assert.Equal(t, TimedOut, res.State)
	assert.Equal(t, 5, res.ElapsedTicks)
	assert.True(t, cleaned)
	assert.False(t, resumed)
}

func TestAsyncBodyUnwindsOnAbort(t *testing.T) {
	reg := NewRegistry()
	cleaned := false
	reg.RegisterAsync("async", "aborted", func(t *T) error {
		defer func() { cleaned = true }()
		for {
			t.Idle(1)
		}
	})
	rep, err := NewScheduler(reg, WithMaxRunTicks(3)).RunSuite(t.Context(), All)
	require.NoError(t, err)

	res := result(t, rep, "async:aborted")
	assert.Equal(t, Failed, res.State)
	assert.Equal(t, "suite aborted: exceeded 3 ticks", res.FailureReason)
	assert.True(t, cleaned)
}
