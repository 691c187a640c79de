package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/comalice/gametestx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registry() *gametestx.Registry {
	reg := gametestx.NewRegistry()
	reg.Register("adapter", "counter", func(t *gametestx.T) {
		t.SucceedWhen(func(t *gametestx.T) error {
			n := t.Context().Incr("polls")
			return gametestx.Assertf(n >= 3, "only %d polls", n)
		})
	})
	reg.Register("adapter", "sequence", func(t *gametestx.T) {
		t.StartSequence().
			ThenIdle(2).
			ThenExecute(func(t *gametestx.T) { t.Context().Set("lit", true) }).
			ThenWait(func(t *gametestx.T) error {
				return gametestx.Assertf(t.Context().Get("lit") == true, "not lit")
			}).
			ThenSucceed()
	})
	return reg
}

// TestAdapterInterface verifies that both adapters run the same suite to
// the same verdict.
func TestAdapterInterface(t *testing.T) {
	tests := []struct {
		name    string
		adapter SuiteAdapter
	}{
		{name: "Manual", adapter: NewManualAdapter(registry())},
		{name: "Realtime", adapter: NewRealtimeAdapter(registry(), time.Millisecond)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.adapter.Start(context.Background(), gametestx.All))

			report, err := tt.adapter.WaitForCompletion(5 * time.Second)
			require.NoError(t, err)
			require.NoError(t, tt.adapter.Stop())

			assert.Equal(t, gametestx.ExitSuccess, report.ExitCode)
			assert.Equal(t, 2, report.Passed)
			counter, ok := report.Result("adapter:counter")
			require.True(t, ok)
			assert.Equal(t, 2, counter.ElapsedTicks)
			seq, ok := report.Result("adapter:sequence")
			require.True(t, ok)
			// idle 0-1, execute 2, wait passes 3, succeed 4
			assert.Equal(t, 4, seq.ElapsedTicks)
		})
	}
}

func TestManualAdapterStep(t *testing.T) {
	a := NewManualAdapter(registry())
	require.NoError(t, a.Start(context.Background(), gametestx.All))

	n, err := a.Step(2)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, uint64(2), a.Now())
	assert.Equal(t, []string{"adapter:counter", "adapter:sequence"}, a.Scheduler().Active())

	n, err = a.Step(100)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, a.Scheduler().Done())
	assert.NoError(t, a.Stop())
}

func TestManualAdapterTickLimit(t *testing.T) {
	reg := gametestx.NewRegistry()
	reg.Register("adapter", "slow", func(t *gametestx.T) {}).MaxTicks(1000)
	a := NewManualAdapter(reg)
	a.Limit = 10
	require.NoError(t, a.Start(context.Background(), gametestx.All))

	_, err := a.WaitForCompletion(time.Second)
	assert.ErrorIs(t, err, ErrTickLimit)
	require.NoError(t, a.Stop())
}
