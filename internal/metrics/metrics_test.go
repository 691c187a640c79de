package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_AllVariablesNonNil(t *testing.T) {
	vars := []struct {
		name string
		val  any
	}{
		{"TicksTotal", TicksTotal},
		{"TickLatency", TickLatency},
		{"InstancesDispatched", InstancesDispatched},
		{"InstancesFinished", InstancesFinished},
		{"AllocationDeferrals", AllocationDeferrals},
		{"InstancesRunning", InstancesRunning},
	}

	for _, v := range vars {
		assert.NotNilf(t, v.val, "%s should not be nil", v.name)
	}
}

func TestRecorder(t *testing.T) {
	var r Recorder

	ticks := testutil.ToFloat64(TicksTotal)
	r.Tick(time.Millisecond)
	assert.Equal(t, ticks+1, testutil.ToFloat64(TicksTotal))

	dispatched := testutil.ToFloat64(InstancesDispatched.WithLabelValues("night"))
	r.Dispatched("night")
	assert.Equal(t, dispatched+1, testutil.ToFloat64(InstancesDispatched.WithLabelValues("night")))

	timedOut := testutil.ToFloat64(InstancesFinished.WithLabelValues("timed_out", "false"))
	r.Finished("timed_out", false)
	assert.Equal(t, timedOut+1, testutil.ToFloat64(InstancesFinished.WithLabelValues("timed_out", "false")))

	deferrals := testutil.ToFloat64(AllocationDeferrals)
	r.Deferred()
	assert.Equal(t, deferrals+1, testutil.ToFloat64(AllocationDeferrals))

	r.Running(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(InstancesRunning))
}
