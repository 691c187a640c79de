package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Scheduler counters and histograms.

var (
	TicksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gametest",
		Subsystem: "scheduler",
		Name:      "ticks_total",
		Help:      "Total scheduler ticks",
	})

	TickLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "gametest",
		Subsystem: "scheduler",
		Name:      "tick_duration_seconds",
		Help:      "Wall time spent advancing every active test by one tick",
		Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})

	InstancesDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gametest",
		Subsystem: "scheduler",
		Name:      "instances_dispatched_total",
		Help:      "Total test instances dispatched into a sandbox",
	}, []string{"batch"})

	InstancesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gametest",
		Subsystem: "scheduler",
		Name:      "instances_finished_total",
		Help:      "Total tests finished, by terminal state",
	}, []string{"state", "required"})

	AllocationDeferrals = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gametest",
		Subsystem: "sandbox",
		Name:      "deferrals_total",
		Help:      "Total dispatch attempts deferred for lack of sandbox space",
	})

	InstancesRunning = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gametest",
		Subsystem: "scheduler",
		Name:      "instances_active",
		Help:      "Test instances dispatched and not yet finished",
	})
)

// Recorder feeds scheduler activity into the package collectors.
type Recorder struct{}

func (Recorder) Tick(d time.Duration) {
	TicksTotal.Inc()
	TickLatency.Observe(d.Seconds())
}

func (Recorder) Dispatched(batch string) {
	InstancesDispatched.WithLabelValues(batch).Inc()
}

func (Recorder) Finished(state string, required bool) {
	r := "false"
	if required {
		r = "true"
	}
	InstancesFinished.WithLabelValues(state, r).Inc()
}

func (Recorder) Deferred() {
	AllocationDeferrals.Inc()
}

func (Recorder) Running(n int) {
	InstancesRunning.Set(float64(n))
}
