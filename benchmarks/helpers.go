// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/comalice/gametestx"
	"gopkg.in/yaml.v3"
)

// Quiet is a scheduler logger that discards everything.
var Quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

// GenFlatSuite registers n independent tests that succeed on tick ticks.
func GenFlatSuite(n, ticks int) *gametestx.Registry {
	reg := gametestx.NewRegistry()
	for i := 0; i < n; i++ {
		reg.MustRegister("flat", fmt.Sprintf("t%d", i), func(t *gametestx.T) {
			t.SucceedOnTick(ticks)
		})
	}
	return reg
}

// GenPollingSuite registers n tests whose assertion passes on tick ticks.
func GenPollingSuite(n, ticks int) *gametestx.Registry {
	reg := gametestx.NewRegistry()
	for i := 0; i < n; i++ {
		reg.MustRegister("poll", fmt.Sprintf("t%d", i), func(t *gametestx.T) {
			t.SucceedWhen(func(t *gametestx.T) error {
				return gametestx.Assertf(t.Tick() >= ticks, "tick %d", t.Tick())
			})
		})
	}
	return reg
}

// GenSequenceSuite registers n tests each running a sequence of steps
// alternating Execute and Idle(1).
func GenSequenceSuite(n, steps int) *gametestx.Registry {
	reg := gametestx.NewRegistry()
	for i := 0; i < n; i++ {
		reg.MustRegister("seq", fmt.Sprintf("t%d", i), func(t *gametestx.T) {
			seq := t.StartSequence()
			for s := 0; s < steps; s++ {
				seq.ThenExecute(func(t *gametestx.T) { t.Context().Incr("steps") }).ThenIdle(1)
			}
			seq.ThenSucceed()
		}).MaxTicks(4*steps + 10)
	}
	return reg
}

// GenAsyncSuite registers n async tests that idle idles times.
func GenAsyncSuite(n, idles int) *gametestx.Registry {
	reg := gametestx.NewRegistry()
	for i := 0; i < n; i++ {
		reg.MustRegisterAsync("async", fmt.Sprintf("t%d", i), func(t *gametestx.T) error {
			for range idles {
				t.Idle(1)
			}
			t.Succeed()
			return nil
		}).MaxTicks(idles + 10)
	}
	return reg
}

// GenBatchedSuite registers n tests spread round-robin over batches.
func GenBatchedSuite(n, batches int) *gametestx.Registry {
	reg := gametestx.NewRegistry()
	for i := 0; i < n; i++ {
		reg.MustRegister("batch", fmt.Sprintf("t%d", i), func(t *gametestx.T) {
			t.SucceedOnTick(1)
		}).Batch(fmt.Sprintf("b%d", i%batches))
	}
	return reg
}

// Run runs every test of reg and panics if the run cannot start.
func Run(reg *gametestx.Registry, opts ...gametestx.Option) *gametestx.Report {
	opts = append([]gametestx.Option{gametestx.WithLogger(Quiet)}, opts...)
	rep, err := gametestx.NewScheduler(reg, opts...).RunSuite(context.Background(), gametestx.All)
	if err != nil {
		panic(err)
	}
	return rep
}

// GenReportYAML runs a flat suite of n tests and returns its report as YAML.
func GenReportYAML(n int) []byte {
	data, err := yaml.Marshal(Run(GenFlatSuite(n, 1)))
	if err != nil {
		panic(err)
	}
	return data
}
