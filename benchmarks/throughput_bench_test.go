// Package benchmarks provides performance benchmarks for scheduler throughput.
package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/comalice/gametestx"
	"gopkg.in/yaml.v3"
)

func BenchmarkRunSuiteFlat(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("tests=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				rep := Run(GenFlatSuite(n, 5))
				if rep.Passed != n {
					b.Fatalf("passed %d of %d", rep.Passed, n)
				}
			}
			b.ReportMetric(float64(n*b.N)/b.Elapsed().Seconds(), "tests/sec")
		})
	}
}

func BenchmarkRunSuitePolling(b *testing.B) {
	for _, n := range []int{10, 100} {
		b.Run(fmt.Sprintf("tests=%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if rep := Run(GenPollingSuite(n, 20)); rep.Passed != n {
					b.Fatalf("passed %d of %d", rep.Passed, n)
				}
			}
		})
	}
}

func BenchmarkRunSuiteSequences(b *testing.B) {
	for _, steps := range []int{4, 16, 64} {
		b.Run(fmt.Sprintf("steps=%d", steps), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if rep := Run(GenSequenceSuite(50, steps)); rep.Passed != 50 {
					b.Fatalf("passed %d of 50", rep.Passed)
				}
			}
		})
	}
}

// BenchmarkRunSuiteAsync measures goroutine hand-off cost per Idle.
func BenchmarkRunSuiteAsync(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if rep := Run(GenAsyncSuite(50, 20)); rep.Passed != 50 {
			b.Fatalf("passed %d of 50", rep.Passed)
		}
	}
	b.ReportMetric(float64(50*20*b.N)/b.Elapsed().Seconds(), "idles/sec")
}

func BenchmarkRunSuiteBatched(b *testing.B) {
	for _, batches := range []int{1, 8, 64} {
		b.Run(fmt.Sprintf("batches=%d", batches), func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				if rep := Run(GenBatchedSuite(256, batches)); rep.Passed != 256 {
					b.Fatalf("passed %d of 256", rep.Passed)
				}
			}
		})
	}
}

// BenchmarkPackedGrid runs more tests than fit at once, so most dispatch
// attempts are deferred.
func BenchmarkPackedGrid(b *testing.B) {
	grid := gametestx.WithGrid(gametestx.GridConfig{Width: 32, Depth: 32})
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if rep := Run(GenFlatSuite(500, 3), grid); rep.Passed != 500 {
			b.Fatalf("passed %d of 500", rep.Passed)
		}
	}
}

// BenchmarkAdvance measures one tick with n active tests.
func BenchmarkAdvance(b *testing.B) {
	for _, n := range []int{10, 100, 1000} {
		b.Run(fmt.Sprintf("active=%d", n), func(b *testing.B) {
			reg := gametestx.NewRegistry()
			for i := 0; i < n; i++ {
				reg.MustRegister("adv", fmt.Sprintf("t%d", i), func(t *gametestx.T) {
					t.SucceedWhen(func(*gametestx.T) error { return fmt.Errorf("never") })
				}).MaxTicks(1 << 30)
			}
			sched := gametestx.NewScheduler(reg, gametestx.WithLogger(Quiet))
			if err := sched.Begin(context.Background(), gametestx.All); err != nil {
				b.Fatal(err)
			}
			defer sched.Finish()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if err := sched.Advance(); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkReportYAML(b *testing.B) {
	data := GenReportYAML(500)
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var rep gametestx.Report
		if err := yaml.Unmarshal(data, &rep); err != nil {
			b.Fatal(err)
		}
	}
}
