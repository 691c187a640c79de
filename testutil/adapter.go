package testutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/comalice/gametestx"
	"github.com/comalice/gametestx/realtime"
)

// ErrTickLimit is returned when a manual run does not finish within its
// tick limit.
var ErrTickLimit = errors.New("testutil: tick limit reached")

// SuiteAdapter provides a common interface for driving a suite tick by tick
// or in realtime. This allows running the same test suite both ways.
type SuiteAdapter interface {
	Start(ctx context.Context, f gametestx.Filter) error
	Stop() error
	Scheduler() *gametestx.Scheduler
	// WaitForCompletion returns the report once every selected test
	// finished.
	WaitForCompletion(timeout time.Duration) (*gametestx.Report, error)
}

// ManualAdapter advances the scheduler only when asked to.
type ManualAdapter struct {
	sched *gametestx.Scheduler
	// Limit bounds WaitForCompletion in ticks (default 100000).
	Limit int
}

// NewManualAdapter creates a manual adapter for the tests in reg.
func NewManualAdapter(reg *gametestx.Registry, opts ...gametestx.Option) *ManualAdapter {
	return &ManualAdapter{sched: gametestx.NewScheduler(reg, opts...), Limit: 100000}
}

func (a *ManualAdapter) Start(ctx context.Context, f gametestx.Filter) error {
	return a.sched.Begin(ctx, f)
}

// Stop ends the run; unfinished tests fail as aborted.
func (a *ManualAdapter) Stop() error {
	a.sched.Finish()
	return nil
}

func (a *ManualAdapter) Scheduler() *gametestx.Scheduler {
	return a.sched
}

// Step advances up to n ticks, stopping early when the run is complete.
// It returns the number of ticks advanced.
func (a *ManualAdapter) Step(n int) (int, error) {
	for i := 0; i < n; i++ {
		if a.sched.Done() {
			return i, nil
		}
		if err := a.sched.Advance(); err != nil {
			return i, err
		}
	}
	return n, nil
}

// Now returns the global tick.
func (a *ManualAdapter) Now() uint64 {
	return a.sched.Clock().Now()
}

// WaitForCompletion advances until the run is complete. timeout bounds
// wall time; Limit bounds ticks.
func (a *ManualAdapter) WaitForCompletion(timeout time.Duration) (*gametestx.Report, error) {
	deadline := time.Now().Add(timeout)
	for ticks := 0; !a.sched.Done(); ticks++ {
		if ticks >= a.Limit {
			return nil, fmt.Errorf("%w after %d ticks", ErrTickLimit, ticks)
		}
		if time.Now().After(deadline) {
			return nil, context.DeadlineExceeded
		}
		if err := a.sched.Advance(); err != nil {
			return nil, err
		}
	}
	return a.sched.Finish(), nil
}

// RealtimeAdapter wraps the realtime runtime
type RealtimeAdapter struct {
	rt *realtime.Runtime
}

// NewRealtimeAdapter creates a realtime adapter ticking at tickRate.
func NewRealtimeAdapter(reg *gametestx.Registry, tickRate time.Duration, opts ...gametestx.Option) *RealtimeAdapter {
	sched := gametestx.NewScheduler(reg, opts...)
	return &RealtimeAdapter{rt: realtime.NewRuntime(sched, realtime.Config{TickRate: tickRate})}
}

func (a *RealtimeAdapter) Start(ctx context.Context, f gametestx.Filter) error {
	return a.rt.Start(ctx, f)
}

func (a *RealtimeAdapter) Stop() error {
	return a.rt.Stop()
}

func (a *RealtimeAdapter) Scheduler() *gametestx.Scheduler {
	return a.rt.Scheduler()
}

// Runtime returns the wrapped runtime.
func (a *RealtimeAdapter) Runtime() *realtime.Runtime {
	return a.rt
}

func (a *RealtimeAdapter) WaitForCompletion(timeout time.Duration) (*gametestx.Report, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.rt.Wait(ctx)
}
