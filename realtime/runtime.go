package realtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/gametestx"
)

var (
	// ErrQueueFull is returned when more commands are queued than one tick accepts.
	ErrQueueFull = errors.New("realtime: command queue full")
	// ErrNotRunning is returned by Wait when the runtime was never started.
	ErrNotRunning = errors.New("realtime: runtime not running")
	// ErrAlreadyStarted is returned by Start on a runtime that was started
	// before. A Runtime drives a single run.
	ErrAlreadyStarted = errors.New("realtime: runtime already started")
)

// Runtime advances a scheduler at a fixed tick rate. It is single-use:
// create a new Runtime for every run.
type Runtime struct {
	sched  *gametestx.Scheduler
	logger *slog.Logger

	tickRate time.Duration
	ticker   *time.Ticker
	tickNum  uint64

	cmdBatch    []CommandWithMeta
	batchMu     sync.Mutex
	sequenceNum uint64

	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
	finished   chan struct{}

	started    atomic.Bool
	finishOnce sync.Once
	report     *gametestx.Report
	err        error
}

// Config configures the real-time runtime
type Config struct {
	TickRate           time.Duration // Fixed tick rate (default 50ms, 20 ticks per second)
	MaxCommandsPerTick int           // Command queue capacity (default: 1000)
	Logger             *slog.Logger
}

// NewRuntime creates a runtime that drives sched.
func NewRuntime(sched *gametestx.Scheduler, cfg Config) *Runtime {
	if cfg.MaxCommandsPerTick == 0 {
		cfg.MaxCommandsPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 50 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Runtime{
		sched:    sched,
		logger:   cfg.Logger,
		tickRate: cfg.TickRate,
		cmdBatch: make([]CommandWithMeta, 0, cfg.MaxCommandsPerTick),
		stopped:  make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins a run of the tests matched by f and returns immediately.
// It fails with ErrAlreadyStarted on any call after the first successful one.
func (rt *Runtime) Start(ctx context.Context, f gametestx.Filter) error {
	if !rt.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if err := rt.sched.Begin(ctx, f); err != nil {
		rt.started.Store(false)
		return err
	}
	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)

	go rt.tickLoop()

	return nil
}

// Stop halts the tick loop. Tests that have not finished yet fail as
// aborted.
func (rt *Runtime) Stop() error {
	if rt.tickCancel == nil {
		return ErrNotRunning
	}
	rt.tickCancel()
	rt.ticker.Stop()

	// Wait for tick loop to exit
	<-rt.stopped

	rt.finish(nil)
	return nil
}

// Wait blocks until the suite completes or ctx is done.
func (rt *Runtime) Wait(ctx context.Context) (*gametestx.Report, error) {
	if rt.tickCancel == nil {
		return nil, ErrNotRunning
	}
	select {
	case <-rt.finished:
		return rt.report, rt.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Run starts the suite, waits for it and stops the runtime. When ctx is
// cancelled the remaining tests fail and the partial report is returned.
func (rt *Runtime) Run(ctx context.Context, f gametestx.Filter) (*gametestx.Report, error) {
	if err := rt.Start(ctx, f); err != nil {
		return nil, err
	}
	select {
	case <-rt.finished:
	case <-ctx.Done():
	}
	if err := rt.Stop(); err != nil {
		return nil, err
	}
	if rt.err == nil && ctx.Err() != nil {
		return rt.report, ctx.Err()
	}
	return rt.report, rt.err
}

// tickLoop is the main tick execution loop
func (rt *Runtime) tickLoop() {
	defer close(rt.stopped)

	for {
		select {
		case <-rt.tickCtx.Done():
			return
		case <-rt.ticker.C:
			if err := rt.safeTick(); err != nil {
				rt.logger.Error("tick failed, stopping run", "tick", rt.GetTickNumber(), "error", err)
				rt.finish(err)
				return
			}

			rt.batchMu.Lock()
			rt.tickNum++
			rt.batchMu.Unlock()

			if rt.sched.Done() {
				rt.finish(nil)
				return
			}
		}
	}
}

func (rt *Runtime) safeTick() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in tick: %v", r)
		}
	}()
	return rt.processTick()
}

// finish produces the report exactly once. It runs on the tick loop, or
// after the loop exited.
func (rt *Runtime) finish(err error) {
	rt.finishOnce.Do(func() {
		rt.report = rt.sched.Finish()
		rt.err = err
		close(rt.finished)
	})
}

// SendCommand queues a command for the next tick (thread-safe)
func (rt *Runtime) SendCommand(cmd Command) error {
	return rt.SendCommandWithPriority(cmd, 0)
}

// SendCommandWithPriority queues a command with priority
func (rt *Runtime) SendCommandWithPriority(cmd Command, priority int) error {
	if cmd.Apply == nil {
		return fmt.Errorf("realtime: command %q has no Apply func", cmd.Name)
	}
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()

	if len(rt.cmdBatch) >= cap(rt.cmdBatch) {
		return ErrQueueFull
	}

	rt.cmdBatch = append(rt.cmdBatch, CommandWithMeta{
		Command:     cmd,
		SequenceNum: rt.sequenceNum,
		Priority:    priority,
	})
	rt.sequenceNum++

	return nil
}

// GetTickNumber returns the number of ticks processed so far
func (rt *Runtime) GetTickNumber() uint64 {
	rt.batchMu.Lock()
	defer rt.batchMu.Unlock()
	return rt.tickNum
}

// Scheduler returns the driven scheduler.
func (rt *Runtime) Scheduler() *gametestx.Scheduler {
	return rt.sched
}
