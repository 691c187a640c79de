package gametestx

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/comalice/gametestx/internal/sandbox"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/comalice/gametestx"

// Scheduler runs suites: it owns the Clock and the sandbox allocator,
// dispatches selected definitions as instances and advances them one tick
// at a time.
//
// Begin, Advance and Finish must be called from one goroutine. Cancel,
// CancelAll, Done and the snapshot accessors are safe from any goroutine,
// but not from inside a test callback.
type Scheduler struct {
	reg           *Registry
	logger        *slog.Logger
	catalog       StructureCatalog
	grid          GridConfig
	maxConcurrent int
	maxRunTicks   uint64
	publisher     Publisher
	metrics       Metrics
	tracer        trace.Tracer

	clock *Clock
	alloc *sandbox.Allocator

	cmdMu sync.Mutex
	cmds  []command

	mu      sync.Mutex
	run     *run
	current atomic.Pointer[run]
}

type command struct {
	// id is a test ID; empty means every test of the run.
	id     string
	reason string
}

type pendingTest struct {
	def   Definition
	order int
}

type batchState struct {
	name      string
	hooks     batchHooks
	active    *instance
	remaining int
	opened    bool
	broken    error
}

type run struct {
	id        string
	ctx       context.Context
	span      trace.Span
	filter    Filter
	started   time.Time
	startTick uint64

	// ids holds the selected test IDs. It is not modified after Begin.
	ids     map[string]bool
	pending []pendingTest
	running []*instance
	results []Result
	batches map[string]*batchState
	aborted error
}

func (r *run) complete() bool {
	return len(r.pending) == 0 && len(r.running) == 0
}

// NewScheduler returns a scheduler for the definitions in reg.
func NewScheduler(reg *Registry, opts ...Option) *Scheduler {
	s := &Scheduler{
		reg:     reg,
		logger:  slog.Default(),
		grid:    DefaultGrid,
		metrics: nopMetrics{},
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.clock = NewClock(s.tick)
	s.alloc = sandbox.NewAllocator(s.grid)
	return s
}

// Clock returns the scheduler's global clock.
func (s *Scheduler) Clock() *Clock {
	return s.clock
}

// Begin starts a run of the definitions matched by f. A nil filter selects
// TagSuiteDefault. The registry is frozen from here on. Begin fails while
// another run is in progress or when the registry has errors.
func (s *Scheduler) Begin(ctx context.Context, f Filter) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if f == nil {
		f = Tags()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != nil {
		return ErrRunInProgress
	}
	if err := s.reg.Validate(); err != nil {
		return fmt.Errorf("gametestx: cannot start run: %w", err)
	}
	s.reg.freeze()

	r := &run{
		id:        uuid.NewString(),
		filter:    f,
		started:   time.Now(),
		startTick: s.clock.Now(),
		ids:       make(map[string]bool),
		batches:   make(map[string]*batchState),
	}
	r.ctx, r.span = s.tracer.Start(ctx, "gametest.run", trace.WithAttributes(
		attribute.String("gametest.run_id", r.id),
		attribute.String("gametest.filter", f.String()),
	))
	for i, d := range s.reg.Definitions() {
		if !f.Match(d) {
			r.results = append(r.results, skippedResult(d, i, r.startTick))
			continue
		}
		r.ids[d.ID()] = true
		r.pending = append(r.pending, pendingTest{def: d, order: i})
		if d.Batch == "" {
			continue
		}
		b, ok := r.batches[d.Batch]
		if !ok {
			b = &batchState{name: d.Batch, hooks: s.reg.hooks(d.Batch)}
			r.batches[d.Batch] = b
		}
		b.remaining++
	}
	s.run = r
	s.current.Store(r)
	s.logger.Info("suite run started",
		"run", r.id,
		"filter", f.String(),
		"selected", len(r.pending),
		"skipped", len(r.results),
		"tick", r.startTick)
	return nil
}

// Advance moves the clock one tick forward. It fails with ErrNotStarted
// outside a run.
func (s *Scheduler) Advance() error {
	if s.current.Load() == nil {
		return ErrNotStarted
	}
	s.clock.Advance()
	return nil
}

// Done reports whether the current run has no pending or active tests
// left. It is true when no run is in progress.
func (s *Scheduler) Done() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run == nil || s.run.complete()
}

// Finish ends the current run and returns its report. Tests still pending
// or active are failed as aborted. It returns nil when no run is in
// progress.
func (s *Scheduler) Finish() *Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.run
	if r == nil {
		return nil
	}
	now := s.clock.Now()
	if !r.complete() {
		s.abort(r, now, errors.New("run finished early"))
	}
	slices.SortStableFunc(r.results, func(a, b Result) int { return a.order - b.order })
	rep := newReport(r.id, r.filter.String(), r.started, now-r.startTick, r.results)

	if rep.ExitCode != ExitSuccess {
		r.span.SetStatus(codes.Error, "suite failed")
	}
	r.span.SetAttributes(
		attribute.Int("gametest.passed", rep.Passed),
		attribute.Int("gametest.failed", rep.Failed),
		attribute.Int("gametest.timed_out", rep.TimedOut),
	)
	r.span.End()
	s.logger.Info("suite run finished",
		"run", r.id,
		"ticks", rep.Ticks,
		"passed", rep.Passed,
		"failed", rep.Failed,
		"timed_out", rep.TimedOut,
		"skipped", rep.Skipped,
		"exit_code", rep.ExitCode)

	s.run = nil
	s.current.Store(nil)
	s.cmdMu.Lock()
	s.cmds = nil
	s.cmdMu.Unlock()
	return rep
}

// RunSuite runs the tests matched by f to completion, advancing the clock
// as fast as possible. When ctx is cancelled the remaining tests fail and
// the partial report is returned together with the context error.
func (s *Scheduler) RunSuite(ctx context.Context, f Filter) (*Report, error) {
	if err := s.Begin(ctx, f); err != nil {
		return nil, err
	}
	for !s.Done() {
		if err := s.Advance(); err != nil {
			return nil, err
		}
	}
	var err error
	if ctx != nil {
		err = ctx.Err()
	}
	return s.Finish(), err
}

// Cancel fails the test id ("suite:name") at the next tick boundary and
// releases its sandbox. It fails with ErrUnknownInstance when id is not
// part of the current run.
func (s *Scheduler) Cancel(id, reason string) error {
	r := s.current.Load()
	if r == nil {
		return ErrNotStarted
	}
	if !r.ids[id] {
		return fmt.Errorf("%w: %s", ErrUnknownInstance, id)
	}
	s.enqueue(command{id: id, reason: reason})
	return nil
}

// CancelAll fails every remaining test at the next tick boundary.
func (s *Scheduler) CancelAll(reason string) error {
	if s.current.Load() == nil {
		return ErrNotStarted
	}
	s.enqueue(command{reason: reason})
	return nil
}

func (s *Scheduler) enqueue(c command) {
	s.cmdMu.Lock()
	s.cmds = append(s.cmds, c)
	s.cmdMu.Unlock()
}

// Results returns a snapshot of the results recorded so far in the current
// run, in finishing order.
func (s *Scheduler) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	return slices.Clone(s.run.results)
}

// Active returns the IDs of the dispatched, unfinished tests in the order
// they are advanced.
func (s *Scheduler) Active() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return nil
	}
	ids := make([]string, len(s.run.running))
	for i, in := range s.run.running {
		ids[i] = in.def.ID()
	}
	return ids
}

// Footprints returns the padded regions of every live sandbox lease.
func (s *Scheduler) Footprints() []Region {
	s.mu.Lock()
	defer s.mu.Unlock()
	leases := s.alloc.Leases()
	out := make([]Region, len(leases))
	for i, l := range leases {
		out[i] = l.Footprint
	}
	return out
}

// tick is the clock handler.
func (s *Scheduler) tick(now uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.run
	if r == nil || r.complete() {
		return
	}
	started := time.Now()
	defer func() {
		s.metrics.Running(len(r.running))
		s.metrics.Tick(time.Since(started))
	}()

	if err := r.ctx.Err(); err != nil {
		s.abort(r, now, err)
		return
	}
	if s.maxRunTicks > 0 && now-r.startTick > s.maxRunTicks {
		s.abort(r, now, fmt.Errorf("exceeded %d ticks", s.maxRunTicks))
		return
	}

	s.applyCommands(r, now)
	s.dispatch(r, now)
	for _, in := range slices.Clone(r.running) {
		in.onTick(now)
		if in.done() {
			s.finalize(r, in, now)
		}
	}
}

func (s *Scheduler) applyCommands(r *run, now uint64) {
	s.cmdMu.Lock()
	cmds := s.cmds
	s.cmds = nil
	s.cmdMu.Unlock()

	for _, c := range cmds {
		reason := "cancelled"
		if c.reason != "" {
			reason += ": " + c.reason
		}
		r.pending = slices.DeleteFunc(r.pending, func(p pendingTest) bool {
			if c.id != "" && p.def.ID() != c.id {
				return false
			}
			s.failPending(r, p, now, reason)
			return true
		})
		for _, in := range slices.Clone(r.running) {
			if c.id != "" && in.def.ID() != c.id {
				continue
			}
			in.fail(reason)
			s.finalize(r, in, now)
		}
	}
}

// abort fails every remaining test of the run.
func (s *Scheduler) abort(r *run, now uint64, cause error) {
	if r.aborted == nil {
		r.aborted = cause
		s.logger.Warn("suite aborted", "run", r.id, "tick", now, "error", cause)
	}
	reason := "suite aborted: " + cause.Error()
	pending := r.pending
	r.pending = nil
	for _, p := range pending {
		s.failPending(r, p, now, reason)
	}
	for _, in := range slices.Clone(r.running) {
		in.fail(reason)
		s.finalize(r, in, now)
	}
}

// dispatch starts pending tests in request order. A test that does not
// fit is deferred and later tests may still start, except within a batch,
// which starts its tests strictly one after another. Backfill means smaller
// tests requested later can take freed space ahead of a deferred larger
// one; since the suite is finite the larger test starts once they are done.
func (s *Scheduler) dispatch(r *run, now uint64) {
	blocked := make(map[string]bool)
	r.pending = slices.DeleteFunc(r.pending, func(p pendingTest) bool {
		return s.tryDispatch(r, p, now, blocked)
	})
}

// tryDispatch reports whether p left the pending queue.
func (s *Scheduler) tryDispatch(r *run, p pendingTest, now uint64, blocked map[string]bool) bool {
	var b *batchState
	if p.def.Batch != "" {
		b = r.batches[p.def.Batch]
		if b.broken != nil {
			s.failPending(r, p, now, "before batch: "+b.broken.Error())
			return true
		}
		if blocked[b.name] {
			return false
		}
		blocked[b.name] = true
		if b.active != nil {
			return false
		}
	}
	if s.maxConcurrent > 0 && len(r.running) >= s.maxConcurrent {
		return false
	}
	if b != nil && !b.opened {
		s.openBatch(r, b)
		if b.broken != nil {
			s.failPending(r, p, now, "before batch: "+b.broken.Error())
			return true
		}
	}

	rotation := sandbox.Rotate0
	if p.def.RotateTest {
		rotation = rotationFor(p.def.ID())
	}
	lease, err := s.alloc.Reserve(sandbox.Request{
		Size:    rotation.Apply(s.structureSize(p.def.StructureName)),
		Padding: p.def.Padding,
	})
	switch {
	case errors.Is(err, sandbox.ErrNoSpace):
		s.metrics.Deferred()
		s.logger.Debug("no room for test, deferring", "test", p.def.ID(), "tick", now)
		return false
	case err != nil:
		s.failPending(r, p, now, err.Error())
		return true
	}

	id := uuid.NewString()
	in := newInstance(id, p.def, p.order, lease, rotation, now,
		s.logger.With("test", p.def.ID(), "instance", id))
	_, in.span = s.tracer.Start(r.ctx, "gametest.instance", trace.WithAttributes(
		attribute.String("gametest.instance_id", id),
		attribute.String("gametest.suite", p.def.Suite),
		attribute.String("gametest.name", p.def.Name),
		attribute.String("gametest.batch", p.def.Batch),
		attribute.String("gametest.region", lease.Region.String()),
	))
	i, _ := slices.BinarySearchFunc(r.running, p.order, func(in *instance, order int) int {
		return in.order - order
	})
	r.running = slices.Insert(r.running, i, in)
	if b != nil {
		b.active = in
	}
	s.metrics.Dispatched(p.def.Batch)
	in.logger.Debug("test dispatched",
		"tick", now,
		"start_tick", in.startTick,
		"region", lease.Region.String(),
		"rotation", rotation.Degrees())
	return true
}

func (s *Scheduler) structureSize(name string) Size {
	if s.catalog != nil {
		if size, ok := s.catalog.Size(name); ok {
			return size
		}
	}
	return sandbox.DefaultStructureSize
}

// rotationFor derives a stable rotation from a test ID.
func rotationFor(id string) Rotation {
	h := fnv.New32a()
	h.Write([]byte(id))
	return Rotation(h.Sum32() % 4)
}

// finalize records a terminal instance and frees what it holds.
func (s *Scheduler) finalize(r *run, in *instance, now uint64) {
	in.endTick = now
	in.close()
	if err := s.alloc.Release(in.lease); err != nil {
		in.logger.Error("cannot release sandbox", "error", err)
	}
	r.running = slices.DeleteFunc(r.running, func(x *instance) bool { return x == in })

	res := in.result()
	if res.State.Failure() {
		in.span.SetStatus(codes.Error, res.FailureReason)
		if in.ctx.Len() > 0 {
			in.logger.Debug("scratch values at failure", "values", in.ctx.Snapshot())
		}
	}
	in.span.SetAttributes(
		attribute.String("gametest.state", res.State.String()),
		attribute.Int("gametest.elapsed_ticks", res.ElapsedTicks),
	)
	in.span.End()
	s.record(r, res)

	if in.def.Batch != "" {
		b := r.batches[in.def.Batch]
		if b.active == in {
			b.active = nil
		}
		s.batchMemberDone(r, b)
	}
}

// failPending records a test that ends without ever being dispatched.
func (s *Scheduler) failPending(r *run, p pendingTest, now uint64, reason string) {
	s.record(r, Result{
		ID:            p.def.ID(),
		Suite:         p.def.Suite,
		Name:          p.def.Name,
		State:         Failed,
		FailureReason: reason,
		Required:      p.def.Required,
		Batch:         p.def.Batch,
		Tags:          p.def.Tags,
		StartTick:     now,
		EndTick:       now,
		order:         p.order,
	})
	if p.def.Batch != "" {
		s.batchMemberDone(r, r.batches[p.def.Batch])
	}
}

func (s *Scheduler) record(r *run, res Result) {
	r.results = append(r.results, res)
	s.metrics.Finished(res.State.String(), res.Required)

	logger := s.logger.With("test", res.ID, "instance", res.InstanceID)
	if res.State.Failure() {
		logger.Warn("test "+res.State.String(),
			"reason", res.FailureReason,
			"ticks", res.ElapsedTicks,
			"required", res.Required)
	} else {
		logger.Info("test "+res.State.String(), "ticks", res.ElapsedTicks)
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(r.ctx, res); err != nil {
			logger.Warn("cannot publish result", "error", err)
		}
	}
}

func (s *Scheduler) openBatch(r *run, b *batchState) {
	b.opened = true
	for _, hook := range b.hooks.before {
		if err := runHook(r.ctx, hook); err != nil {
			b.broken = err
			s.logger.Warn("before batch hook failed", "batch", b.name, "error", err)
			return
		}
	}
	s.logger.Debug("batch opened", "batch", b.name)
}

func (s *Scheduler) batchMemberDone(r *run, b *batchState) {
	b.remaining--
	if b.remaining > 0 || !b.opened || b.broken != nil {
		return
	}
	for _, hook := range b.hooks.after {
		if err := runHook(r.ctx, hook); err != nil {
			s.logger.Warn("after batch hook failed", "batch", b.name, "error", err)
		}
	}
	s.logger.Debug("batch closed", "batch", b.name)
}

func runHook(ctx context.Context, hook BatchHook) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return hook(ctx)
}

func (in *instance) result() Result {
	return Result{
		ID:            in.def.ID(),
		InstanceID:    in.id,
		Suite:         in.def.Suite,
		Name:          in.def.Name,
		State:         in.life.state,
		ElapsedTicks:  in.elapsed(),
		FailureReason: in.life.reason,
		Required:      in.def.Required,
		Batch:         in.def.Batch,
		Tags:          slices.Clone(in.def.Tags),
		Region:        in.lease.Region,
		Rotation:      in.rotation.Degrees(),
		StartTick:     in.startTick,
		EndTick:       in.endTick,
		order:         in.order,
	}
}

func skippedResult(d Definition, order int, now uint64) Result {
	return Result{
		ID:        d.ID(),
		Suite:     d.Suite,
		Name:      d.Name,
		State:     Skipped,
		Required:  d.Required,
		Batch:     d.Batch,
		Tags:      d.Tags,
		StartTick: now,
		EndTick:   now,
		order:     order,
	}
}
