package gametestx

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/comalice/gametestx/internal/sandbox"
	"go.opentelemetry.io/otel/trace"
)

// ticker is anything an instance polls once per tick: armed assertions and
// sequences.
type ticker interface {
	tick(in *instance)
	timeout(tick int)
}

type scheduledCall struct {
	at int
	fn func(t *T)
}

// instance is one execution of a Definition.
type instance struct {
	id       string
	def      Definition
	order    int
	lease    sandbox.Lease
	rotation sandbox.Rotation
	life     lifecycle

	dispatchTick uint64
	startTick    uint64
	endTick      uint64
	tick         int
	started      bool

	t      *T
	ctx    *Context
	logger *slog.Logger
	span   trace.Span

	tickers     []ticker
	scheduled   []scheduledCall
	succeedAt   int
	succeedWhen Assertion
	async       *asyncBridge
	lastRetry   error
}

func newInstance(id string, def Definition, order int, lease sandbox.Lease, rotation sandbox.Rotation, now uint64, logger *slog.Logger) *instance {
	in := &instance{
		id:           id,
		def:          def,
		order:        order,
		lease:        lease,
		rotation:     rotation,
		dispatchTick: now,
		startTick:    now + uint64(def.SetupTicks),
		ctx:          NewContext(),
		logger:       logger,
		succeedAt:    -1,
	}
	in.t = &T{in: in}
	return in
}

func (in *instance) done() bool {
	return in.life.state.Terminal()
}

// onTick advances the instance to global tick now.
func (in *instance) onTick(now uint64) {
	if in.done() || now < in.startTick {
		return
	}
	in.tick = int(now - in.startTick)

	if !in.started {
		in.started = true
		if err := in.life.to(Running, ""); err != nil {
			in.logger.Error("cannot start instance", "error", err)
			return
		}
		in.runBody()
	} else {
		in.async.resumeIfDue(in.tick)
	}
	if in.done() {
		return
	}

	in.runScheduled()
	for i := 0; i < len(in.tickers) && !in.done(); i++ {
		in.tickers[i].tick(in)
	}
	if in.done() {
		return
	}

	in.checkSucceedAt()
	if !in.done() && in.tick >= in.def.MaxTicks {
		in.timeout()
	}
}

func (in *instance) runBody() {
	if in.def.AsyncBody != nil {
		in.startAsync(in.def.AsyncBody)
		return
	}
	in.invoke(func() { in.def.Body(in.t) })
}

// runScheduled runs every RunAtTick callback due by now, earliest tick
// first and in scheduling order within a tick.
func (in *instance) runScheduled() {
	for !in.done() {
		next := -1
		for i, c := range in.scheduled {
			if c.at <= in.tick && (next < 0 || c.at < in.scheduled[next].at) {
				next = i
			}
		}
		if next < 0 {
			return
		}
		call := in.scheduled[next]
		in.scheduled = slices.Delete(in.scheduled, next, next+1)
		in.invoke(func() { call.fn(in.t) })
	}
}

func (in *instance) checkSucceedAt() {
	if in.succeedAt < 0 || in.tick < in.succeedAt {
		return
	}
	if in.succeedWhen == nil {
		in.succeed()
		return
	}
	var err error
	if !in.invoke(func() { err = in.succeedWhen(in.t) }) || in.done() {
		return
	}
	if err != nil {
		in.fail(fmt.Sprintf("condition not met on tick %d: %v", in.succeedAt, err))
		return
	}
	in.succeed()
}

func (in *instance) timeout() {
	reason := fmt.Sprintf("timed out after %d ticks", in.def.MaxTicks)
	if in.lastRetry != nil {
		reason += ": " + in.lastRetry.Error()
	}
	for _, tk := range in.tickers {
		tk.timeout(in.tick)
	}
	in.finish(TimedOut, reason)
}

func (in *instance) succeed() {
	in.finish(Succeeded, "")
}

func (in *instance) fail(reason string) {
	if reason == "" {
		reason = "failed"
	}
	in.finish(Failed, reason)
}

// finish records the first terminal state; later calls are ignored.
func (in *instance) finish(state State, reason string) {
	if in.done() {
		return
	}
	if err := in.life.to(state, reason); err != nil {
		in.logger.Error("dropping lifecycle transition", "error", err)
	}
}

// invoke runs a user callback, turning a panic into a test failure. It
// reports whether fn returned normally.
func (in *instance) invoke(fn func()) (completed bool) {
	defer func() {
		if r := recover(); r != nil {
			in.recordPanic(r)
			completed = false
		}
	}()
	fn()
	return true
}

func (in *instance) recordPanic(r any) {
	if err, ok := r.(error); ok && errors.Is(err, ErrReentrantTick) {
		panic(r)
	}
	in.fail(fmt.Sprintf("panic: %v", r))
}

// close releases everything the instance holds besides its lease.
func (in *instance) close() {
	in.async.abort()
	in.tickers = nil
	in.scheduled = nil
}

func (in *instance) elapsed() int {
	if !in.started {
		return 0
	}
	return in.tick
}
