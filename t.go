package gametestx

import (
	"fmt"
	"log/slog"
)

// T is the handle a test body and its callbacks use to talk to the runner.
// It is only valid on the tick goroutine, or inside an async body while
// that body holds control.
type T struct {
	in *instance
}

// Tick returns the instance-local tick, 0 on the tick the body ran.
func (t *T) Tick() int { return t.in.tick }

// ID returns the instance's unique run identifier.
func (t *T) ID() string { return t.in.id }

func (t *T) Suite() string { return t.in.def.Suite }

func (t *T) Name() string { return t.in.def.Name }

// Definition returns a copy of the definition being run.
func (t *T) Definition() Definition { return t.in.def.clone() }

// Region returns the structure region of the instance's sandbox, without
// padding.
func (t *T) Region() Region { return t.in.lease.Region }

// Origin is the minimum corner of Region.
func (t *T) Origin() Pos { return t.in.lease.Region.Min }

func (t *T) Rotation() Rotation { return t.in.rotation }

// Context returns the instance's key/value store.
func (t *T) Context() *Context { return t.in.ctx }

func (t *T) Logger() *slog.Logger { return t.in.logger }

// Done reports whether the instance reached a terminal state.
func (t *T) Done() bool { return t.in.done() }

// Succeed ends the test successfully. Calls after the test ended are
// ignored.
func (t *T) Succeed() { t.in.succeed() }

// Fail ends the test with reason.
func (t *T) Fail(reason string) { t.in.fail(reason) }

// Failf is Fail with a formatted reason.
func (t *T) Failf(format string, args ...any) {
	t.in.fail(fmt.Sprintf(format, args...))
}

// SucceedWhen arms check: it is polled once per tick, starting this tick,
// and the test succeeds the first time it returns nil.
func (t *T) SucceedWhen(check Assertion) {
	if check == nil {
		t.Fail("nil assertion passed to SucceedWhen")
		return
	}
	t.in.tickers = append(t.in.tickers, successPoller{newPoller(check)})
}

// SucceedOnTick succeeds the test on local tick n.
func (t *T) SucceedOnTick(n int) {
	t.in.succeedAt, t.in.succeedWhen = n, nil
}

// SucceedOnTickWhen evaluates check once on local tick n. The test
// succeeds if it returns nil and fails otherwise.
func (t *T) SucceedOnTickWhen(n int, check Assertion) {
	if check == nil {
		t.Fail("nil assertion passed to SucceedOnTickWhen")
		return
	}
	t.in.succeedAt, t.in.succeedWhen = n, check
}

// RunAtTick runs fn once on local tick n. A tick already in the past runs
// fn on the current tick.
func (t *T) RunAtTick(n int, fn func(t *T)) {
	if fn == nil {
		t.Fail("nil function passed to RunAtTick")
		return
	}
	t.in.scheduled = append(t.in.scheduled, scheduledCall{at: n, fn: fn})
}

// RunAfterDelay runs fn once, n ticks from now.
func (t *T) RunAfterDelay(n int, fn func(t *T)) {
	t.RunAtTick(t.in.tick+max(n, 0), fn)
}

// StartSequence creates an empty sequence. Steps are added with the Then
// methods and the sequence is first inspected at the end of this tick.
func (t *T) StartSequence() *Sequence {
	s := newSequence(t.in)
	t.in.tickers = append(t.in.tickers, s)
	return s
}

// Idle suspends an async body for n ticks. It fails the test when called
// from anything but the running async body. If the test ends while the
// body is suspended, Idle never returns; the body's deferred calls still
// run.
func (t *T) Idle(n int) {
	b := t.in.async
	if b == nil || !b.active {
		t.Fail("Idle called outside an async test body")
		return
	}
	if n <= 0 {
		return
	}
	b.idle(t.in, n)
}
