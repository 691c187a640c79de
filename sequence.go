package gametestx

import (
	"fmt"

	bt "github.com/joeycumines/go-behaviortree"
)

type stepKind int

const (
	stepExecute stepKind = iota
	stepIdle
	stepWait
	stepSucceed
	stepFail
)

type step struct {
	kind   stepKind
	delay  int
	fn     func(t *T)
	wait   *poller
	reason string

	// fired is set once the step's callback ran or its wait passed; the
	// step reports success on the following inspection.
	fired   bool
	firedAt int
}

// Sequence is an ordered list of tick-aligned steps owned by one test
// instance. Steps run strictly in declared order and never re-run. At most
// one step callback runs per tick; a step that only waits (ThenIdle) hands
// over to its successor within the same tick. Each step's delay counts
// from the tick its predecessor completed.
//
// Steps must be declared before the sequence is first ticked, which is at
// the end of the tick that created it.
type Sequence struct {
	in     *instance
	steps  []*step
	root   bt.Node
	cursor int
	since  int
	done   bool
}

func newSequence(in *instance) *Sequence {
	return &Sequence{in: in, since: in.tick}
}

// ThenExecute runs fn once, on the first tick this step is inspected.
func (s *Sequence) ThenExecute(fn func(t *T)) *Sequence {
	return s.ThenExecuteAfter(0, fn)
}

// ThenExecuteAfter runs fn once, n ticks after the previous step completed.
func (s *Sequence) ThenExecuteAfter(n int, fn func(t *T)) *Sequence {
	if fn == nil {
		return s.invalid("nil function passed to ThenExecuteAfter")
	}
	return s.add(&step{kind: stepExecute, delay: max(n, 0), fn: fn})
}

// ThenIdle waits n ticks without running anything.
func (s *Sequence) ThenIdle(n int) *Sequence {
	return s.add(&step{kind: stepIdle, delay: max(n, 0)})
}

// ThenWait polls check once per tick until it returns nil.
func (s *Sequence) ThenWait(check Assertion) *Sequence {
	if check == nil {
		return s.invalid("nil assertion passed to ThenWait")
	}
	return s.add(&step{kind: stepWait, wait: newPoller(check)})
}

// ThenSucceed ends the test successfully.
func (s *Sequence) ThenSucceed() *Sequence {
	return s.add(&step{kind: stepSucceed})
}

// ThenFail ends the test with reason.
func (s *Sequence) ThenFail(reason string) *Sequence {
	return s.add(&step{kind: stepFail, reason: reason})
}

// Cursor returns the index of the current step; it equals the number of
// steps once the sequence has finished.
func (s *Sequence) Cursor() int {
	return s.cursor
}

// Done reports whether every step completed.
func (s *Sequence) Done() bool {
	return s.done
}

func (s *Sequence) add(st *step) *Sequence {
	if s.root != nil {
		return s.invalid("steps added after the sequence started")
	}
	s.steps = append(s.steps, st)
	return s
}

func (s *Sequence) invalid(reason string) *Sequence {
	s.in.fail("sequence: " + reason)
	return s
}

// tick inspects the current step. The steps form a memorized behaviour
// tree sequence: completed leaves keep their cached success, and the leaf
// that ran a callback reports Running, which ends the pass for this tick.
func (s *Sequence) tick(in *instance) {
	if s.done || in.done() {
		return
	}
	if s.root == nil {
		children := make([]bt.Node, len(s.steps))
		for i := range s.steps {
			children[i] = s.leaf(i)
		}
		s.root = bt.New(bt.Memorize(bt.Sequence), children...)
	}
	status, err := s.root.Tick()
	switch {
	case err != nil:
		in.fail(fmt.Sprintf("sequence step %d: %v", s.cursor, err))
	case status == bt.Success:
		s.done = true
	}
}

func (s *Sequence) timeout(tick int) {
	for _, st := range s.steps {
		if st.wait != nil {
			st.wait.expire(tick)
		}
	}
}

func (s *Sequence) leaf(i int) bt.Node {
	return bt.New(func([]bt.Node) (bt.Status, error) {
		return s.inspect(i), nil
	})
}

func (s *Sequence) inspect(i int) bt.Status {
	st := s.steps[i]
	now := s.in.tick
	if st.fired {
		return s.complete(st.firedAt)
	}
	switch st.kind {
	case stepExecute:
		if now < s.since+st.delay {
			return bt.Running
		}
		st.fired, st.firedAt = true, now
		s.in.invoke(func() { st.fn(s.in.t) })
	case stepIdle:
		if now < s.since+st.delay {
			return bt.Running
		}
		return s.complete(now)
	case stepWait:
		if st.wait.poll(s.in) == Passed {
			st.fired, st.firedAt = true, now
		}
	case stepSucceed:
		s.in.succeed()
	case stepFail:
		s.in.fail(st.reason)
	}
	return bt.Running
}

// complete advances the cursor past the current step, starting the next
// step's clock at tick at.
func (s *Sequence) complete(at int) bt.Status {
	s.cursor++
	s.since = at
	return bt.Success
}
