package gametestx

import "fmt"

// Assertion checks world state. It returns nil when satisfied and an error
// when not yet satisfied; the error is retried on the next tick. Hard
// failures go through T.Fail. Because a polled assertion runs once per tick
// until it passes, any side effects it has must be safe to repeat.
type Assertion func(t *T) error

// Assertf returns nil when cond holds and a formatted error otherwise.
func Assertf(cond bool, format string, args ...any) error {
	if cond {
		return nil
	}
	return fmt.Errorf(format, args...)
}

// PollState is the state of an armed assertion.
type PollState int

const (
	Armed PollState = iota
	Passed
	PollFailed
	PollTimedOut
)

func (s PollState) String() string {
	switch s {
	case Armed:
		return "armed"
	case Passed:
		return "passed"
	case PollFailed:
		return "failed"
	case PollTimedOut:
		return "timed_out"
	}
	return fmt.Sprintf("PollState(%d)", int(s))
}

// poller re-runs one assertion each tick until it passes, fails hard or is
// expired by the instance timeout.
type poller struct {
	check Assertion
	state PollState
	tick  int
	err   error
}

func newPoller(check Assertion) *poller {
	return &poller{check: check}
}

// poll evaluates the assertion once for the instance's current tick.
func (p *poller) poll(in *instance) PollState {
	if p.state != Armed {
		return p.state
	}
	var err error
	completed := in.invoke(func() { err = p.check(in.t) })
	p.tick = in.tick
	switch {
	case !completed:
		p.state = PollFailed
	case in.done():
		// The assertion ended the test itself.
		if in.life.state == Succeeded {
			p.state = Passed
		} else {
			p.state = PollFailed
		}
	case err != nil:
		p.err = err
		in.lastRetry = err
		in.logger.Debug("assertion not yet satisfied", "tick", in.tick, "error", err)
	default:
		p.state = Passed
	}
	return p.state
}

// expire times the poller out if it is still armed.
func (p *poller) expire(tick int) {
	if p.state == Armed {
		p.state = PollTimedOut
		p.tick = tick
	}
}

// successPoller is the ticker behind T.SucceedWhen: the instance succeeds
// on the first tick the assertion passes.
type successPoller struct {
	*poller
}

func (s successPoller) tick(in *instance) {
	if s.poll(in) == Passed {
		in.succeed()
	}
}

func (s successPoller) timeout(tick int) {
	s.expire(tick)
}
