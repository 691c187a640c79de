package gametestx

import (
	"fmt"
)

// State is the lifecycle state of a test instance.
type State int

const (
	Pending State = iota
	Running
	Succeeded
	Failed
	TimedOut
	// Skipped marks definitions excluded by the run's filter. It never
	// applies to an instance, only to a Result.
	Skipped
)

var stateNames = [...]string{
	Pending:   "pending",
	Running:   "running",
	Succeeded: "succeeded",
	Failed:    "failed",
	TimedOut:  "timed_out",
	Skipped:   "skipped",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether s is an end state.
func (s State) Terminal() bool {
	return s == Succeeded || s == Failed || s == TimedOut || s == Skipped
}

// Failure reports whether s counts against a run's verdict.
func (s State) Failure() bool {
	return s == Failed || s == TimedOut
}

// MarshalText encodes the state by name for JSON and YAML reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("gametestx: unknown state %q", b)
}

// transitions lists the legal lifecycle edges. Pending may jump straight
// to Failed when an instance is cancelled or its region can never fit.
var transitions = map[State][]State{
	Pending: {Running, Failed},
	Running: {Succeeded, Failed, TimedOut},
}

// lifecycle guards an instance's state so it reaches exactly one terminal
// state.
type lifecycle struct {
	state  State
	reason string
}

// to moves to next. It fails for illegal edges, including any edge out of
// a terminal state.
func (l *lifecycle) to(next State, reason string) error {
	for _, allowed := range transitions[l.state] {
		if allowed == next {
			l.state = next
			if next.Terminal() {
				l.reason = reason
			}
			return nil
		}
	}
	return fmt.Errorf("gametestx: illegal transition %s -> %s", l.state, next)
}
