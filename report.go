package gametestx

import (
	"context"
	"time"
)

// Exit statuses of a suite run.
const (
	ExitSuccess = 0
	ExitFailure = 1
)

// Result is the outcome of one test in a run.
type Result struct {
	ID            string   `json:"id" yaml:"id"`
	InstanceID    string   `json:"instance_id,omitempty" yaml:"instance_id,omitempty"`
	Suite         string   `json:"suite" yaml:"suite"`
	Name          string   `json:"name" yaml:"name"`
	State         State    `json:"state" yaml:"state"`
	ElapsedTicks  int      `json:"elapsed_ticks" yaml:"elapsed_ticks"`
	FailureReason string   `json:"failure_reason,omitempty" yaml:"failure_reason,omitempty"`
	Required      bool     `json:"required" yaml:"required"`
	Batch         string   `json:"batch,omitempty" yaml:"batch,omitempty"`
	Tags          []string `json:"tags,omitempty" yaml:"tags,omitempty"`
	Region        Region   `json:"region" yaml:"region"`
	Rotation      int      `json:"rotation" yaml:"rotation"`
	StartTick     uint64   `json:"start_tick" yaml:"start_tick"`
	EndTick       uint64   `json:"end_tick" yaml:"end_tick"`

	order int
}

// Blocking reports whether the result fails the run.
func (r Result) Blocking() bool {
	return r.Required && r.State.Failure()
}

// Report summarizes a suite run. Results are in registration order.
type Report struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Filter     string    `json:"filter" yaml:"filter"`
	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`
	Ticks      uint64    `json:"ticks" yaml:"ticks"`
	Results    []Result  `json:"results" yaml:"results"`

	Passed   int `json:"passed" yaml:"passed"`
	Failed   int `json:"failed" yaml:"failed"`
	TimedOut int `json:"timed_out" yaml:"timed_out"`
	Skipped  int `json:"skipped" yaml:"skipped"`
	// Optional counts failures of tests that are not required.
	Optional int `json:"optional_failures" yaml:"optional_failures"`

	ExitCode int `json:"exit_code" yaml:"exit_code"`
}

func newReport(runID, filter string, started time.Time, ticks uint64, results []Result) *Report {
	rep := &Report{
		RunID:      runID,
		Filter:     filter,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Ticks:      ticks,
		Results:    results,
	}
	for _, r := range results {
		switch r.State {
		case Succeeded:
			rep.Passed++
		case Failed:
			rep.Failed++
		case TimedOut:
			rep.TimedOut++
		case Skipped:
			rep.Skipped++
		}
		if r.State.Failure() && !r.Required {
			rep.Optional++
		}
		if r.Blocking() {
			rep.ExitCode = ExitFailure
		}
	}
	return rep
}

// Result returns the result for the test id ("suite:name").
func (r *Report) Result(id string) (Result, bool) {
	for _, res := range r.Results {
		if res.ID == id {
			return res, true
		}
	}
	return Result{}, false
}

// Failures returns every Failed or TimedOut result, required or not.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.State.Failure() {
			out = append(out, res)
		}
	}
	return out
}

// Publisher receives each result once its test reached a terminal state.
type Publisher interface {
	Publish(ctx context.Context, r Result) error
}

// Metrics observes scheduler activity.
type Metrics interface {
	Tick(d time.Duration)
	Dispatched(batch string)
	Finished(state string, required bool)
	Deferred()
	Running(n int)
}

type nopMetrics struct{}

func (nopMetrics) Tick(time.Duration)    {}
func (nopMetrics) Dispatched(string)     {}
func (nopMetrics) Finished(string, bool) {}
func (nopMetrics) Deferred()             {}
func (nopMetrics) Running(int)           {}
