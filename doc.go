// Package gametestx is a tick-scheduled scenario test runner.
//
// Tests are registered against a Registry, either with the fluent Handle
// returned by Register/RegisterAsync or by adding a Definition built with
// the builder package. A Scheduler then selects a suite by tag or filter,
// reserves a non-overlapping sandbox region for each test instance and
// drives every running instance forward one discrete tick at a time.
//
// # Example Usage
//
//	reg := gametestx.NewRegistry()
//	reg.Register("redstone", "piston_push", func(t *gametestx.T) {
//		t.StartSequence().
//			ThenExecute(func(t *gametestx.T) { world.Place(t.Origin(), "piston") }).
//			ThenIdle(2).
//			ThenWait(func(t *gametestx.T) error { return world.Expect(t.Origin(), "moved") }).
//			ThenSucceed()
//	}).MaxTicks(40).Tag(gametestx.TagSuiteDefault)
//
//	sched, _ := gametestx.NewScheduler(reg)
//	report, _ := sched.RunSuite(ctx, gametestx.Tags(gametestx.TagSuiteDefault))
//	os.Exit(int(report.ExitCode))
//
// # Ticks
//
// The tick is the only unit of time. Each Advance moves the global clock by
// exactly one tick and visits every running instance in registration order.
// An instance dispatched on tick G with SetupTicks S runs its body on tick
// G+S (local tick 0) and is timed out on local tick MaxTicks unless it
// succeeded or failed first.
//
// # Assertions
//
// Assertion callbacks return nil to pass and an error to mean "not yet";
// the error is retried on the next tick and only surfaces as the reason of
// an eventual timeout. A hard failure is an explicit call to T.Fail or
// T.Failf. Panics inside callbacks fail the test.
//
// # Async Bodies
//
// RegisterAsync bodies run on their own goroutine but never concurrently
// with the scheduler: control is handed back and forth over channels, so
// T.Idle(n) reads like a blocking sleep measured in ticks.
package gametestx
