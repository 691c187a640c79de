// Package realtime paces a gametestx.Scheduler with a wall-clock ticker.
//
// The scheduler on its own advances as fast as the caller loops. A game
// server that hosts the tests instead advances one tick per frame, and
// operators send control commands (cancel a test, cancel the run) from
// other goroutines while the suite runs. The runtime:
//   - Advances the scheduler once per TickRate
//   - Batches commands and applies them at tick boundaries
//   - Orders commands deterministically via priority and sequence numbers
//
// # Example Usage
//
//	rt := realtime.NewRuntime(sched, realtime.Config{
//		TickRate: 50 * time.Millisecond, // 20 ticks per second
//	})
//	report, err := rt.Run(ctx, gametestx.Tags(gametestx.TagSuiteDefault))
//
// # Command Ordering Guarantees
//
// Commands queued for one tick are applied:
//  1. Higher priority first
//  2. In submission order for equal priority (sequence number)
//
// Commands are applied before the scheduler advances, so a cancellation
// queued during tick N takes effect at the start of tick N+1.
package realtime
