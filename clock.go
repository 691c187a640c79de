package gametestx

import "sync/atomic"

// Clock is the global tick counter. Advance increments it by exactly one
// and hands the new tick to the installed handler.
type Clock struct {
	now       atomic.Uint64
	advancing atomic.Bool
	onTick    func(now uint64)
}

// NewClock returns a clock at tick 0 that calls onTick on every advance.
func NewClock(onTick func(now uint64)) *Clock {
	return &Clock{onTick: onTick}
}

// Now returns the current tick.
func (c *Clock) Now() uint64 {
	return c.now.Load()
}

// Advance moves the clock forward one tick. Calling it from inside the
// handler panics with ErrReentrantTick.
func (c *Clock) Advance() uint64 {
	if !c.advancing.CompareAndSwap(false, true) {
		panic(ErrReentrantTick)
	}
	defer c.advancing.Store(false)

	now := c.now.Add(1)
	if c.onTick != nil {
		c.onTick(now)
	}
	return now
}
