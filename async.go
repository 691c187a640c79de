package gametestx

import "runtime"

// asyncBridge runs an AsyncBody on its own goroutine with strict hand-off:
// the tick goroutine blocks in wait while the body runs, and the body
// blocks in Idle while the tick goroutine runs. Only one side is ever
// active, so the body may use T freely.
type asyncBridge struct {
	yield  chan int
	resume chan struct{}
	done   chan struct{}

	wake      int
	suspended bool
	finished  bool
	// active is true while the body goroutine holds control.
	active bool
}

func (in *instance) startAsync(body AsyncBody) {
	b := &asyncBridge{
		yield:  make(chan int),
		resume: make(chan struct{}),
		done:   make(chan struct{}),
	}
	in.async = b
	b.active = true
	go func() {
		defer close(b.done)
		defer func() {
			if r := recover(); r != nil {
				in.recordPanic(r)
			}
		}()
		if err := body(in.t); err != nil {
			in.fail(err.Error())
		}
	}()
	b.wait()
}

// wait blocks until the body suspends or returns.
func (b *asyncBridge) wait() {
	select {
	case wake := <-b.yield:
		b.wake = wake
		b.suspended = true
	case <-b.done:
		b.finished = true
		b.suspended = false
	}
	b.active = false
}

// resumeIfDue hands control back to a suspended body whose wake tick has
// been reached.
func (b *asyncBridge) resumeIfDue(tick int) {
	if b == nil || !b.suspended || tick < b.wake {
		return
	}
	b.suspended = false
	b.active = true
	b.resume <- struct{}{}
	b.wait()
}

// abort unwinds a suspended body. Its deferred calls run before abort
// returns.
func (b *asyncBridge) abort() {
	if b == nil || b.finished {
		return
	}
	if b.suspended {
		close(b.resume)
		b.suspended = false
	}
	<-b.done
	b.finished = true
}

// idle suspends the calling body for n ticks. It only returns if the
// instance is still running when the body is resumed.
func (b *asyncBridge) idle(in *instance, n int) {
	if in.done() {
		runtime.Goexit()
	}
	b.yield <- in.tick + n
	if _, ok := <-b.resume; !ok {
		runtime.Goexit()
	}
}
