package cthread

import "runtime"

// Cancel marks t for termination. It never blocks on t and never fails;
// calling it again has no further effect.
//
// Cancellation is cooperative: t terminates the next time it reaches a
// cancellation point ([TestCancel], [Cond.Wait], [Cond.TimedWait],
// [Sleep], [SleepUntil]) with cancellation enabled. If t is blocked in a
// condition wait, the condition is broadcast so that t wakes up and
// observes the request. A thread that never reaches a cancellation point
// never terminates.
func (t *Thread) Cancel() {
	if !t.killed.Swap(true) {
		t.log.Debug("cthread: cancel requested")
	}

	t.waitMu.Lock()
	if c := t.waiting; c != nil {
		c.Broadcast()
	}
	t.waitMu.Unlock()
}

// Canceled reports whether t has been marked for termination.
func (t *Thread) Canceled() bool {
	return t.killed.Load()
}

// SaveCancel disables cancellation for the calling thread and returns
// the previous state, to be handed back to [RestoreCancel]. Called from a
// goroutine not started by [Spawn] it returns false and does nothing.
//
//	defer cthread.RestoreCancel(cthread.SaveCancel())
func SaveCancel() bool {
	t := Self()
	if t == nil {
		return false
	}

	state := t.killable
	t.killable = false
	return state
}

// RestoreCancel restores the cancellation state returned by the matching
// [SaveCancel]. Calls must nest: restoring while cancellation is enabled
// is fatal in checked builds.
func RestoreCancel(state bool) {
	t := Self()
	if t == nil {
		return
	}

	if checked && t.killable {
		fatal("restoring cancellation state", errUnbalanced)
	}
	t.killable = state
}

// TestCancel is a cancellation point. If the calling thread has been
// canceled and has cancellation enabled, TestCancel runs its cleanup
// handlers in reverse push order and terminates it; deferred calls then
// run as for [runtime.Goexit]. Otherwise it returns immediately.
func TestCancel() {
	if t := Self(); t != nil {
		t.testCancel()
	}
}

func (t *Thread) cancelPending() bool {
	return t.killable && !t.exiting && t.killed.Load()
}

func (t *Thread) testCancel() {
	if !t.cancelPending() {
		return
	}

	t.exiting = true
	t.killable = false
	t.runCleaners()
	runtime.Goexit()
}

// runCleaners pops and runs every handler, most recent first. Each
// handler is popped before it runs so a panicking handler is not rerun.
func (t *Thread) runCleaners() {
	for n := len(t.cleaners); n > 0; n = len(t.cleaners) {
		c := t.cleaners[n-1]
		t.cleaners[n-1] = nil
		t.cleaners = t.cleaners[:n-1]
		c.popped = true
		c.fn()
	}
}

// Cleanup is a handler registered with [PushCleanup].
type Cleanup struct {
	fn     func()
	owner  *Thread
	popped bool
}

// PushCleanup registers fn to run if the calling thread is canceled
// before the returned handler is popped. Handlers form a stack: they
// must be popped in reverse push order. The usual form is a scoped guard
// that runs fn on every way out of the enclosing function:
//
//	mu.Lock()
//	defer cthread.PushCleanup(mu.Unlock).Run()
//
// On a goroutine not started by [Spawn] nothing is registered, but the
// handle still runs fn from [Cleanup.Run].
func PushCleanup(fn func()) *Cleanup {
	if fn == nil {
		panic("cthread: PushCleanup requires a non-nil handler")
	}

	c := &Cleanup{fn: fn}
	if t := Self(); t != nil {
		c.owner = t
		t.cleaners = append(t.cleaners, c)
	}
	return c
}

// Pop unregisters the handler without running it.
func (c *Cleanup) Pop() {
	c.pop()
}

// Run unregisters the handler and runs it. During a cancellation unwind
// the handler has already run, and Run does nothing.
func (c *Cleanup) Run() {
	if c.pop() {
		c.fn()
	}
}

func (c *Cleanup) pop() bool {
	t := c.owner
	if t != nil && t.exiting && c.popped {
		return false
	}
	if c.popped {
		fatal("popping cleanup handler", errInvalid)
	}
	c.popped = true
	if t == nil {
		return true
	}

	n := len(t.cleaners)
	if n == 0 {
		fatal("popping cleanup handler", errUnbalanced)
	}
	if checked && t.cleaners[n-1] != c {
		fatal("popping cleanup handler", errUnbalanced)
	}
	t.cleaners[n-1] = nil
	t.cleaners = t.cleaners[:n-1]
	return true
}
