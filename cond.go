package cthread

import (
	"slices"
	"sync"
	"time"
)

// Cond is a condition variable whose waits are cancellation points.
// The zero value is a condition timed against the monotonic clock.
//
// As with any condition variable, wakeups may be spurious: waiters must
// re-check their predicate in a loop. A Cond must not be copied after
// first use.
type Cond struct {
	mu      sync.Mutex
	waiters []*waiter
	wall    bool
}

type waiter struct {
	ch chan struct{} // closed on wake
	// signaled is set under Cond.mu when Signal, not Broadcast, picked
	// this waiter.
	signaled bool
}

// NewCond returns a condition whose timed waits take deadlines on the
// monotonic clock ([Cond.TimedWait]).
func NewCond() *Cond {
	return &Cond{}
}

// NewWallCond returns a condition whose timed waits take wall-clock
// deadlines ([Cond.TimedWaitWall]).
func NewWallCond() *Cond {
	return &Cond{wall: true}
}

// Signal wakes one waiter, if any.
func (c *Cond) Signal() {
	c.mu.Lock()
	if len(c.waiters) > 0 {
		w := c.waiters[0]
		c.waiters = slices.Delete(c.waiters, 0, 1)
		w.signaled = true
		close(w.ch)
	}
	c.mu.Unlock()
}

// Broadcast wakes every waiter.
func (c *Cond) Broadcast() {
	c.mu.Lock()
	for _, w := range c.waiters {
		close(w.ch)
	}
	c.waiters = nil
	c.mu.Unlock()
}

// Wait atomically releases m and blocks until the condition is signaled,
// then reacquires m. The caller must hold m.
//
// Wait is a cancellation point on entry and on wake. When the calling
// thread is canceled while blocked, it wakes and terminates with m held,
// so a cleanup handler that unlocks m should be pushed around the wait.
func (c *Cond) Wait(m sync.Locker) {
	c.wait(m, 0, false)
}

// TimedWait is like [Cond.Wait] but gives up at deadline and then returns
// [ErrTimedOut]. A deadline within the clock precision of now times out
// immediately, without releasing m or blocking. Timing out is not a
// cancellation trigger, but the wake path still tests for cancellation.
func (c *Cond) TimedWait(m sync.Locker, deadline Instant) error {
	if checked && c.wall {
		fatal("timed-waiting on condition", errInvalid)
	}

	clockSetup()
	rel := deadline - clockPrec - monotonicNow()
	if rel <= 0 {
		return ErrTimedOut
	}
	return c.wait(m, span(rel), true)
}

// TimedWaitWall is [Cond.TimedWait] for a condition created with
// [NewWallCond]. The deadline is read against the wall clock when the
// wait starts; later wall-clock steps do not move it.
func (c *Cond) TimedWaitWall(m sync.Locker, deadline time.Time) error {
	if checked && !c.wall {
		fatal("timed-waiting on condition", errInvalid)
	}

	// Round(0) drops monotonic readings so the difference is taken on
	// the wall clock.
	rel := deadline.Round(0).Sub(time.Now().Round(0)) - Precision()
	if rel <= 0 {
		return ErrTimedOut
	}
	return c.wait(m, rel, true)
}

// Destroy checks that no thread is waiting on c. It is fatal in checked
// builds to destroy a condition with waiters.
func (c *Cond) Destroy() {
	if !checked {
		return
	}

	c.mu.Lock()
	n := len(c.waiters)
	c.mu.Unlock()
	if n > 0 {
		fatal("destroying condition", errBusy)
	}
}

func (c *Cond) wait(m sync.Locker, timeout time.Duration, timed bool) error {
	if mm, ok := m.(*Mutex); ok && checked {
		mm.assertWaitable("waiting on condition")
	}

	t := Self()
	if t != nil {
		t.testCancel()
		if !t.registerWait(c) {
			t = nil
		}
	}

	w := c.enqueue()

	// A Cancel that ran before registerWait saw no registration and
	// broadcast nothing, so check again now that w is queued.
	if t != nil && t.cancelPending() {
		if !c.dequeue(w) && w.signaled {
			c.Signal()
		}
		t.endWait()
		t.testCancel()
	}

	m.Unlock()

	woken := true
	if timed {
		timer := time.NewTimer(timeout)
		select {
		case <-w.ch:
		case <-timer.C:
			if c.dequeue(w) {
				woken = false
			} else {
				<-w.ch
			}
		}
		timer.Stop()
	} else {
		<-w.ch
	}

	m.Lock()

	if t != nil {
		t.endWait()
		if woken && w.signaled && t.cancelPending() {
			// A canceled waiter must not swallow a signal meant for
			// another waiter.
			c.Signal()
		}
		t.testCancel()
	}

	if !woken {
		return ErrTimedOut
	}
	return nil
}

func (c *Cond) enqueue() *waiter {
	w := &waiter{ch: make(chan struct{})}
	c.mu.Lock()
	c.waiters = append(c.waiters, w)
	c.mu.Unlock()
	return w
}

// dequeue removes w and reports whether it was still queued. False means
// a Signal or Broadcast has already woken it.
func (c *Cond) dequeue(w *waiter) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	i := slices.Index(c.waiters, w)
	if i < 0 {
		return false
	}
	c.waiters = slices.Delete(c.waiters, i, i+1)
	return true
}

// registerWait records c as the condition t is about to block on. A
// Cancel holding waitMu must not be waited for: when the lock is
// contended registerWait tests for cancellation instead and reports
// false, and the wait goes on unregistered.
func (t *Thread) registerWait(c *Cond) bool {
	if !t.waitMu.TryLock() {
		t.testCancel()
		return false
	}
	t.waiting = c
	t.waitMu.Unlock()
	return true
}

func (t *Thread) endWait() {
	t.waitMu.Lock()
	t.waiting = nil
	t.waitMu.Unlock()
}
