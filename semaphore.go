package cthread

import (
	"math"
	"sync/atomic"
)

// SemValueMax is the largest count a [Semaphore] can hold.
const SemValueMax = math.MaxInt32

// Semaphore is a counting semaphore. Post adds a permit, Wait consumes
// one. It is not a cancellation point.
type Semaphore struct {
	// Each buffered element is one permit. Elements are zero-sized, so the
	// capacity costs nothing.
	ch        chan struct{}
	waiters   atomic.Int32
	destroyed atomic.Bool
}

// NewSemaphore returns a semaphore holding value permits.
// Panics if value is negative or above SemValueMax.
func NewSemaphore(value int) *Semaphore {
	return newSemaphore(value, SemValueMax)
}

func newSemaphore(value, limit int) *Semaphore {
	if value < 0 || value > limit {
		panic("cthread: NewSemaphore requires 0 <= value <= SemValueMax")
	}

	s := &Semaphore{ch: make(chan struct{}, limit)}
	for range value {
		s.ch <- struct{}{}
	}
	return s
}

// Post adds a permit, waking one waiter if any. It returns [ErrOverflow]
// without changing the count when the semaphore is full.
func (s *Semaphore) Post() error {
	if checked {
		s.checkLive("unlocking semaphore")
	}

	select {
	case s.ch <- struct{}{}:
		return nil
	default:
		return ErrOverflow
	}
}

// Wait blocks until a permit is available and consumes it.
func (s *Semaphore) Wait() {
	if checked {
		s.checkLive("locking semaphore")
	}

	s.waiters.Add(1)
	<-s.ch
	s.waiters.Add(-1)
}

// TryWait consumes a permit if one is available, without blocking.
func (s *Semaphore) TryWait() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// Value returns the number of available permits.
// The value may be stale in concurrent contexts.
func (s *Semaphore) Value() int {
	return len(s.ch)
}

// Destroy marks s as no longer usable. Destroying a semaphore with
// blocked waiters is fatal in checked builds.
func (s *Semaphore) Destroy() {
	if !checked {
		return
	}
	if s.waiters.Load() > 0 {
		fatal("destroying semaphore", errBusy)
	}
	if s.destroyed.Swap(true) {
		fatal("destroying semaphore", errInvalid)
	}
}

func (s *Semaphore) checkLive(action string) {
	if s.destroyed.Load() {
		fatal(action, errInvalid)
	}
}
