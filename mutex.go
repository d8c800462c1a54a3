package cthread

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

var _ sync.Locker = (*Mutex)(nil)

// Mutex is a mutual exclusion lock with ownership tracking. The zero
// value is an unlocked, non-recursive mutex.
//
// In checked builds (the default) relocking a non-recursive Mutex from
// its holder, unlocking a Mutex the caller does not hold and destroying
// a held Mutex are fatal.
type Mutex struct {
	mu        sync.Mutex
	owner     atomic.Int64 // goroutine id of the holder, 0 when unlocked
	depth     int          // recursion depth, touched by the holder only
	recursive bool
	destroyed atomic.Bool
}

// NewMutex returns an unlocked non-recursive mutex.
func NewMutex() *Mutex {
	return &Mutex{}
}

// NewRecursiveMutex returns a mutex its holder may lock again. Each Lock
// or successful TryLock must be matched by an Unlock.
func NewRecursiveMutex() *Mutex {
	return &Mutex{recursive: true}
}

// Lock acquires m, blocking until it is available.
func (m *Mutex) Lock() {
	self := goid.Get()
	if m.recursive && m.owner.Load() == self {
		m.depth++
		return
	}

	if checked {
		m.checkLive("locking mutex")
		if m.owner.Load() == self {
			fatal("locking mutex", errDeadlock)
		}
	}

	m.mu.Lock()
	m.owner.Store(self)
	m.depth = 1
}

// TryLock acquires m if it is free and reports whether it did. A false
// result only ever means the mutex is held; every other failure is fatal.
func (m *Mutex) TryLock() bool {
	self := goid.Get()
	if m.recursive && m.owner.Load() == self {
		m.depth++
		return true
	}

	if checked {
		m.checkLive("locking mutex")
	}

	if !m.mu.TryLock() {
		return false
	}
	m.owner.Store(self)
	m.depth = 1
	return true
}

// Unlock releases one level of m.
func (m *Mutex) Unlock() {
	if (checked || m.recursive) && m.owner.Load() != goid.Get() {
		fatal("unlocking mutex", errNotOwner)
	}

	if m.recursive {
		m.depth--
		if m.depth > 0 {
			return
		}
	}

	m.depth = 0
	m.owner.Store(0)
	m.mu.Unlock()
}

// Destroy marks m as no longer usable. Destroying a held or already
// destroyed mutex is fatal in checked builds; release builds make it a
// no-op.
func (m *Mutex) Destroy() {
	if !checked {
		return
	}
	if m.owner.Load() != 0 {
		fatal("destroying mutex", errBusy)
	}
	if m.destroyed.Swap(true) {
		fatal("destroying mutex", errInvalid)
	}
}

func (m *Mutex) checkLive(action string) {
	if m.destroyed.Load() {
		fatal(action, errInvalid)
	}
}

// assertWaitable checks that the caller holds m exactly once, which a
// condition wait needs to release it fully.
func (m *Mutex) assertWaitable(action string) {
	if m.owner.Load() != goid.Get() {
		fatal(action, errNotOwner)
	}
	if m.depth != 1 {
		fatal(action, errInvalid)
	}
}
