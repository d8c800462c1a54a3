package cthread

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

// RWLock is a reader/writer lock: many readers or one writer. Unlike
// [sync.RWMutex] a single Unlock releases whichever mode the caller holds.
// The zero value is an unlocked RWLock.
//
// Read locks are not recursive. As with [sync.RWMutex], a blocked Lock
// call keeps new readers out, so a goroutine that calls RLock while
// already holding a read lock can deadlock against a pending writer.
type RWLock struct {
	mu        rwMutex
	writer    atomic.Int64 // goroutine id of the write holder
	readers   atomic.Int32
	destroyed atomic.Bool
}

// NewRWLock returns an unlocked RWLock.
func NewRWLock() *RWLock {
	return &RWLock{}
}

// RLock acquires l for reading.
func (l *RWLock) RLock() {
	if checked {
		l.checkLive("acquiring R/W lock for reading")
		if l.writer.Load() == goid.Get() {
			fatal("acquiring R/W lock for reading", errDeadlock)
		}
	}

	l.mu.RLock()
	l.readers.Add(1)
}

// Lock acquires l for writing.
func (l *RWLock) Lock() {
	self := goid.Get()
	if checked {
		l.checkLive("acquiring R/W lock for writing")
		if l.writer.Load() == self {
			fatal("acquiring R/W lock for writing", errDeadlock)
		}
	}

	l.mu.Lock()
	l.writer.Store(self)
}

// Unlock releases the write lock if the caller holds it, otherwise one
// read lock. Releasing a lock nobody holds is fatal.
func (l *RWLock) Unlock() {
	if l.writer.Load() == goid.Get() {
		l.writer.Store(0)
		l.mu.Unlock()
		return
	}

	if l.readers.Add(-1) < 0 {
		l.readers.Add(1)
		fatal("releasing R/W lock", errNotOwner)
	}
	l.mu.RUnlock()
}

// Destroy marks l as no longer usable. Destroying a held lock is fatal
// in checked builds.
func (l *RWLock) Destroy() {
	if !checked {
		return
	}
	if l.writer.Load() != 0 || l.readers.Load() != 0 {
		fatal("destroying R/W lock", errBusy)
	}
	if l.destroyed.Swap(true) {
		fatal("destroying R/W lock", errInvalid)
	}
}

func (l *RWLock) checkLive(action string) {
	if l.destroyed.Load() {
		fatal(action, errInvalid)
	}
}
