package cthread

import (
	"sync"
	"sync/atomic"

	"github.com/petermattis/goid"
)

// DestructorIterations bounds how many rounds of destructors run at
// thread exit when destructors store new values.
const DestructorIterations = 4

type localKey interface {
	// release removes the value stored for goroutine gid, running the
	// destructor if destroy is set.
	release(gid int64, destroy bool)
}

// Key is a thread-local storage slot. Each thread sees its own value.
//
// On a thread started by [Spawn] the destructor runs at thread exit for a
// value still stored. Values stored from other goroutines stay until
// [Key.Clear] or [Key.Delete].
type Key[T any] struct {
	values     sync.Map // goroutine id -> T
	destructor func(T)
	deleted    atomic.Bool
}

// NewKey creates a thread-local storage slot. destructor may be nil.
func NewKey[T any](destructor func(T)) *Key[T] {
	return &Key[T]{destructor: destructor}
}

// Set stores v as the calling thread's value.
func (k *Key[T]) Set(v T) {
	if checked && k.deleted.Load() {
		fatal("setting thread-local value", errInvalid)
	}

	k.values.Store(goid.Get(), v)
	if t := Self(); t != nil {
		if t.locals == nil {
			t.locals = make(map[localKey]struct{})
		}
		t.locals[k] = struct{}{}
	}
}

// Get returns the calling thread's value, or the zero value if none is
// stored.
func (k *Key[T]) Get() T {
	v, _ := k.Lookup()
	return v
}

// Lookup returns the calling thread's value and whether one is stored.
func (k *Key[T]) Lookup() (T, bool) {
	v, ok := k.values.Load(goid.Get())
	if !ok {
		var zero T
		return zero, false
	}
	return v.(T), true
}

// Clear removes the calling thread's value without running the
// destructor.
func (k *Key[T]) Clear() {
	k.values.Delete(goid.Get())
	if t := Self(); t != nil {
		delete(t.locals, k)
	}
}

// Delete discards the slot and every value in it. Destructors are not
// run. Using the key afterwards is a programming error.
func (k *Key[T]) Delete() {
	if k.deleted.Swap(true) && checked {
		fatal("deleting thread-local key", errInvalid)
	}
	k.values.Clear()
}

func (k *Key[T]) release(gid int64, destroy bool) {
	v, ok := k.values.LoadAndDelete(gid)
	if !ok || !destroy || k.destructor == nil || k.deleted.Load() {
		return
	}
	k.destructor(v.(T))
}

// releaseLocals runs destructors for the values t stored. Destructors
// may store new values; those get further rounds, up to
// DestructorIterations, and are then dropped.
func (t *Thread) releaseLocals(gid int64) {
	for range DestructorIterations {
		if len(t.locals) == 0 {
			return
		}
		keys := t.locals
		t.locals = nil
		for k := range keys {
			k.release(gid, true)
		}
	}

	for k := range t.locals {
		k.release(gid, false)
	}
	t.locals = nil
}
