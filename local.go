package cthread

import (
	"sync"

	"github.com/petermattis/goid"
)

// registry maps the goroutine id of every live spawned thread to its
// context. A spawned thread is locked to its OS thread, so the goroutine
// id identifies the OS thread as well.
var registry sync.Map

// Self returns the context of the calling thread, or nil when the caller
// was not started by [Spawn].
func Self() *Thread {
	v, ok := registry.Load(goid.Get())
	if !ok {
		return nil
	}
	return v.(*Thread)
}

func register(gid int64, t *Thread) {
	registry.Store(gid, t)
}

func unregister(gid int64) {
	registry.Delete(gid)
}
