//go:build deadlock

package cthread

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// With -tags deadlock, RWLock reports lock-order inversions and
// acquisitions stuck for longer than the timeout below.
type rwMutex = deadlock.RWMutex

func init() {
	deadlock.Opts.DeadlockTimeout = 30 * time.Second
}
