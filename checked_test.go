//go:build !cthread_release

package cthread

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMutexMisuseIsFatal(t *testing.T) {
	mustPanic(t, "locking mutex: resource deadlock", func() {
		var m Mutex
		m.Lock()
		defer m.Unlock()
		m.Lock()
	})

	mustPanic(t, "unlocking mutex: operation not permitted", func() {
		var m Mutex
		m.Unlock()
	})

	mustPanic(t, "unlocking mutex: operation not permitted", func() {
		var m Mutex
		m.Lock()
		done := make(chan any)
		go func() {
			defer func() { done <- recover() }()
			m.Unlock()
		}()
		if r := <-done; r != nil {
			panic(r)
		}
	})

	mustPanic(t, "destroying mutex: device or resource busy", func() {
		var m Mutex
		m.Lock()
		m.Destroy()
	})

	mustPanic(t, "locking mutex: invalid argument", func() {
		var m Mutex
		m.Destroy()
		m.Lock()
	})
}

func TestRWLockMisuseIsFatal(t *testing.T) {
	mustPanic(t, "releasing R/W lock", func() {
		var l RWLock
		l.Unlock()
	})

	mustPanic(t, "acquiring R/W lock for writing: resource deadlock", func() {
		var l RWLock
		l.Lock()
		l.Lock()
	})

	mustPanic(t, "destroying R/W lock: device or resource busy", func() {
		var l RWLock
		l.RLock()
		l.Destroy()
	})
}

func TestSemaphoreDestroyWithWaitersIsFatal(t *testing.T) {
	sem := NewSemaphore(0)
	go sem.Wait()

	require.Eventually(t, func() bool { return sem.waiters.Load() == 1 },
		5*time.Second, time.Millisecond)

	mustPanic(t, "destroying semaphore: device or resource busy", func() {
		sem.Destroy()
	})
	require.NoError(t, sem.Post())
}

func TestCondMisuseIsFatal(t *testing.T) {
	mustPanic(t, "waiting on condition: operation not permitted", func() {
		var (
			c Cond
			m Mutex
		)
		c.Wait(&m)
	})

	mustPanic(t, "waiting on condition: invalid argument", func() {
		var c Cond
		m := NewRecursiveMutex()
		m.Lock()
		m.Lock()
		c.Wait(m)
	})

	mustPanic(t, "timed-waiting on condition: invalid argument", func() {
		var m Mutex
		m.Lock()
		defer m.Unlock()
		_ = NewWallCond().TimedWait(&m, DeadlineAfter(time.Second))
	})

	mustPanic(t, "timed-waiting on condition: invalid argument", func() {
		var m Mutex
		m.Lock()
		defer m.Unlock()
		_ = NewCond().TimedWaitWall(&m, time.Now().Add(time.Second))
	})
}

func TestUnbalancedRestoreIsFatal(t *testing.T) {
	th, err := Spawn(func() any {
		RestoreCancel(true)
		return nil
	}, WithPanicAsError())
	require.NoError(t, err)

	_, err = th.Join()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	require.Contains(t, pe.Value, "restoring cancellation state: unbalanced nesting")
}

func TestCleanupMisuseIsFatal(t *testing.T) {
	run := func(fn func()) error {
		th, err := Spawn(func() any {
			fn()
			return nil
		}, WithPanicAsError())
		require.NoError(t, err)
		_, err = th.Join()
		return err
	}

	err := run(func() {
		a := PushCleanup(func() {})
		PushCleanup(func() {})
		a.Pop()
	})
	require.ErrorContains(t, err, "popping cleanup handler: unbalanced nesting")

	err = run(func() {
		a := PushCleanup(func() {})
		a.Pop()
		a.Pop()
	})
	require.ErrorContains(t, err, "popping cleanup handler: invalid argument")
}

func TestJoinMisuseIsFatal(t *testing.T) {
	th, err := Spawn(func() any { return nil }, Detached())
	require.NoError(t, err)
	mustPanic(t, "joining thread: invalid argument: thread is detached", func() {
		_, _ = th.Join()
	})

	th, err = Spawn(func() any { return nil })
	require.NoError(t, err)
	_, err = th.Join()
	require.NoError(t, err)
	mustPanic(t, "thread already joined", func() {
		_, _ = th.Join()
	})
}
