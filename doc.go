// Package cthread provides POSIX-style threads and synchronization
// primitives with cooperative thread cancellation.
//
// A thread is a goroutine started by [Spawn] and locked to its own OS
// thread for its whole life. Other goroutines can use every primitive in
// the package, but only threads have a context ([Self]) and can be
// canceled.
//
// # Threads
//
// [Spawn] starts a joinable thread; [Detached] makes it release itself on
// exit instead. [Thread.Join] returns the entry function's result:
//
//	th, err := cthread.Spawn(func() any {
//	    return work()
//	}, cthread.WithPriority(5))
//	if err != nil {
//	    return err
//	}
//	v, err := th.Join()
//
// [Thread.SetPriority] changes the OS priority of a running thread on a
// best-effort basis. [CPUCount] and [Count] report processing units and
// live threads.
//
// # Cancellation
//
// [Thread.Cancel] marks a thread for termination. The thread acts on it
// only at cancellation points: [TestCancel], [Cond.Wait],
// [Cond.TimedWait], [Cond.TimedWaitWall], [Sleep] and [SleepUntil]. A
// thread blocked in a condition wait is woken by Cancel, so a
// cancellation is never lost between "about to wait" and "waiting".
//
// At a cancellation point a canceled thread runs its cleanup handlers in
// reverse push order, then terminates as by [runtime.Goexit] (deferred
// calls run). Handlers are pushed with [PushCleanup] and most naturally
// used as scoped guards, which run exactly once whether the function
// returns or the thread is canceled:
//
//	mu.Lock()
//	defer cthread.PushCleanup(mu.Unlock).Run()
//	for !ready {
//	    cond.Wait(mu)
//	}
//
// Sections that must not be interrupted are bracketed with [SaveCancel]
// and [RestoreCancel]:
//
//	defer cthread.RestoreCancel(cthread.SaveCancel())
//
// # Synchronization
//
// [Mutex] (plain or recursive), [RWLock], [Semaphore] and [Cond] wrap the
// usual blocking primitives. Expected conditions are returned as values:
// [Mutex.TryLock] reports contention, [Semaphore.Post] returns
// [ErrOverflow], timed waits return [ErrTimedOut].
//
// Misuse (unlocking a mutex the caller does not hold, unbalanced
// save/restore, popping cleanup handlers out of order, destroying a busy
// primitive) is a programming error: it is logged and panics. Build with
// -tags cthread_release to compile these checks out, and with
// -tags deadlock to run [RWLock] on a deadlock-detecting lock.
//
// # Thread-local storage
//
// [Key] holds one value per thread. Destructors run when a spawned thread
// exits.
//
// # Time
//
// [Now] reads the monotonic clock as an [Instant] in microseconds.
// [SleepUntil] and [Cond.TimedWait] take absolute Instants; deadlines
// within [Precision] of now do not reach the OS.
package cthread
