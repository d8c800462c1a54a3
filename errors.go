package cthread

import (
	"errors"
	"fmt"
)

var (
	// ErrTimedOut is returned by [Cond.TimedWait] when the deadline passes
	// before the condition is signaled.
	ErrTimedOut = errors.New("cthread: timed out")

	// ErrOverflow is returned by [Semaphore.Post] when the count is
	// already at [SemValueMax]. The post is dropped.
	ErrOverflow = errors.New("cthread: semaphore value overflow")

	// ErrCanceled is the cause reported by [Thread.Join] for a thread that
	// terminated at a cancellation point.
	ErrCanceled = errors.New("cthread: thread canceled")

	// ErrResourceExhausted is returned by [Spawn] when the live thread
	// limit set by [SetThreadLimit] is reached.
	ErrResourceExhausted = errors.New("cthread: thread limit reached")

	// ErrInvalidArgument is returned by [Spawn] for a nil entry function.
	ErrInvalidArgument = errors.New("cthread: invalid argument")

	// ErrNotSupported is returned by [Thread.SetPriority] on platforms
	// without per-thread priorities.
	ErrNotSupported = errors.New("cthread: not supported on this platform")

	// ErrThreadExited is returned by [Thread.SetPriority] once the thread
	// has terminated.
	ErrThreadExited = errors.New("cthread: thread has exited")
)

// ThreadInfo identifies a thread in errors and log records.
type ThreadInfo struct {
	Name string
}

// ThreadError attributes the abnormal end of a thread to the thread
// itself. [Thread.Join] wraps cancellation and recovered panics in it.
type ThreadError struct {
	Thread ThreadInfo
	Err    error
}

func (e *ThreadError) Error() string {
	return fmt.Sprintf("thread %q: %v", e.Thread.Name, e.Err)
}

func (e *ThreadError) Unwrap() error {
	return e.Err
}

// IsCanceled reports whether err records a thread that was terminated by
// cancellation.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// ThreadOf extracts the [ThreadInfo] from the first [*ThreadError] in
// err's chain.
func ThreadOf(err error) (ThreadInfo, bool) {
	if err == nil {
		return ThreadInfo{}, false
	}

	var te *ThreadError
	if errors.As(err, &te) {
		return te.Thread, true
	}
	return ThreadInfo{}, false
}
