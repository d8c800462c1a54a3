package cthread

import (
	"fmt"
	"runtime"
)

// PanicError carries a panic recovered from a thread's entry function
// together with the stack of the panicking thread.
//
// [Thread.Join] re-raises it by default. Spawn the thread with
// [WithPanicAsError] to receive it as an error instead.
type PanicError struct {
	// Value is the original value passed to panic().
	Value any

	// Thread is the name of the thread that panicked.
	Thread string

	// Stack is the thread's stack trace at the point of panic.
	Stack string
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in thread %q: %v\n\n%s", e.Thread, e.Value, e.Stack)
}

func newPanicError(thread string, v any) *PanicError {
	// runtime.Stack truncates when the buffer is short.
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return &PanicError{
		Value:  v,
		Thread: thread,
		Stack:  string(buf[:n]),
	}
}
