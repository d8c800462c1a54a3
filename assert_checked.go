//go:build !cthread_release

package cthread

// checked enables misuse detection on every primitive. Build with
// -tags cthread_release to compile the checks out.
const checked = true
