package cthread

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Instant is a point on the monotonic clock, in microseconds. Instants
// are only meaningful relative to each other within one process.
type Instant int64

var (
	clockOnce sync.Once
	clockPrec Instant // clock resolution, rounded to microseconds
)

// maxSpan is the longest span, in microseconds, a time.Duration holds.
const maxSpan = Instant(math.MaxInt64 / int64(time.Microsecond))

// span converts a number of microseconds to a Duration, saturating
// instead of overflowing for far deadlines.
func span(us Instant) time.Duration {
	switch {
	case us > maxSpan:
		return math.MaxInt64
	case us < -maxSpan:
		return math.MinInt64
	}
	return time.Duration(us) * time.Microsecond
}

// clockSetup probes the clock resolution once per process.
func clockSetup() {
	clockOnce.Do(func() {
		res, err := clockResolution()
		if err == nil && res >= time.Second {
			err = fmt.Errorf("resolution %v", res)
		}
		if err != nil {
			fatal("probing monotonic clock", err)
		}
		clockPrec = Instant((res + 500*time.Nanosecond) / time.Microsecond)
	})
}

// Now returns the current monotonic time.
func Now() Instant {
	clockSetup()
	return monotonicNow()
}

// Precision returns the resolution of the monotonic clock. Waits shorter
// than Precision are not handed to the OS.
func Precision() time.Duration {
	clockSetup()
	return span(clockPrec)
}

// DeadlineAfter returns the instant d from now.
func DeadlineAfter(d time.Duration) Instant {
	return Now().Add(d)
}

// Until returns the time remaining before deadline, negative if it has
// passed.
func Until(deadline Instant) time.Duration {
	return deadline.Sub(Now())
}

// Add returns i shifted by d, truncated to microseconds.
func (i Instant) Add(d time.Duration) Instant {
	return i + Instant(d/time.Microsecond)
}

// Sub returns the duration i-j, saturating at the range of
// time.Duration.
func (i Instant) Sub(j Instant) time.Duration {
	return span(i - j)
}

// Sleep blocks the calling thread for d. On a thread started by [Spawn]
// it is a cancellation point on entry and on return.
func Sleep(d time.Duration) {
	TestCancel()
	if d > 0 {
		nanosleep(d)
	}
	TestCancel()
}

// SleepUntil blocks the calling thread until deadline. Deadlines within
// the clock precision of now return without sleeping. Like [Sleep] it is
// a cancellation point on entry and on return.
func SleepUntil(deadline Instant) {
	TestCancel()

	clockSetup()
	if rel := deadline - clockPrec - monotonicNow(); rel > 0 {
		nanosleep(span(rel))
	}

	TestCancel()
}
