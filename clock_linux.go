//go:build linux

package cthread

import (
	"time"

	"golang.org/x/sys/unix"
)

func clockResolution() (time.Duration, error) {
	var res unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &res); err != nil {
		return 0, err
	}
	return time.Duration(res.Nano()), nil
}

func monotonicNow() Instant {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		fatal("reading monotonic clock", err)
	}
	return Instant(ts.Nano() / int64(time.Microsecond))
}

// nanosleep sleeps for d, resuming with the remaining time whenever a
// signal interrupts the call.
func nanosleep(d time.Duration) {
	ts := unix.NsecToTimespec(d.Nanoseconds())
	for {
		var left unix.Timespec
		err := unix.Nanosleep(&ts, &left)
		if err == nil {
			return
		}
		if err != unix.EINTR {
			fatal("sleeping", err)
		}
		ts = left
	}
}
