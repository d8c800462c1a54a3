//go:build !linux

package cthread

import "time"

// epoch anchors Instants to the monotonic reading carried by time.Time.
var epoch = time.Now()

func clockResolution() (time.Duration, error) {
	return time.Microsecond, nil
}

func monotonicNow() Instant {
	return Instant(time.Since(epoch) / time.Microsecond)
}

func nanosleep(d time.Duration) {
	time.Sleep(d)
}
