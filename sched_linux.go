//go:build linux

package cthread

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

const prioritySupported = true

func gettid() int {
	return unix.Gettid()
}

// setPriority sets the nice value of a single OS thread. Linux applies
// PRIO_PROCESS to the thread named by tid, not the whole process.
func setPriority(tid, prio int) error {
	if err := unix.Setpriority(unix.PRIO_PROCESS, tid, prio); err != nil {
		return fmt.Errorf("cthread: setpriority(tid=%d, prio=%d): %w", tid, prio, err)
	}
	return nil
}

func cpuCount() uint {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err == nil {
		if n := set.Count(); n > 0 {
			return uint(n)
		}
	}
	return uint(runtime.NumCPU())
}
