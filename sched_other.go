//go:build !linux

package cthread

import "runtime"

const prioritySupported = false

func gettid() int {
	return 0
}

func setPriority(int, int) error {
	return ErrNotSupported
}

func cpuCount() uint {
	return uint(runtime.NumCPU())
}
