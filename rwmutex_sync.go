//go:build !deadlock

package cthread

import "sync"

type rwMutex = sync.RWMutex
