package cthread

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMutexExclusion(t *testing.T) {
	const (
		workers = 8
		loops   = 1000
	)

	var (
		m       Mutex
		counter int
		wg      sync.WaitGroup
	)

	wg.Add(workers)
	for range workers {
		go func() {
			defer wg.Done()
			for range loops {
				m.Lock()
				counter++
				m.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*loops, counter)
}

func TestMutexTryLock(t *testing.T) {
	m := NewMutex()

	require.True(t, m.TryLock(), "TryLock on a free mutex")

	got := make(chan bool)
	go func() { got <- m.TryLock() }()
	assert.False(t, <-got, "TryLock on a held mutex must report busy")

	m.Unlock()

	go func() {
		ok := m.TryLock()
		if ok {
			m.Unlock()
		}
		got <- ok
	}()
	assert.True(t, <-got, "TryLock after Unlock")
}

func TestRecursiveMutex(t *testing.T) {
	m := NewRecursiveMutex()

	m.Lock()
	m.Lock()
	require.True(t, m.TryLock(), "holder may relock a recursive mutex")

	free := make(chan bool)
	probe := func() {
		go func() {
			ok := m.TryLock()
			if ok {
				m.Unlock()
			}
			free <- ok
		}()
	}

	m.Unlock()
	m.Unlock()
	probe()
	assert.False(t, <-free, "mutex still held at depth 1")

	m.Unlock()
	probe()
	assert.True(t, <-free, "mutex released after the last Unlock")

	m.Destroy()
}
