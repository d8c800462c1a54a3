package cthread_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/baxromumarov/cthread"
)

// BenchmarkSpawnJoin measures the cost of a thread that does nothing,
// compared to raw goroutines + WaitGroup below.
func BenchmarkSpawnJoin(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(threadCountName(n), func(b *testing.B) {
			b.ReportAllocs()
			threads := make([]*cthread.Thread, n)
			for i := 0; i < b.N; i++ {
				for j := range threads {
					th, err := cthread.Spawn(func() any { return nil })
					if err != nil {
						b.Fatal(err)
					}
					threads[j] = th
				}
				for _, th := range threads {
					_, _ = th.Join()
				}
			}
		})
	}
}

// BenchmarkRawGoroutineWaitGroup is the baseline: raw go + sync.WaitGroup.
func BenchmarkRawGoroutineWaitGroup(b *testing.B) {
	for _, n := range []int{1, 10, 100} {
		b.Run(threadCountName(n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				var wg sync.WaitGroup
				for j := 0; j < n; j++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
					}()
				}
				wg.Wait()
			}
		})
	}
}

func BenchmarkMutexUncontended(b *testing.B) {
	for _, tc := range []struct {
		name string
		m    *cthread.Mutex
	}{
		{"plain", cthread.NewMutex()},
		{"recursive", cthread.NewRecursiveMutex()},
	} {
		b.Run(tc.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				tc.m.Lock()
				tc.m.Unlock()
			}
		})
	}
}

// BenchmarkCondPingPong bounces a token between two goroutines through
// one condition variable.
func BenchmarkCondPingPong(b *testing.B) {
	var (
		m    cthread.Mutex
		c    cthread.Cond
		turn int
	)

	done := make(chan struct{})
	go func() {
		defer close(done)
		m.Lock()
		defer m.Unlock()
		for i := 0; i < b.N; i++ {
			for turn != 1 {
				c.Wait(&m)
			}
			turn = 0
			c.Signal()
		}
	}()

	b.ResetTimer()
	m.Lock()
	for i := 0; i < b.N; i++ {
		turn = 1
		c.Signal()
		for turn != 0 {
			c.Wait(&m)
		}
	}
	m.Unlock()
	<-done
}

func BenchmarkSemaphorePostWait(b *testing.B) {
	s := cthread.NewSemaphore(0)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = s.Post()
		s.Wait()
	}
}

func threadCountName(n int) string {
	return fmt.Sprintf("threads=%d", n)
}
