package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/baxromumarov/cthread"
)

// queue is a bounded work queue shared by the worker threads.
type queue struct {
	mu       cthread.Mutex
	nonEmpty cthread.Cond
	items    []int
	done     []int
}

// worker drains q until canceled. The handler pushed after locking
// releases the mutex whether the wait returns or the thread is canceled.
func worker(q *queue, id int, cost time.Duration) func() any {
	return func() any {
		for {
			q.mu.Lock()
			guard := cthread.PushCleanup(q.mu.Unlock)
			for len(q.items) == 0 {
				q.nonEmpty.Wait(&q.mu)
			}
			q.items = q.items[1:]
			guard.Run()

			cthread.Sleep(cost)

			q.mu.Lock()
			q.done[id]++
			q.mu.Unlock()
		}
	}
}

func main() {
	var (
		threads  = flag.Int("threads", int(cthread.CPUCount()), "number of worker threads")
		rounds   = flag.Int("rounds", 20, "number of broadcast rounds")
		batch    = flag.Int("batch", 16, "items produced per round")
		cost     = flag.Duration("cost", time.Millisecond, "simulated work per item")
		priority = flag.Int("priority", 0, "OS priority of the workers (0 keeps the default)")
		verbose  = flag.Bool("v", false, "log thread lifecycle events")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	cthread.SetLogger(logger)

	if *threads < 1 || *rounds < 0 || *batch < 0 {
		fmt.Fprintln(os.Stderr, "threads must be positive; rounds and batch must not be negative")
		os.Exit(2)
	}

	q := &queue{done: make([]int, *threads)}

	workers := make([]*cthread.Thread, 0, *threads)
	for i := range *threads {
		opts := []cthread.Option{cthread.WithName(fmt.Sprintf("worker-%d", i))}
		if *priority != 0 {
			opts = append(opts, cthread.WithPriority(*priority))
		}
		th, err := cthread.Spawn(worker(q, i, *cost), opts...)
		if err != nil {
			logger.Error("demo: spawn failed", "worker", i, "err", err)
			os.Exit(1)
		}
		workers = append(workers, th)
	}
	logger.Info("demo: workers started", "threads", cthread.Count(), "cpus", cthread.CPUCount())

	start := cthread.Now()
	for r := range *rounds {
		q.mu.Lock()
		for i := range *batch {
			q.items = append(q.items, r**batch+i)
		}
		q.nonEmpty.Broadcast()
		q.mu.Unlock()

		cthread.Sleep(time.Duration(*batch) * *cost / time.Duration(*threads))
	}

	// Let the queue drain, then cancel whatever is still waiting.
	deadline := cthread.DeadlineAfter(5 * time.Second)
	for {
		q.mu.Lock()
		left := len(q.items)
		q.mu.Unlock()
		if left == 0 || cthread.Until(deadline) <= 0 {
			break
		}
		cthread.Sleep(*cost)
	}

	for _, th := range workers {
		th.Cancel()
	}
	total := 0
	for i, th := range workers {
		_, err := th.Join()
		if !cthread.IsCanceled(err) {
			logger.Warn("demo: unexpected join result", "worker", i, "err", err)
		}
		total += q.done[i]
		fmt.Printf("%-10s processed %d\n", th.Name(), q.done[i])
	}

	fmt.Printf("total %d of %d items in %v (clock precision %v)\n",
		total, *rounds**batch, cthread.Now().Sub(start), cthread.Precision())
}
