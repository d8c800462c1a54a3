package cthread

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/petermattis/goid"
)

// DefaultThreadLimit is the initial value of the limit set by
// [SetThreadLimit]. It stays below the Go runtime's default ceiling of
// 10000 OS threads, past which the process is killed.
const DefaultThreadLimit = 8192

var (
	live        atomic.Int64
	threadLimit atomic.Int64
)

func init() {
	threadLimit.Store(DefaultThreadLimit)
}

// Thread is the context of a thread started by [Spawn]: its identity,
// cancellation state, cleanup handlers and, for joinable threads, its
// outcome.
//
// Apart from Cancel, SetPriority and Join, a Thread's state belongs to
// the thread itself and is reached through package-level functions
// called on that thread.
type Thread struct {
	name string
	cfg  config
	log  *slog.Logger

	entry func() any

	gid atomic.Int64
	tid atomic.Int64

	// schedMu orders priority changes against thread start and exit, so
	// a priority is never applied to an OS thread id after it is freed.
	schedMu sync.Mutex
	prio    int
	prioSet bool
	done    atomic.Bool

	killed   atomic.Bool
	killable bool
	exiting  bool

	// waitMu guards waiting, the condition the thread is blocked on.
	waitMu  sync.Mutex
	waiting *Cond

	cleaners []*Cleanup
	locals   map[localKey]struct{}

	finished *Semaphore // nil for detached threads
	joined   atomic.Bool

	result   any
	panicErr *PanicError
	canceled bool
}

// Spawn starts entry on a new thread: a goroutine locked to its own OS
// thread for its whole life. The returned Thread is joinable unless
// [Detached] is given.
//
// Spawn fails with [ErrInvalidArgument] if entry is nil and with
// [ErrResourceExhausted] if the live thread limit is reached. Nothing is
// started when it fails.
func Spawn(entry func() any, opts ...Option) (*Thread, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: nil entry function", ErrInvalidArgument)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if n := live.Add(1); n > threadLimit.Load() {
		live.Add(-1)
		return nil, fmt.Errorf("%w (%d threads)", ErrResourceExhausted, n-1)
	}

	name := cfg.name
	if name == "" {
		name = uuid.NewString()
	}
	l := cfg.logger
	if l == nil {
		l = pkgLogger()
	}

	t := &Thread{
		name:     name,
		cfg:      cfg,
		log:      l.With("thread", name),
		entry:    entry,
		killable: true,
	}
	if cfg.hasPriority {
		t.prio = cfg.priority
		t.prioSet = true
	}
	if !cfg.detached {
		t.finished = NewSemaphore(0)
	}

	go t.run()
	return t, nil
}

func (t *Thread) run() {
	// Never unlocked: the OS thread is torn down with the goroutine.
	runtime.LockOSThread()

	gid := goid.Get()
	t.gid.Store(gid)
	register(gid, t)

	t.schedMu.Lock()
	t.tid.Store(int64(gettid()))
	if t.prioSet {
		if err := setPriority(gettid(), t.prio); err != nil {
			t.log.Debug("cthread: ignoring priority failure", "prio", t.prio, "error", err)
		}
	}
	t.schedMu.Unlock()

	t.log.Debug("cthread: thread started", "tid", t.tid.Load(), "detached", t.cfg.detached)

	returned := false
	defer func() {
		if r := recover(); r != nil {
			t.panicErr = newPanicError(t.name, r)
		} else if !returned {
			t.canceled = true
		}
		t.exit(gid)
	}()

	t.result = t.entry()
	returned = true
}

// exit finishes a thread that returned, panicked or was canceled.
func (t *Thread) exit(gid int64) {
	t.exiting = true
	t.killable = false

	// Handlers still pushed on a normal return run as if popped. A
	// handler that panics is recorded like a panic of the entry function
	// and the remaining handlers still run.
	for t.contain(t.runCleaners) {
	}
	t.contain(func() { t.releaseLocals(gid) })

	unregister(gid)
	t.schedMu.Lock()
	t.tid.Store(0)
	t.done.Store(true)
	t.schedMu.Unlock()
	live.Add(-1)

	switch {
	case t.panicErr != nil:
		t.log.Debug("cthread: thread panicked", "value", t.panicErr.Value)
	case t.canceled:
		t.log.Debug("cthread: thread canceled")
	default:
		t.log.Debug("cthread: thread finished")
	}

	if t.finished != nil {
		t.finished.Post()
		return
	}

	if t.panicErr != nil {
		if !t.cfg.panicAsErr {
			panic(t.panicErr)
		}
		t.log.Error("cthread: detached thread panicked", "error", t.panicErr)
	}
}

// contain runs fn and reports whether it panicked. The first panic
// recorded for t is kept.
func (t *Thread) contain(fn func()) (panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			if t.panicErr == nil {
				t.panicErr = newPanicError(t.name, r)
			}
		}
	}()

	fn()
	return false
}

// Join waits for t to terminate and returns the value its entry function
// returned. A canceled thread yields a [*ThreadError] wrapping
// [ErrCanceled]. A panic in the entry function, or in a cleanup handler
// or destructor run at exit, is re-raised as a [*PanicError] unless t
// was spawned with [WithPanicAsError].
//
// Joining a detached thread, or joining a thread twice, is a programming
// error.
func (t *Thread) Join() (any, error) {
	if t.finished == nil {
		fatal("joining thread", fmt.Errorf("%w: thread is detached", errInvalid))
	}
	if t.joined.Swap(true) && checked {
		fatal("joining thread", fmt.Errorf("%w: thread already joined", errInvalid))
	}
	if checked && Self() == t {
		fatal("joining thread", errDeadlock)
	}

	t.finished.Wait()
	t.finished.Destroy()

	if t.panicErr != nil {
		if !t.cfg.panicAsErr {
			panic(t.panicErr)
		}
		return nil, &ThreadError{Thread: t.Info(), Err: t.panicErr}
	}
	if t.canceled {
		return nil, &ThreadError{Thread: t.Info(), Err: ErrCanceled}
	}
	return t.result, nil
}

// SetPriority changes the OS scheduling priority of t. Before t has
// started the request is recorded and applied when it does. Failures are
// recoverable: [ErrNotSupported] off Linux, [ErrThreadExited] once t has
// terminated, or the OS error.
func (t *Thread) SetPriority(prio int) error {
	if !prioritySupported {
		return ErrNotSupported
	}

	// Held across the syscall: exit cannot release the OS thread id
	// while it is being used.
	t.schedMu.Lock()
	defer t.schedMu.Unlock()

	if t.done.Load() {
		return ErrThreadExited
	}
	t.prio = prio
	t.prioSet = true

	tid := t.tid.Load()
	if tid == 0 {
		// Not started yet; run applies the stored priority.
		return nil
	}
	return setPriority(int(tid), prio)
}

// Name returns the thread's name.
func (t *Thread) Name() string {
	return t.name
}

// Info returns the identifying details of t.
func (t *Thread) Info() ThreadInfo {
	return ThreadInfo{Name: t.name}
}

// ID returns the OS thread id of t, or 0 before it starts, after it
// exits, or on platforms without thread ids.
func (t *Thread) ID() int {
	return int(t.tid.Load())
}

// Count returns the number of live threads started by [Spawn].
func Count() int {
	return int(live.Load())
}

// SetThreadLimit caps the number of live threads [Spawn] will start.
// Panics if n <= 0.
func SetThreadLimit(n int) {
	if n <= 0 {
		panic("cthread: SetThreadLimit requires n > 0")
	}
	threadLimit.Store(int64(n))
}

// CPUCount returns the number of processing units available to the
// process.
func CPUCount() uint {
	return cpuCount()
}
