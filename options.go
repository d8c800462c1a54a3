package cthread

import "log/slog"

type config struct {
	detached    bool
	priority    int
	hasPriority bool
	name        string
	panicAsErr  bool
	logger      *slog.Logger
}

// Option configures a thread created by [Spawn].
type Option func(*config)

func defaultConfig() config {
	return config{}
}

// Detached creates a thread that cannot be joined. It releases its own
// context when its entry function returns or it is canceled.
func Detached() Option {
	return func(c *config) {
		c.detached = true
	}
}

// WithPriority requests an OS scheduling priority (a nice value on Linux)
// for the new thread. It is applied from inside the thread before the
// entry function runs. Failure to apply it is logged and ignored.
func WithPriority(p int) Option {
	return func(c *config) {
		c.priority = p
		c.hasPriority = true
	}
}

// WithName sets the name used for the thread in errors and log records.
// Threads are otherwise named with a random UUID.
// It panics if name is empty.
func WithName(name string) Option {
	return func(c *config) {
		if name == "" {
			panic("cthread: WithName requires a non-empty name")
		}
		c.name = name
	}
}

// WithPanicAsError makes [Thread.Join] return a panic from the entry
// function as a [*PanicError] wrapped in a [*ThreadError] instead of
// re-raising it. Detached threads with this option log the panic rather
// than crashing the process.
func WithPanicAsError() Option {
	return func(c *config) {
		c.panicAsErr = true
	}
}

// WithLogger sets the logger for the thread's lifecycle events, in place
// of the package logger set by [SetLogger].
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}
