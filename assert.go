package cthread

import (
	"errors"

	"github.com/petermattis/goid"
)

// Misuse causes reported by fatal. They mirror the POSIX error codes a
// checking pthread implementation returns for the same mistakes.
var (
	errDeadlock   = errors.New("resource deadlock would occur")
	errNotOwner   = errors.New("operation not permitted")
	errBusy       = errors.New("device or resource busy")
	errInvalid    = errors.New("invalid argument")
	errUnbalanced = errors.New("unbalanced nesting")
)

// fatal reports a programming error in the use of a primitive and panics.
// Callers gate their checks on checked; fatal itself always fires.
func fatal(action string, cause error) {
	msg := "cthread: " + action
	if cause != nil {
		msg += ": " + cause.Error()
	}

	attrs := []any{"goroutine", goid.Get()}
	if t := Self(); t != nil {
		attrs = append(attrs, "thread", t.name, "tid", t.tid.Load())
	}
	pkgLogger().Error(msg, attrs...)

	panic(msg)
}
