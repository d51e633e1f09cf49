// Package xerrors provides error constructors that capture call-site
// information. Wrapped errors expose StackPCs or PC accessors that the log
// package resolves into readable traces when a record is emitted at error
// level.
package xerrors

import (
	"errors"
	"fmt"
	"runtime"
)

const maxStackDepth = 48

// stacked attaches a full callers slice to an error.
type stacked struct {
	err error
	pcs []uintptr
}

func (s *stacked) Error() string       { return s.err.Error() }
func (s *stacked) Unwrap() error       { return s.err }
func (s *stacked) StackPCs() []uintptr { return s.pcs }

// note annotates an error with a message and the single PC of the call site,
// keeping per-layer cost low on hot paths.
type note struct {
	err error
	msg string
	pc  uintptr
}

func (n *note) Error() string { return n.msg + ": " + n.err.Error() }
func (n *note) Unwrap() error { return n.err }
func (n *note) PC() uintptr   { return n.pc }

func callers(skip int) []uintptr {
	pcs := make([]uintptr, maxStackDepth)
	// +2 skips runtime.Callers and callers itself
	n := runtime.Callers(skip+2, pcs)
	return pcs[:n]
}

func caller(skip int) uintptr {
	var pcs [1]uintptr
	if runtime.Callers(skip+2, pcs[:]) == 0 {
		return 0
	}
	return pcs[0]
}

// New returns an error with the given message and the current stack.
func New(msg string) error {
	return &stacked{err: errors.New(msg), pcs: callers(1)}
}

// Newf is New with fmt.Errorf formatting (%w works).
func Newf(format string, args ...any) error {
	return &stacked{err: fmt.Errorf(format, args...), pcs: callers(1)}
}

// WithStack attaches the current stack to err without changing its message.
// Returns nil for nil.
func WithStack(err error) error {
	if err == nil {
		return nil
	}
	return &stacked{err: err, pcs: callers(1)}
}

// Wrap annotates err with msg and the caller's PC. Returns nil for nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &note{err: err, msg: msg, pc: caller(1)}
}

// Wrapf is Wrap with formatting.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &note{err: err, msg: fmt.Sprintf(format, args...), pc: caller(1)}
}

// EnsureTrace guarantees err carries a full stack somewhere in its chain,
// attaching one only when absent so repeated calls are cheap and idempotent.
func EnsureTrace(err error) error {
	if err == nil {
		return nil
	}
	var hs interface{ StackPCs() []uintptr }
	if errors.As(err, &hs) && len(hs.StackPCs()) > 0 {
		return err
	}
	return &stacked{err: err, pcs: callers(1)}
}
