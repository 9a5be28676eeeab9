package console

import (
	"errors"
	"fmt"
)

// ErrNotAttached is returned by read/write operations invoked while no
// console binding is live.
var ErrNotAttached = errors.New("not attached to a console")

// AttachError reports a failed console bind. The binding state is unchanged:
// the caller remains detached.
type AttachError struct {
	PID uint32
	Err error
}

func (e *AttachError) Error() string {
	return fmt.Sprintf("attach to console of pid %d: %v", e.PID, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// DetachError reports a failed release of the current binding. Always
// non-fatal: a stale binding must never block a fresh attach attempt.
type DetachError struct {
	Err error
}

func (e *DetachError) Error() string { return fmt.Sprintf("detach console: %v", e.Err) }

func (e *DetachError) Unwrap() error { return e.Err }

// ReadError reports a failed screen read. A read failure usually means the
// bound console is gone (target exited), so callers treat it as a disconnect.
type ReadError struct {
	Err error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read console output: %v", e.Err) }

func (e *ReadError) Unwrap() error { return e.Err }

// WriteError reports a failed keystroke injection. The binding survives.
type WriteError struct {
	Err error
}

func (e *WriteError) Error() string { return fmt.Sprintf("write console input: %v", e.Err) }

func (e *WriteError) Unwrap() error { return e.Err }
