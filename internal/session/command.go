package session

import "time"

// Command is a request routed to the session worker. Commands are applied
// in the exact order enqueued; an Attach followed by a SendText from the
// same caller has the attach fully resolved before the send is attempted.
type Command interface {
	isCommand()
}

// Attach binds the session to the console of the given process. Any
// existing binding is released first (best-effort).
type Attach struct {
	PID uint32
}

// Detach releases the current binding. Idempotent: a detached session
// performs no capability call.
type Detach struct{}

// SendText injects text as keystrokes followed by Enter. Fails with
// OperationFailed if the session is detached.
type SendText struct {
	Text string
}

// SendControl injects a control key press. Fails with OperationFailed if
// the session is detached.
type SendControl struct {
	Code uint16
}

// SetPollInterval changes the polling interval, effective from the next
// poll.
type SetPollInterval struct {
	Interval time.Duration
}

// SetLineCount changes how many screen lines each poll reads, effective
// from the next poll.
type SetLineCount struct {
	Count int
}

// Stop shuts the worker down after a best-effort detach. Cooperative: an
// in-flight capability call runs to completion first.
type Stop struct{}

func (Attach) isCommand()          {}
func (Detach) isCommand()          {}
func (SendText) isCommand()        {}
func (SendControl) isCommand()     {}
func (SetPollInterval) isCommand() {}
func (SetLineCount) isCommand()    {}
func (Stop) isCommand()            {}
