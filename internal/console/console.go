package console

// Capability is the primitive console access contract.
//
// Implementations are stateful at the OS-process level and non-reentrant:
// calls must come from exactly one goroutine at a time, and every read or
// write implicitly depends on which console is currently bound. The session
// worker owns the only reference in a running system.
type Capability interface {
	// Attach binds the calling process's console I/O to the console of the
	// process identified by pid. Any prior binding must be released first.
	Attach(pid uint32) error

	// Detach releases the current console binding. Best-effort: callers
	// treat failure as non-fatal.
	Detach() error

	// ReadRecentLines returns up to maxLines rows of visible text ending at
	// the cursor row, oldest first, each trimmed of trailing padding.
	ReadRecentLines(maxLines int) ([]string, error)

	// SendText injects text as keystrokes followed by Enter.
	SendText(text string) error

	// SendControl injects a single control key press identified by a
	// virtual key code (e.g. 0x43 with Ctrl held for Ctrl+C on Windows).
	SendControl(code uint16) error
}
