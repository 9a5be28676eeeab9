// Package console provides low-level access to another process's text console.
//
// The package exposes a single Capability contract with two backends:
//   - Windows: binds to a target process's console via AttachConsole and
//     reads/writes the screen buffer through CONOUT$/CONIN$.
//   - POSIX: a loopback host console backed by a local PTY, used for
//     development and integration testing where Win32 consoles don't exist.
//
// Contract:
//   - The console binding is process-wide and exclusive: at most one
//     successful Attach may be live at a time for the whole calling process.
//   - Capability implementations are NOT safe for concurrent use. The
//     session worker is the sole permitted caller; nothing else in the
//     repository may invoke these operations.
//   - ReadRecentLines returns the most recently produced rows of visible
//     text up to the cursor, trimmed of trailing padding, oldest first.
//
// Operations:
//   - Attach(pid): bind to the target process's console
//   - Detach(): release the current binding
//   - ReadRecentLines(max): snapshot the visible screen tail
//   - SendText(text): inject a line of keystrokes followed by Enter
//   - SendControl(code): inject a single control key event
package console
