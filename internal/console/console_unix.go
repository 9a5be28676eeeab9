//go:build !windows

package console

import (
	"errors"
	"os"
	"os/exec"

	"github.com/creack/pty"
)

// Host is the loopback console backend for platforms without attachable
// Win32 consoles. Attach starts a local shell on a PTY and the capability
// operations act on its screen: reads snapshot the retained output tail,
// writes inject keystrokes. The pid argument is recorded for labeling only;
// there is no cross-process binding to adopt on POSIX.
//
// Like every Capability, a Host is single-caller: the session worker owns it.
type Host struct {
	shell    string
	bufSize  int
	pid      uint32
	cmd      *exec.Cmd
	ptmx     *os.File
	out      *Buffer
	exited   chan struct{}
	attached bool
}

// NewHost returns a detached loopback console. An empty shell selects
// $SHELL, falling back to /bin/sh.
func NewHost(shell string) *Host {
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/sh"
		}
	}
	return &Host{
		shell:   shell,
		bufSize: 256 * 1024,
	}
}

func (h *Host) Attach(pid uint32) error {
	// Release any previous hosted shell first, mirroring the Windows
	// backend's free-before-attach behavior.
	_ = h.Detach()

	cmd := exec.Command(h.shell)
	cmd.Env = append(os.Environ(), "TERM=dumb")

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: 24, Cols: 120})
	if err != nil {
		return &AttachError{PID: pid, Err: err}
	}

	h.pid = pid
	h.cmd = cmd
	h.ptmx = ptmx
	h.out = NewBuffer(h.bufSize)
	h.exited = make(chan struct{})
	h.attached = true

	go drain(ptmx, h.out)
	go func(cmd *exec.Cmd, exited chan struct{}) {
		_ = cmd.Wait()
		close(exited)
	}(cmd, h.exited)
	return nil
}

// drain copies PTY output into the retained buffer until the PTY closes.
func drain(ptmx *os.File, out *Buffer) {
	buf := make([]byte, 4096)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			out.Write(buf[:n])
		}
		if err != nil {
			// PTY reads fail with EIO on close; either way the shell is done.
			return
		}
	}
}

func (h *Host) Detach() error {
	if !h.attached {
		return nil
	}
	h.attached = false

	var errs []error
	if h.cmd != nil && h.cmd.Process != nil {
		if err := h.cmd.Process.Kill(); err != nil {
			select {
			case <-h.exited:
				// Already gone; not an error.
			default:
				errs = append(errs, err)
			}
		}
		// Reaped by the waiter goroutine started in Attach.
		<-h.exited
	}
	if h.ptmx != nil {
		if err := h.ptmx.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	h.cmd = nil
	h.ptmx = nil
	h.out = nil
	h.exited = nil

	if len(errs) > 0 {
		return &DetachError{Err: errors.Join(errs...)}
	}
	return nil
}

func (h *Host) ReadRecentLines(maxLines int) ([]string, error) {
	if !h.attached {
		return nil, &ReadError{Err: ErrNotAttached}
	}
	select {
	case <-h.exited:
		return nil, &ReadError{Err: errors.New("hosted shell exited")}
	default:
	}
	return TailLines(h.out.Peek(), maxLines), nil
}

func (h *Host) SendText(text string) error {
	if !h.attached {
		return &WriteError{Err: ErrNotAttached}
	}
	if _, err := h.ptmx.Write(append([]byte(text), '\r')); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func (h *Host) SendControl(code uint16) error {
	if !h.attached {
		return &WriteError{Err: ErrNotAttached}
	}
	// Letter codes map to their control bytes (0x43 'C' -> 0x03, Ctrl+C).
	// Codes already in control range pass through unchanged.
	var b byte
	switch {
	case code >= 'A' && code <= 'Z':
		b = byte(code) & 0x1f
	case code < 0x20:
		b = byte(code)
	default:
		return &WriteError{Err: errors.New("unsupported control code")}
	}
	if _, err := h.ptmx.Write([]byte{b}); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}
