//go:build windows

package console

import (
	"errors"
	"strings"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	kernel32                   = windows.NewLazySystemDLL("kernel32.dll")
	procAttachConsole          = kernel32.NewProc("AttachConsole")
	procFreeConsole            = kernel32.NewProc("FreeConsole")
	procReadConsoleOutputCharW = kernel32.NewProc("ReadConsoleOutputCharacterW")
	procWriteConsoleInputW     = kernel32.NewProc("WriteConsoleInputW")
)

const (
	keyEvent        = 0x0001
	leftCtrlPressed = 0x0008
)

// keyEventRecord mirrors KEY_EVENT_RECORD.
type keyEventRecord struct {
	KeyDown         int32
	RepeatCount     uint16
	VirtualKeyCode  uint16
	VirtualScanCode uint16
	UnicodeChar     uint16
	ControlKeyState uint32
}

// inputRecord mirrors INPUT_RECORD for key events. The union is padded to
// the size of the largest member; KEY_EVENT_RECORD is the largest.
type inputRecord struct {
	EventType uint16
	_         uint16 // alignment
	Event     keyEventRecord
}

// Attached binds to a foreign process's console through the Win32 console
// API. The binding is process-wide: only one Attached may be live at a time,
// and attach/detach/read/write must all come from a single caller.
type Attached struct {
	pid      uint32
	attached bool
}

// NewAttached returns a detached Windows console capability.
func NewAttached() *Attached {
	return &Attached{}
}

func (c *Attached) Attach(pid uint32) error {
	// Release any stale binding first; a failed FreeConsole must not block
	// the fresh AttachConsole.
	_, _, _ = procFreeConsole.Call()
	c.attached = false

	r, _, err := procAttachConsole.Call(uintptr(pid))
	if r == 0 {
		return &AttachError{PID: pid, Err: err}
	}
	c.pid = pid
	c.attached = true
	return nil
}

func (c *Attached) Detach() error {
	if !c.attached {
		return nil
	}
	c.attached = false
	r, _, err := procFreeConsole.Call()
	if r == 0 {
		return &DetachError{Err: err}
	}
	return nil
}

func (c *Attached) ReadRecentLines(maxLines int) ([]string, error) {
	if !c.attached {
		return nil, &ReadError{Err: ErrNotAttached}
	}
	conout, err := openConsoleFile("CONOUT$", windows.GENERIC_READ)
	if err != nil {
		return nil, &ReadError{Err: err}
	}
	defer windows.CloseHandle(conout)

	var info windows.ConsoleScreenBufferInfo
	if err := windows.GetConsoleScreenBufferInfo(conout, &info); err != nil {
		return nil, &ReadError{Err: err}
	}

	cursorY := info.CursorPosition.Y
	width := int(info.Size.X)
	startY := int16(0)
	if int(cursorY) >= maxLines {
		startY = cursorY - int16(maxLines)
	}

	lines := make([]string, 0, int(cursorY-startY)+1)
	for y := startY; y <= cursorY; y++ {
		line, err := readRow(conout, y, width)
		if err != nil {
			return nil, &ReadError{Err: err}
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func (c *Attached) SendText(text string) error {
	if !c.attached {
		return &WriteError{Err: ErrNotAttached}
	}
	records := make([]inputRecord, 0, 2*len(text)+2)
	for _, r := range text {
		records = append(records, charEvent(uint16(r), true), charEvent(uint16(r), false))
	}
	records = append(records, charEvent('\r', true), charEvent('\r', false))
	return c.writeInput(records)
}

func (c *Attached) SendControl(code uint16) error {
	if !c.attached {
		return &WriteError{Err: ErrNotAttached}
	}
	// Letter codes are sent as Ctrl+key (virtual key with Ctrl held), so
	// code 0x43 ('C') delivers Ctrl+C to the target. Anything else is
	// delivered as a bare key press for that virtual key code.
	ctrl := code >= 'A' && code <= 'Z'
	records := []inputRecord{
		controlEvent(code, true, ctrl),
		controlEvent(code, false, ctrl),
	}
	return c.writeInput(records)
}

func (c *Attached) writeInput(records []inputRecord) error {
	conin, err := openConsoleFile("CONIN$", windows.GENERIC_WRITE)
	if err != nil {
		return &WriteError{Err: err}
	}
	defer windows.CloseHandle(conin)

	var written uint32
	r, _, callErr := procWriteConsoleInputW.Call(
		uintptr(conin),
		uintptr(unsafe.Pointer(&records[0])),
		uintptr(len(records)),
		uintptr(unsafe.Pointer(&written)),
	)
	if r == 0 {
		return &WriteError{Err: callErr}
	}
	if int(written) != len(records) {
		return &WriteError{Err: errors.New("short write of input records")}
	}
	return nil
}

func openConsoleFile(name string, access uint32) (windows.Handle, error) {
	path, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return windows.InvalidHandle, err
	}
	return windows.CreateFile(
		path,
		access,
		windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL,
		0,
	)
}

func readRow(conout windows.Handle, y int16, width int) (string, error) {
	if width <= 0 {
		return "", nil
	}
	buf := make([]uint16, width)
	coord := windows.Coord{X: 0, Y: y}
	var read uint32
	r, _, err := procReadConsoleOutputCharW.Call(
		uintptr(conout),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(width),
		uintptr(*(*int32)(unsafe.Pointer(&coord))),
		uintptr(unsafe.Pointer(&read)),
	)
	if r == 0 {
		return "", err
	}
	text := windows.UTF16ToString(buf[:read])
	return strings.TrimRight(text, " \x00"), nil
}

func charEvent(ch uint16, down bool) inputRecord {
	rec := inputRecord{EventType: keyEvent}
	rec.Event = keyEventRecord{
		RepeatCount: 1,
		UnicodeChar: ch,
	}
	if down {
		rec.Event.KeyDown = 1
	}
	return rec
}

func controlEvent(code uint16, down, ctrl bool) inputRecord {
	rec := inputRecord{EventType: keyEvent}
	rec.Event = keyEventRecord{
		RepeatCount:    1,
		VirtualKeyCode: code,
	}
	if down {
		rec.Event.KeyDown = 1
	}
	if ctrl {
		rec.Event.ControlKeyState = leftCtrlPressed
	}
	return rec
}
