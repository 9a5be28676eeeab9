package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/GriffinCanCode/conscope/internal/console"
	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCapability records every call in program order and asserts the
// non-reentrancy contract: no two capability calls may ever overlap.
type fakeCapability struct {
	mu       sync.Mutex
	inCall   bool
	overlap  bool
	ops      []string
	attached bool
	pid      uint32

	attachErr func(pid uint32) error
	readFn    func(maxLines int) ([]string, error)
	writeErr  error
}

func newFakeCapability() *fakeCapability {
	return &fakeCapability{
		readFn: func(int) ([]string, error) { return []string{}, nil },
	}
}

func (f *fakeCapability) enter(op string) {
	f.mu.Lock()
	if f.inCall {
		f.overlap = true
	}
	f.inCall = true
	f.ops = append(f.ops, op)
	f.mu.Unlock()
}

func (f *fakeCapability) exit() {
	f.mu.Lock()
	f.inCall = false
	f.mu.Unlock()
}

func (f *fakeCapability) Attach(pid uint32) error {
	f.enter(fmt.Sprintf("attach %d", pid))
	defer f.exit()
	if f.attachErr != nil {
		if err := f.attachErr(pid); err != nil {
			return err
		}
	}
	f.mu.Lock()
	if f.attached {
		// Second live binding: the invariant the whole core exists for.
		f.overlap = true
	}
	f.attached = true
	f.pid = pid
	f.mu.Unlock()
	return nil
}

func (f *fakeCapability) Detach() error {
	f.enter("detach")
	defer f.exit()
	f.mu.Lock()
	f.attached = false
	f.pid = 0
	f.mu.Unlock()
	return nil
}

func (f *fakeCapability) ReadRecentLines(maxLines int) ([]string, error) {
	f.enter(fmt.Sprintf("read %d", maxLines))
	defer f.exit()
	return f.readFn(maxLines)
}

func (f *fakeCapability) SendText(text string) error {
	f.enter("send_text " + text)
	defer f.exit()
	return f.writeErr
}

func (f *fakeCapability) SendControl(code uint16) error {
	f.enter(fmt.Sprintf("send_control %d", code))
	defer f.exit()
	return f.writeErr
}

func (f *fakeCapability) opLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.ops))
	copy(out, f.ops)
	return out
}

func (f *fakeCapability) violated() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overlap
}

func testCadence() Cadence {
	return Cadence{Interval: 2 * time.Millisecond, LineCount: 10}
}

func newTestSession(t *testing.T, caps console.Capability, cadence Cadence) *Session {
	t.Helper()
	s := New(caps, cadence, logging.NewNop(), nil)
	t.Cleanup(s.Close)
	return s
}

// waitEvent blocks until an event of the wanted kind arrives, failing the
// test on timeout. Other kinds seen along the way are returned too.
func waitEvent(t *testing.T, s *Session, kind string) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		ev, err := s.RecvEvent(ctx)
		require.NoError(t, err, "waiting for %s event", kind)
		if ev.Kind() == kind {
			return ev
		}
	}
}

func TestAttachSuccessEmitsStatus(t *testing.T) {
	caps := newFakeCapability()
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 4321}))

	ev := waitEvent(t, s, KindStatusChanged)
	assert.Equal(t, "attached to 4321", ev.(StatusChanged).Message)
	assert.False(t, caps.violated())
}

func TestAttachFailureStaysDetached(t *testing.T) {
	caps := newFakeCapability()
	caps.attachErr = func(pid uint32) error {
		return &console.AttachError{PID: pid, Err: errors.New("access denied")}
	}
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 99}))

	ev := waitEvent(t, s, KindOperationFailed)
	failed := ev.(OperationFailed)
	assert.Equal(t, "attach", failed.Context)
	assert.Contains(t, failed.Message, "access denied")

	// Detached means polls never reach the capability.
	time.Sleep(20 * time.Millisecond)
	for _, op := range caps.opLog() {
		assert.NotContains(t, op, "read")
	}
}

func TestOutputEmittedOnceForIdenticalReads(t *testing.T) {
	caps := newFakeCapability()
	caps.readFn = func(int) ([]string, error) {
		return []string{"C:\\>"}, nil
	}
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 1}))

	ev := waitEvent(t, s, KindOutputUpdated)
	assert.Equal(t, []string{"C:\\>"}, ev.(OutputUpdated).Lines)
	assert.False(t, ev.(OutputUpdated).ObservedAt.IsZero())

	// Many identical polls later, no further update may appear.
	time.Sleep(30 * time.Millisecond)
	for {
		extra, ok := s.TryRecvEvent()
		if !ok {
			break
		}
		assert.NotEqual(t, KindOutputUpdated, extra.Kind(), "identical reads must not re-emit")
	}
}

func TestOutputChangeEmitsAgain(t *testing.T) {
	caps := newFakeCapability()
	var mu sync.Mutex
	lines := []string{"one"}
	caps.readFn = func(int) ([]string, error) {
		mu.Lock()
		defer mu.Unlock()
		return lines, nil
	}
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 1}))
	first := waitEvent(t, s, KindOutputUpdated)
	assert.Equal(t, []string{"one"}, first.(OutputUpdated).Lines)

	mu.Lock()
	lines = []string{"one", "two"}
	mu.Unlock()

	second := waitEvent(t, s, KindOutputUpdated)
	assert.Equal(t, []string{"one", "two"}, second.(OutputUpdated).Lines)
}

func TestWriteGatingWhileDetached(t *testing.T) {
	caps := newFakeCapability()
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(SendText{Text: "dir"}))

	ev := waitEvent(t, s, KindOperationFailed)
	failed := ev.(OperationFailed)
	assert.Equal(t, "send_text", failed.Context)
	assert.Contains(t, failed.Message, "not attached")
	assert.Empty(t, caps.opLog(), "no capability call may be attempted while detached")

	require.NoError(t, s.Send(SendControl{Code: 'C'}))
	ev = waitEvent(t, s, KindOperationFailed)
	assert.Equal(t, "send_control", ev.(OperationFailed).Context)
	assert.Empty(t, caps.opLog())
}

func TestReadFailureDisconnects(t *testing.T) {
	caps := newFakeCapability()
	caps.readFn = func(int) ([]string, error) {
		return nil, &console.ReadError{Err: errors.New("console gone")}
	}
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 4321}))
	waitEvent(t, s, KindDisconnected)

	// Exactly one Disconnected; the worker must not keep polling a dead
	// binding and re-emitting.
	time.Sleep(30 * time.Millisecond)
	for {
		extra, ok := s.TryRecvEvent()
		if !ok {
			break
		}
		assert.NotEqual(t, KindDisconnected, extra.Kind())
	}

	reads := 0
	for _, op := range caps.opLog() {
		if op == "read 10" {
			reads++
		}
	}
	assert.Equal(t, 1, reads, "one failed read, then detached")
}

func TestDetachIdempotent(t *testing.T) {
	caps := newFakeCapability()
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Detach{}))

	ev := waitEvent(t, s, KindStatusChanged)
	assert.Equal(t, "detached", ev.(StatusChanged).Message)
	assert.Empty(t, caps.opLog(), "detach while detached makes no capability call")
}

func TestReattachResetsBaseline(t *testing.T) {
	caps := newFakeCapability()
	caps.readFn = func(int) ([]string, error) {
		return []string{"same screen"}, nil
	}
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 1}))
	waitEvent(t, s, KindOutputUpdated)

	require.NoError(t, s.Send(Detach{}))
	waitEvent(t, s, KindStatusChanged)

	require.NoError(t, s.Send(Attach{PID: 1}))
	ev := waitEvent(t, s, KindOutputUpdated)
	assert.Equal(t, []string{"same screen"}, ev.(OutputUpdated).Lines,
		"identical pre-detach content must re-emit after reattach")
}

func TestAttachSupersedesPriorBinding(t *testing.T) {
	caps := newFakeCapability()
	s := newTestSession(t, caps, testCadence())

	// Enqueued back to back before either resolves.
	require.NoError(t, s.Send(Attach{PID: 111}))
	require.NoError(t, s.Send(Attach{PID: 222}))

	waitEvent(t, s, KindStatusChanged)
	ev := waitEvent(t, s, KindStatusChanged)
	assert.Equal(t, "attached to 222", ev.(StatusChanged).Message)

	// Polls may legally run between command batches; the binding
	// transitions themselves must still be strictly ordered.
	var transitions []string
	for _, op := range caps.opLog() {
		if op == "detach" || op == "attach 111" || op == "attach 222" {
			transitions = append(transitions, op)
		}
	}
	assert.Equal(t, []string{"attach 111", "detach", "attach 222"}, transitions,
		"rebind must fully resolve the old binding before the new one")
	assert.False(t, caps.violated(), "two pids must never be bound at once")
}

func TestCommandsAreFIFO(t *testing.T) {
	caps := newFakeCapability()
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 7}))
	require.NoError(t, s.Send(SendText{Text: "dir"}))

	waitEvent(t, s, KindStatusChanged)
	time.Sleep(20 * time.Millisecond)

	attachIdx, sendIdx := -1, -1
	for i, op := range caps.opLog() {
		switch op {
		case "attach 7":
			attachIdx = i
		case "send_text dir":
			sendIdx = i
		}
	}
	require.NotEqual(t, -1, attachIdx)
	require.NotEqual(t, -1, sendIdx)
	assert.Less(t, attachIdx, sendIdx,
		"send enqueued after attach must run after the attach resolved")
}

func TestSetLineCountTakesEffect(t *testing.T) {
	caps := newFakeCapability()
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 1}))
	require.NoError(t, s.Send(SetLineCount{Count: 25}))

	waitEvent(t, s, KindStatusChanged)
	time.Sleep(20 * time.Millisecond)

	var sawNewCount bool
	for _, op := range caps.opLog() {
		if op == "read 25" {
			sawNewCount = true
		}
	}
	assert.True(t, sawNewCount, "polls after the update must request the new line count")
}

func TestWriteFailureKeepsBinding(t *testing.T) {
	caps := newFakeCapability()
	caps.writeErr = &console.WriteError{Err: errors.New("input blocked")}
	caps.readFn = func(int) ([]string, error) { return []string{"x"}, nil }
	s := newTestSession(t, caps, testCadence())

	require.NoError(t, s.Send(Attach{PID: 5}))
	waitEvent(t, s, KindStatusChanged)

	require.NoError(t, s.Send(SendText{Text: "ls"}))
	ev := waitEvent(t, s, KindOperationFailed)
	assert.Equal(t, "send_text", ev.(OperationFailed).Context)

	// Still attached: polls keep flowing.
	waitEvent(t, s, KindOutputUpdated)
}

func TestCloseStopsWorkerAndDetaches(t *testing.T) {
	caps := newFakeCapability()
	s := New(caps, testCadence(), logging.NewNop(), nil)

	require.NoError(t, s.Send(Attach{PID: 9}))
	waitEvent(t, s, KindStatusChanged)

	s.Close()

	assert.True(t, s.Stopped())
	assert.ErrorIs(t, s.Send(Detach{}), ErrQueueClosed)

	ops := caps.opLog()
	assert.Equal(t, "detach", ops[len(ops)-1], "close must release the binding")

	_, err := s.RecvEvent(context.Background())
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestConcurrentSendersNeverOverlapCapabilityCalls(t *testing.T) {
	caps := newFakeCapability()
	caps.readFn = func(int) ([]string, error) { return []string{"line"}, nil }
	s := newTestSession(t, caps, testCadence())

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				switch j % 4 {
				case 0:
					s.Send(Attach{PID: uint32(n*100 + j)})
				case 1:
					s.Send(SendText{Text: "echo hi"})
				case 2:
					s.Send(SendControl{Code: 'C'})
				case 3:
					s.Send(Detach{})
				}
			}
		}(i)
	}
	wg.Wait()

	time.Sleep(50 * time.Millisecond)
	assert.False(t, caps.violated(),
		"capability calls must be serialized and bindings exclusive under any interleaving")
}
