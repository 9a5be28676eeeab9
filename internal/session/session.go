package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/GriffinCanCode/conscope/internal/console"
	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/GriffinCanCode/conscope/internal/monitoring"
	"github.com/GriffinCanCode/conscope/internal/shared/id"
	"go.uber.org/zap"
)

// ErrQueueClosed is returned by Send and RecvEvent after the worker has
// exited (Stop processed or session closed).
var ErrQueueClosed = errors.New("session worker has stopped")

// eventBacklog bounds how many undrained events are retained. A consumer
// that never drains must not wedge the worker, so the oldest event is
// dropped on overflow.
const eventBacklog = 256

// Cadence is the mutable poll configuration: how often the worker reads
// the screen and how many lines each read requests. Owned by the worker;
// changed only via SetPollInterval/SetLineCount commands.
type Cadence struct {
	Interval  time.Duration
	LineCount int
}

// DefaultCadence mirrors the classic 500ms / 100-line polling setup.
func DefaultCadence() Cadence {
	return Cadence{
		Interval:  500 * time.Millisecond,
		LineCount: 100,
	}
}

// sanitize clamps nonsensical cadence values to the defaults.
func (c Cadence) sanitize() Cadence {
	d := DefaultCadence()
	if c.Interval <= 0 {
		c.Interval = d.Interval
	}
	if c.LineCount <= 0 {
		c.LineCount = d.LineCount
	}
	return c
}

// Session is the client-facing handle over one console session. It owns no
// console access itself: construction spawns the worker goroutine, and all
// console operations route through Send as commands.
//
// Send and TryRecvEvent never block. Close signals Stop and waits for the
// worker to finish its in-flight iteration, so the console binding is
// never leaked.
type Session struct {
	ID        id.SessionID
	CreatedAt time.Time

	caps    console.Capability
	log     *logging.Logger
	metrics *monitoring.Metrics

	queue  *commandQueue
	events chan Event
	done   chan struct{}
}

// workerState is the worker-private session state. Nothing outside the
// worker goroutine may read or write it.
type workerState struct {
	attached bool
	pid      uint32
	cadence  Cadence
	last     []string // last emitted snapshot; nil after every detach
}

// New creates a session and starts its worker goroutine.
func New(caps console.Capability, cadence Cadence, log *logging.Logger, metrics *monitoring.Metrics) *Session {
	s := &Session{
		ID:        id.NewSessionID(),
		CreatedAt: time.Now(),
		caps:      caps,
		log:       log,
		metrics:   metrics,
		queue:     newCommandQueue(),
		events:    make(chan Event, eventBacklog),
		done:      make(chan struct{}),
	}
	if metrics != nil {
		metrics.SessionsActive.Inc()
		metrics.SessionsTotal.Inc()
	}
	go s.run(cadence.sanitize())
	return s
}

// Send enqueues a command for the worker. Non-blocking; returns
// ErrQueueClosed if the worker has already exited.
func (s *Session) Send(cmd Command) error {
	if !s.queue.enqueue(cmd) {
		return ErrQueueClosed
	}
	return nil
}

// TryRecvEvent returns the next pending event without blocking.
func (s *Session) TryRecvEvent() (Event, bool) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return nil, false
		}
		return ev, true
	default:
		return nil, false
	}
}

// RecvEvent blocks until an event is available, the context expires, or
// the worker has exited with no events left.
func (s *Session) RecvEvent(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-s.events:
		if !ok {
			return nil, ErrQueueClosed
		}
		return ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Stopped reports whether the worker has exited.
func (s *Session) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close stops the worker and waits for it to release the console binding.
// The wait is bounded by one poll interval plus one capability call.
func (s *Session) Close() {
	_ = s.Send(Stop{})
	<-s.done
}

// run is the worker loop: drain every queued command, poll once if
// attached, sleep one interval, repeat. Draining before polling every
// iteration is what keeps commands and polls strictly ordered within a
// single owner.
func (s *Session) run(cadence Cadence) {
	st := workerState{cadence: cadence}
	defer func() {
		s.queue.close()
		close(s.events)
		close(s.done)
		if s.metrics != nil {
			s.metrics.SessionsActive.Dec()
		}
	}()

	for {
		for _, cmd := range s.queue.drain() {
			if stop := s.apply(&st, cmd); stop {
				return
			}
		}
		if st.attached {
			s.poll(&st)
		}
		time.Sleep(st.cadence.Interval)
	}
}

// apply executes one command against the worker state. Returns true for
// Stop.
func (s *Session) apply(st *workerState, cmd Command) bool {
	switch c := cmd.(type) {
	case Attach:
		s.attach(st, c.PID)

	case Detach:
		if st.attached {
			s.release(st)
		}
		// Idempotent: already-detached sessions get the status event and
		// nothing else.
		s.emit(StatusChanged{Message: "detached"})

	case SendText:
		if !st.attached {
			s.emit(OperationFailed{Context: "send_text", Message: console.ErrNotAttached.Error()})
			return false
		}
		if err := s.caps.SendText(c.Text); err != nil {
			s.log.Warn("send text failed", zap.String("session", s.ID.String()), zap.Error(err))
			s.emit(OperationFailed{Context: "send_text", Message: err.Error()})
		}

	case SendControl:
		if !st.attached {
			s.emit(OperationFailed{Context: "send_control", Message: console.ErrNotAttached.Error()})
			return false
		}
		if err := s.caps.SendControl(c.Code); err != nil {
			s.log.Warn("send control failed", zap.String("session", s.ID.String()), zap.Error(err))
			s.emit(OperationFailed{Context: "send_control", Message: err.Error()})
		}

	case SetPollInterval:
		if c.Interval > 0 {
			st.cadence.Interval = c.Interval
		}

	case SetLineCount:
		if c.Count > 0 {
			st.cadence.LineCount = c.Count
		}

	case Stop:
		if st.attached {
			s.release(st)
		}
		s.log.Debug("session stopping", zap.String("session", s.ID.String()))
		return true
	}
	return false
}

// attach rebinds the session to pid: best-effort release of any previous
// binding, then a fresh capability attach.
func (s *Session) attach(st *workerState, pid uint32) {
	if st.attached {
		s.release(st)
	}
	if err := s.caps.Attach(pid); err != nil {
		s.log.Warn("attach failed",
			zap.String("session", s.ID.String()),
			zap.Uint32("pid", pid),
			zap.Error(err))
		s.emit(OperationFailed{Context: "attach", Message: err.Error()})
		if s.metrics != nil {
			s.metrics.AttachesTotal.WithLabelValues("failure").Inc()
		}
		return
	}
	st.attached = true
	st.pid = pid
	st.last = nil
	s.log.Info("attached", zap.String("session", s.ID.String()), zap.Uint32("pid", pid))
	s.emit(StatusChanged{Message: fmt.Sprintf("attached to %d", pid)})
	if s.metrics != nil {
		s.metrics.AttachesTotal.WithLabelValues("success").Inc()
	}
}

// release detaches best-effort and resets the worker-private snapshot so
// the next attach re-emits its first read.
func (s *Session) release(st *workerState) {
	if err := s.caps.Detach(); err != nil {
		s.log.Warn("detach failed", zap.String("session", s.ID.String()), zap.Error(err))
		s.emit(OperationFailed{Context: "detach", Message: err.Error()})
	}
	st.attached = false
	st.pid = 0
	st.last = nil
}

// poll performs one screen read. A failed read is a hard disconnect; a
// successful one is diffed against the last emitted snapshot.
func (s *Session) poll(st *workerState) {
	lines, err := s.caps.ReadRecentLines(st.cadence.LineCount)
	if err != nil {
		s.log.Warn("poll read failed, disconnecting",
			zap.String("session", s.ID.String()),
			zap.Uint32("pid", st.pid),
			zap.Error(err))
		st.attached = false
		st.pid = 0
		st.last = nil
		s.emit(Disconnected{})
		if s.metrics != nil {
			s.metrics.PollsTotal.WithLabelValues("failure").Inc()
		}
		return
	}
	if s.metrics != nil {
		s.metrics.PollsTotal.WithLabelValues("success").Inc()
	}
	if Changed(st.last, lines) {
		st.last = slices.Clone(lines)
		s.emit(OutputUpdated{Lines: lines, ObservedAt: time.Now()})
		if s.metrics != nil {
			s.metrics.OutputUpdatesTotal.Inc()
		}
	}
}

// emit queues an event for the handle, dropping the oldest pending event
// if the backlog is full. The worker is the only sender.
func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
		return
	default:
	}
	select {
	case <-s.events:
		if s.metrics != nil {
			s.metrics.EventsDropped.Inc()
		}
	default:
	}
	select {
	case s.events <- ev:
	default:
	}
}
