package session

import "sync"

// commandQueue is the unbounded FIFO between handles and the worker.
// Enqueue never blocks and never drops; the worker drains whatever is
// pending in one pass at the top of each loop iteration.
type commandQueue struct {
	mu      sync.Mutex
	pending []Command
	closed  bool
}

func newCommandQueue() *commandQueue {
	return &commandQueue{}
}

// enqueue appends cmd. Returns false once the queue is closed (worker
// exited).
func (q *commandQueue) enqueue(cmd Command) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}
	q.pending = append(q.pending, cmd)
	return true
}

// drain takes all currently queued commands in arrival order.
func (q *commandQueue) drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		return nil
	}
	cmds := q.pending
	q.pending = nil
	return cmds
}

// close rejects further enqueues. Called by the worker on exit so that
// Send can report ErrQueueClosed synchronously.
func (q *commandQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.pending = nil
}
