// Package session implements the console session core: a single worker
// goroutine that owns the exclusive console binding, a command/event
// protocol through which every console operation is routed, and a
// change-detecting poller that turns the stateless screen read into a
// stream of output updates.
//
// Architecture:
//   - Each Session runs one worker goroutine for its whole lifetime. The
//     worker is the ONLY caller of the console.Capability; command senders
//     and the poller are unified into one serialized consumer, so mutual
//     exclusion over the process-wide binding is structural rather than
//     lock-based.
//   - Every loop iteration first drains all queued commands in FIFO order,
//     then performs at most one poll if attached, then sleeps for the
//     configured interval. Command latency is bounded by one interval and
//     commands never interleave with polls.
//   - Attachment state, the poll cadence, and the last emitted snapshot
//     are private to the worker. Clients interact exclusively through
//     Send/TryRecvEvent/RecvEvent on the Session handle.
//
// Failure policy:
//   - Attach failure leaves the session detached and surfaces an
//     OperationFailed event.
//   - Detach is best-effort and idempotent; a failed stale detach never
//     blocks a fresh attach.
//   - A poll read failure is a hard disconnect (the console handle is
//     assumed gone), not a transparent retry: the session emits one
//     Disconnected event and the client must re-issue Attach.
//   - Write commands while detached fail fast without touching the
//     capability.
package session
