package session

import "time"

// Event kinds as they appear on the wire. Consumers must treat unknown
// kinds as no-ops, never as fatal.
const (
	KindStatusChanged   = "status_changed"
	KindOutputUpdated   = "output_updated"
	KindOperationFailed = "operation_failed"
	KindDisconnected    = "disconnected"
)

// Event is a notification emitted by the session worker, drained by
// clients in FIFO order.
type Event interface {
	Kind() string
}

// StatusChanged reports a state transition in human-readable form
// ("attached to 4321", "detached").
type StatusChanged struct {
	Message string `json:"message"`
}

// OutputUpdated carries a new screen snapshot. Emitted only when the
// content differs from the previously emitted snapshot.
type OutputUpdated struct {
	Lines      []string  `json:"lines"`
	ObservedAt time.Time `json:"observed_at"`
}

// OperationFailed reports a non-fatal command failure. Context names the
// operation ("attach", "detach", "send_text", "send_control").
type OperationFailed struct {
	Context string `json:"context"`
	Message string `json:"message"`
}

// Disconnected reports loss of the console binding detected during
// polling. The session is detached; the client must re-issue Attach.
type Disconnected struct{}

func (StatusChanged) Kind() string   { return KindStatusChanged }
func (OutputUpdated) Kind() string   { return KindOutputUpdated }
func (OperationFailed) Kind() string { return KindOperationFailed }
func (Disconnected) Kind() string    { return KindDisconnected }

// Envelope is the JSON wire form of an event.
type Envelope struct {
	Type       string    `json:"type"`
	Message    string    `json:"message,omitempty"`
	Context    string    `json:"context,omitempty"`
	Lines      []string  `json:"lines,omitempty"`
	ObservedAt time.Time `json:"observed_at,omitzero"`
}

// Envelop wraps an event for JSON transport.
func Envelop(ev Event) Envelope {
	switch e := ev.(type) {
	case StatusChanged:
		return Envelope{Type: KindStatusChanged, Message: e.Message}
	case OutputUpdated:
		return Envelope{Type: KindOutputUpdated, Lines: e.Lines, ObservedAt: e.ObservedAt}
	case OperationFailed:
		return Envelope{Type: KindOperationFailed, Context: e.Context, Message: e.Message}
	case Disconnected:
		return Envelope{Type: KindDisconnected}
	default:
		return Envelope{Type: ev.Kind()}
	}
}
