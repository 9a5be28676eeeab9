package session

import (
	"fmt"
	"time"

	"github.com/GriffinCanCode/conscope/internal/console"
	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/GriffinCanCode/conscope/internal/monitoring"
	"sync"
)

// Factory builds a fresh console capability for a new session. Each
// session worker gets its own instance; the worker is its sole caller.
type Factory func() console.Capability

// Registry tracks live sessions by ID. A session spans the lifetime of
// one worker; a stopped session must be destroyed and recreated, never
// restarted.
type Registry struct {
	factory Factory
	cadence Cadence
	log     *logging.Logger
	metrics *monitoring.Metrics

	sessions sync.Map // map[string]*Session
}

// Info is the public representation of a session.
type Info struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

// NewRegistry creates a registry whose sessions use the given capability
// factory and default cadence.
func NewRegistry(factory Factory, cadence Cadence, log *logging.Logger, metrics *monitoring.Metrics) *Registry {
	return &Registry{
		factory: factory,
		cadence: cadence.sanitize(),
		log:     log,
		metrics: metrics,
	}
}

// Create starts a new session. A nil cadence uses the registry default.
func (r *Registry) Create(cadence *Cadence) *Session {
	cad := r.cadence
	if cadence != nil {
		cad = cadence.sanitize()
	}
	s := New(r.factory(), cad, r.log, r.metrics)
	r.sessions.Store(s.ID.String(), s)
	return s
}

// Get retrieves a session by ID.
func (r *Registry) Get(sessionID string) (*Session, bool) {
	value, ok := r.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return value.(*Session), true
}

// List returns info for all tracked sessions.
func (r *Registry) List() []Info {
	infos := []Info{}
	r.sessions.Range(func(_, value any) bool {
		s := value.(*Session)
		infos = append(infos, Info{
			ID:        s.ID.String(),
			CreatedAt: s.CreatedAt,
			Active:    !s.Stopped(),
		})
		return true
	})
	return infos
}

// Destroy stops a session and removes it from the registry.
func (r *Registry) Destroy(sessionID string) error {
	value, ok := r.sessions.LoadAndDelete(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	value.(*Session).Close()
	return nil
}

// CloseAll stops every tracked session. Used on shutdown so no console
// binding outlives the process gracefully.
func (r *Registry) CloseAll() {
	r.sessions.Range(func(key, value any) bool {
		value.(*Session).Close()
		r.sessions.Delete(key)
		return true
	})
}
