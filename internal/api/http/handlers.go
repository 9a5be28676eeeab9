// Package http exposes the REST surface over sessions and processes.
//
// Handlers are thin adapters: every console operation is translated into
// a command on the session handle and acknowledged with 202, its outcome
// delivered later as an event on /events or the WebSocket stream. No
// handler ever touches the console capability.
package http

import (
	"net/http"
	"time"

	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/GriffinCanCode/conscope/internal/process"
	"github.com/GriffinCanCode/conscope/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the HTTP endpoint implementations.
type Handlers struct {
	registry *session.Registry
	lister   *process.Lister
	log      *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(registry *session.Registry, lister *process.Lister, log *logging.Logger) *Handlers {
	return &Handlers{
		registry: registry,
		lister:   lister,
		log:      log,
	}
}

// Root returns service identification.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "conscope",
		"purpose": "observe and drive the text console of local processes",
	})
}

// Health returns service liveness.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListProcesses enumerates candidate processes.
func (h *Handlers) ListProcesses(c *gin.Context) {
	infos, err := h.lister.List(c.Request.Context())
	if err != nil {
		h.log.Error("process enumeration failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processes": infos, "count": len(infos)})
}

type createSessionRequest struct {
	IntervalMS int `json:"interval_ms"`
	LineCount  int `json:"line_count"`
}

// CreateSession starts a new session worker.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req createSessionRequest
	// Body is optional; defaults apply when absent.
	_ = c.ShouldBindJSON(&req)

	var cadence *session.Cadence
	if req.IntervalMS > 0 || req.LineCount > 0 {
		cadence = &session.Cadence{
			Interval:  time.Duration(req.IntervalMS) * time.Millisecond,
			LineCount: req.LineCount,
		}
	}

	s := h.registry.Create(cadence)
	h.log.Info("session created", zap.String("session", s.ID.String()))
	c.JSON(http.StatusCreated, gin.H{
		"id":         s.ID.String(),
		"created_at": s.CreatedAt,
	})
}

// ListSessions returns all tracked sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	infos := h.registry.List()
	c.JSON(http.StatusOK, gin.H{"sessions": infos, "count": len(infos)})
}

// GetSession returns one session's info.
func (h *Handlers) GetSession(c *gin.Context) {
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, session.Info{
		ID:        s.ID.String(),
		CreatedAt: s.CreatedAt,
		Active:    !s.Stopped(),
	})
}

// DestroySession stops and removes a session.
func (h *Handlers) DestroySession(c *gin.Context) {
	if err := h.registry.Destroy(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "stopped"})
}

type attachRequest struct {
	PID uint32 `json:"pid" binding:"required"`
}

// Attach enqueues an attach command.
func (h *Handlers) Attach(c *gin.Context) {
	var req attachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.enqueue(c, session.Attach{PID: req.PID})
}

// Detach enqueues a detach command.
func (h *Handlers) Detach(c *gin.Context) {
	h.enqueue(c, session.Detach{})
}

type inputRequest struct {
	Text string `json:"text" binding:"required"`
}

// SendInput enqueues a text injection command.
func (h *Handlers) SendInput(c *gin.Context) {
	var req inputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.enqueue(c, session.SendText{Text: req.Text})
}

type controlRequest struct {
	Code uint16 `json:"code" binding:"required"`
}

// SendControl enqueues a control key command.
func (h *Handlers) SendControl(c *gin.Context) {
	var req controlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.enqueue(c, session.SendControl{Code: req.Code})
}

type cadenceRequest struct {
	IntervalMS int `json:"interval_ms"`
	LineCount  int `json:"line_count"`
}

// SetCadence enqueues poll cadence updates.
func (h *Handlers) SetCadence(c *gin.Context) {
	var req cadenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if req.IntervalMS > 0 {
		if err := s.Send(session.SetPollInterval{Interval: time.Duration(req.IntervalMS) * time.Millisecond}); err != nil {
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
			return
		}
	}
	if req.LineCount > 0 {
		if err := s.Send(session.SetLineCount{Count: req.LineCount}); err != nil {
			c.JSON(http.StatusGone, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

// Events drains all pending session events without blocking.
func (h *Handlers) Events(c *gin.Context) {
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	events := []session.Envelope{}
	for {
		ev, ok := s.TryRecvEvent()
		if !ok {
			break
		}
		events = append(events, session.Envelop(ev))
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// enqueue looks up the session from the route and sends one command.
func (h *Handlers) enqueue(c *gin.Context, cmd session.Command) {
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err := s.Send(cmd); err != nil {
		c.JSON(http.StatusGone, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}
