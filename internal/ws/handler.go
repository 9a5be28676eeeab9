// Package ws streams session events over WebSocket.
//
// One connection follows one session: frames are the JSON envelopes of
// session events, pushed as the worker emits them. The socket never
// issues console commands; the REST surface owns that direction.
package ws

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/GriffinCanCode/conscope/internal/logging"
	"github.com/GriffinCanCode/conscope/internal/monitoring"
	"github.com/GriffinCanCode/conscope/internal/session"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in dev
	},
}

const (
	writeTimeout = 10 * time.Second
	pingPeriod   = 30 * time.Second
)

// Handler manages WebSocket event streams.
type Handler struct {
	registry *session.Registry
	log      *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a WebSocket handler.
func NewHandler(registry *session.Registry, log *logging.Logger, metrics *monitoring.Metrics) *Handler {
	return &Handler{
		registry: registry,
		log:      log,
		metrics:  metrics,
	}
}

// Stream upgrades the connection and forwards the session's events until
// the session stops or the client goes away.
func (h *Handler) Stream(c *gin.Context) {
	s, ok := h.registry.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	connID := uuid.NewString()
	h.log.Debug("event stream opened",
		zap.String("conn", connID),
		zap.String("session", s.ID.String()))
	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}

	// Reader goroutine: discard client frames, detect disconnect.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ctx := c.Request.Context()
	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	for {
		select {
		case <-clientGone:
			return
		case <-ctx.Done():
			return
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		default:
		}

		// Bounded wait so the loop can service pings and notice dead
		// clients between events.
		recvCtx, cancel := context.WithTimeout(ctx, time.Second)
		ev, err := s.RecvEvent(recvCtx)
		cancel()
		if errors.Is(err, session.ErrQueueClosed) {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session stopped"),
				time.Now().Add(writeTimeout))
			return
		}
		if err != nil {
			continue // deadline; loop back to liveness checks
		}

		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteJSON(session.Envelop(ev)); err != nil {
			h.log.Debug("event stream write failed",
				zap.String("conn", connID),
				zap.Error(err))
			return
		}
	}
}
