package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session metrics
	SessionsActive prometheus.Gauge
	SessionsTotal  prometheus.Counter

	// Console metrics
	AttachesTotal      *prometheus.CounterVec
	PollsTotal         *prometheus.CounterVec
	OutputUpdatesTotal prometheus.Counter
	EventsDropped      prometheus.Counter

	// WebSocket metrics
	WSConnections prometheus.Gauge

	startTime time.Time
}

// NewMetrics creates a metrics collector registered on reg. A nil
// registerer uses the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conscope_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "conscope_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SessionsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "conscope_sessions_active",
				Help: "Number of live console sessions",
			},
		),
		SessionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conscope_sessions_total",
				Help: "Total number of console sessions created",
			},
		),

		AttachesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conscope_attaches_total",
				Help: "Total number of console attach attempts",
			},
			[]string{"result"},
		),
		PollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "conscope_polls_total",
				Help: "Total number of console screen polls",
			},
			[]string{"result"},
		),
		OutputUpdatesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conscope_output_updates_total",
				Help: "Total number of emitted output change events",
			},
		),
		EventsDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "conscope_events_dropped_total",
				Help: "Events dropped because a session backlog overflowed",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "conscope_ws_connections",
				Help: "Number of active WebSocket event streams",
			},
		),
	}
}

// Uptime returns time elapsed since metrics creation.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}
