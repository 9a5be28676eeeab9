// Package monitoring provides Prometheus metrics for the service.
//
// Metrics cover the HTTP surface (request counts and latencies), the
// session core (live sessions, attach outcomes, poll outcomes, emitted
// output updates, dropped events), and WebSocket streams.
//
// Exposed at GET /metrics in Prometheus text format.
package monitoring
