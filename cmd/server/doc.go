// Package main is the entry point for the conscope server.
//
// The server lets an operator observe and drive the text console of
// another process on the same machine: enumerate candidate processes,
// attach a session to one, stream its screen changes, and inject
// keystrokes or control keys.
//
// The server provides:
//   - REST API for process listing and session control
//   - WebSocket streaming of session events
//   - Prometheus metrics
//   - Rate limiting and CORS
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	./server -port 8090
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown (all sessions detached first)
package main
