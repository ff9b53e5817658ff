// Package server hosts kinetic applications over WebSocket.
//
// Every connection gets its own session: an event loop, a reactive runtime,
// a wire host and a renderer with the root component mounted into the wire
// host's root. The session goroutines are:
//
//   - the loop goroutine, which runs every turn (mount, client events) and
//     hands the patches frames produced by each turn to the writer
//   - the writer, which sends frames and heartbeat pings
//   - the reader (the HTTP handler goroutine), which decodes client frames
//     and submits events to the loop
//
// Routes:
//
//	GET /ws       WebSocket session
//	GET /metrics  Prometheus metrics (when a gatherer is configured)
//	GET /healthz  liveness probe
package server
