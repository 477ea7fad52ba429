// Package api exposes the benchmark engine over HTTP and WebSocket.
//
// Routes:
//
//	GET  /api/status   current or last run
//	GET  /api/presets  available presets with descriptions
//	POST /api/plan     dry-run allocation for a run config (JSON body)
//	POST /api/run      start a run in the background
//	GET  /api/result   result of the last successful run
//	GET  /metrics      Prometheus metrics
//	GET  /ws           allocation events and run completion messages
//
// Request bodies use the same shape as the "bench" section of a run file
// (see package config). An empty body plans or runs the default config.
package api
