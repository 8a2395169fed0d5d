// Package server exposes the ingest pipeline over HTTP.
//
// Routes:
//
//	POST /upload   multipart/form-data body, answered with the request outcome as JSON
//	GET  /healthz  liveness probe
//	GET  /metrics  Prometheus metrics
//
// The response status summarizes the outcome: 201 when every file part was
// stored, otherwise the first failed part decides (415 for a disallowed
// content type, 413 for an oversized part, 500 for a storage failure, 400 for
// anything else). The JSON body always carries every part's outcome so
// clients can tell which files were kept.
//
// # Graceful Shutdown
//
// Run listens until SIGINT, SIGTERM or cancellation of its context, then
// drains in-flight requests for up to Config.ShutdownTimeout.
package server
