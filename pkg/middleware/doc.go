// Package middleware provides net/http middleware for formstore servers.
//
// This package includes:
//   - OpenTelemetry request tracing
//   - Prometheus request metrics
//   - Structured request logging with log/slog
//
// All middleware have the func(http.Handler) http.Handler shape and plug
// into a chi router:
//
//	r := chi.NewRouter()
//	r.Use(chimw.RequestID)
//	r.Use(middleware.Logger(logger))
//	r.Use(middleware.OpenTelemetry())
//	r.Use(middleware.Prometheus())
//
// # OpenTelemetry Middleware
//
// A server span is opened for every request and stored in the request
// context. Configure with options:
//
//	middleware.OpenTelemetry(
//	    middleware.WithTracerName("uploads"),
//	    middleware.WithRequestFilter(func(r *http.Request) bool {
//	        return r.URL.Path != "/healthz"
//	    }),
//	)
//
// # Prometheus Metrics
//
// The Prometheus middleware collects:
//   - formstore_http_requests_total
//   - formstore_http_request_duration_seconds
//   - formstore_http_request_body_bytes
//   - formstore_http_in_flight_requests
//
// Expose them with promhttp:
//
//	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
package middleware
