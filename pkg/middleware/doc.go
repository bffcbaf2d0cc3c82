// Package middleware provides HTTP middleware for the render server:
// Prometheus metrics and OpenTelemetry tracing.
//
// Both are standard func(http.Handler) http.Handler wrappers and mount
// on the chi router ahead of the page handler, so every admitted and
// rejected request is observed.
package middleware
