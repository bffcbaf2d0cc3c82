// Package web is the HTTP boundary of the render engine. It mounts the
// page handler on a chi router together with the health endpoint,
// Prometheus metrics, static file serving, the live-update WebSocket
// and the development reload channel, and maps pipeline errors to HTTP
// responses.
package web
