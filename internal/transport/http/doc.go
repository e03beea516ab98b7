// Package http holds the HTTP transport layer: chi route trees, request
// parsing, and response rendering for the dashboard API. Handlers depend on
// narrow service interfaces so tests can substitute fakes, and delegate all
// error rendering to the central RFC 7807 handler.
package http
