// Package http exposes the processed series of the latest pipeline run to
// the dashboard. Handlers are thin: they read URL parameters, call the
// report service and render JSON; every error goes through the RFC 7807
// problem-details handler.
package http
