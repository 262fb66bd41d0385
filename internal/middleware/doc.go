// Package middleware holds the chi middleware of mc3server: request IDs,
// structured request logging, timeouts, CORS for the dashboard, security
// headers and OpenTelemetry instrumentation.
package middleware
