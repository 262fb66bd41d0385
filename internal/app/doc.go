// Package app wires configuration, telemetry, the source catalog and the
// pipeline into a Runtime shared by both binaries, and builds the HTTP
// Application served by mc3server.
//
// Middleware order follows RequestID → RealIP → OTel → Logger → Recoverer
// → Timeout, so every log line and problem response carries the request ID.
package app
