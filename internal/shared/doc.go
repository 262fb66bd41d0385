// Package shared holds helpers used across packages. Its testutil
// subpackage captures slog output so tests can assert on what the pipeline
// logged.
package shared
