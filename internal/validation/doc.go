// Package validation checks a data directory against the source catalog
// before a run.
package validation
