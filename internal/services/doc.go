// Package services sits between the HTTP handlers and the pipeline. The
// report service keeps the result of the latest run in memory and serves
// themes, indicators and the run manifest from it.
package services
