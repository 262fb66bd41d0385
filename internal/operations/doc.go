// Package operations runs the data pipeline: extract every configured
// indicator, assemble the themes, then write the outputs. Each run is
// described by a RunManifest saved next to the CSV files.
//
// Extraction never fails a run; a source that cannot be read shows up in the
// manifest with status "unavailable". Only the write stage (and cancellation
// of the context) can abort a run.
package operations
