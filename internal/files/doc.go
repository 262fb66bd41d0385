// Package files provides file system discovery and management for the
// pipeline.
//
// Discovery finds source files: per-year survey exports matched by a glob
// inside a directory, and the tabular files of a data directory. Results are
// always sorted by file name so extraction order is deterministic.
//
// Manager owns one output directory. Its WriteFile replaces files atomically,
// which the run manifest relies on while the HTTP server may be reading it.
//
// Example usage:
//
//	discovery := files.NewDiscovery("/data/summit")
//	census, err := discovery.FindFilesByPattern("S2301Employment Status", "*Data.csv")
//
//	manager := files.NewManager("processed_data")
//	err = manager.WriteFile("run_manifest.json", data)
package files
