// Package storage keeps an optional SQLite copy of the extracted indicator
// and theme series, plus a log of pipeline runs, using the pure-Go
// modernc.org/sqlite driver.
package storage
