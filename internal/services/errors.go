package services

import "errors"

var (
	// ErrNoRun is returned before the first successful run
	ErrNoRun = errors.New("no completed run")
	// ErrRunInProgress is returned when a run is requested while one is active
	ErrRunInProgress = errors.New("run already in progress")
)
