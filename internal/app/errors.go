package service

import "errors"

var (
	// ErrNoSuchRun is returned when a requested run number has no trials
	// in the subject's schedule.
	ErrNoSuchRun = errors.New("no trials scheduled for run")

	// ErrReadStimuli is returned when the stimulus list cannot be read.
	ErrReadStimuli = errors.New("failed to read stimulus list")
)
