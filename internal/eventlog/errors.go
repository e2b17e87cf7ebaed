package eventlog

import (
	"errors"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrAbortedByUser marks an escape-key abort. Fatal to the current
	// run; never retried.
	ErrAbortedByUser = errors.New("aborted by user")
	// ErrBackendRead wraps input backend poll failures.
	ErrBackendRead = errors.New("input backend read failed")
)
