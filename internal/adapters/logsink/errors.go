package logsink

import (
	"errors"
)

// Sentinel kinds for log sink errors.
var (
	ErrOpenSink = errors.New("open event log failed")
)
