package eventlog

import (
	"time"

	"github.com/TimManiquet/fmritask/pkg/logger"
)

// Option applies a configuration option to the Logger.
type Option func(*Logger)

// WithPollInterval overrides the polling tick.
func WithPollInterval(d time.Duration) Option {
	return func(l *Logger) {
		if d > 0 {
			l.pollInterval = d
		}
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(log logger.Logger) Option {
	return func(l *Logger) {
		if log != nil {
			l.log = log
		}
	}
}
