// Package logsink appends one record per observed input event to the
// session's event log.
//
// The record layout is fixed at seven tab-separated columns:
//
//	kind  subkind  timestamp  -  elapsedSeconds  -  keyIdentifier
//
// The two dash columns are reserved; downstream analysis scripts index
// columns by position, so they are always written.
package logsink

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/TimManiquet/fmritask/pkg/metrics"
)

// File permission constants.
const (
	logFilePermission = 0o600
)

const placeholder = "-"

// FileSink is the append-only event-log writer.
type FileSink struct {
	w      *bufio.Writer
	closer io.Closer
}

// New opens (or creates) the log file at path in append mode.
func New(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenSink, path, err)
	}
	return &FileSink{w: bufio.NewWriter(f), closer: f}, nil
}

// NewWriter wraps an existing writer, e.g. a buffer in tests.
func NewWriter(w io.Writer) *FileSink {
	return &FileSink{w: bufio.NewWriter(w)}
}

// Log appends one record. Records are flushed immediately: a crashed
// session must not lose the presses that were already observed.
func (s *FileSink) Log(kind, subkind string, at time.Time, elapsed float64, key string) error {
	_, err := fmt.Fprintf(s.w, "%s\t%s\t%s\t%s\t%.4f\t%s\t%s\n",
		kind, subkind, at.Format(time.RFC3339Nano), placeholder, elapsed, placeholder, key)
	if err == nil {
		err = s.w.Flush()
	}
	if err != nil {
		metrics.RecordSinkError()
		return fmt.Errorf("append event record: %w", err)
	}
	metrics.RecordSinkWrite()
	return nil
}

// Close flushes and releases the underlying file, if any.
func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("flush event log: %w", err)
	}
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
