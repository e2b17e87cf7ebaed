package schedule

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	// ErrPartition marks a trial count that does not divide evenly into runs.
	ErrPartition = errors.New("uneven trial partition")
	// ErrEmptyTable marks a stimulus table with no rows.
	ErrEmptyTable = errors.New("empty stimulus table")
)

// PartitionError carries the offending counts so the operator can correct
// the stimulus list or run count.
type PartitionError struct {
	Trials int // expanded trial count
	Runs   int // configured run count
}

func (e *PartitionError) Error() string {
	return fmt.Sprintf("%v: %d trials cannot be split into %d equal runs",
		ErrPartition, e.Trials, e.Runs)
}

func (e *PartitionError) Unwrap() error { return ErrPartition }
