// Package storage persists the per-participant trial schedule.
//
// A schedule is created once, on the participant's first run, and read
// back unchanged on every later run; only the response fields of single
// trials are ever updated afterwards.
package storage

import (
	"context"

	"github.com/TimManiquet/fmritask/internal/domain/model"
)

// Store provides read/write access to persisted schedules.
type Store interface {
	// Exists reports whether a schedule was already created for the subject.
	Exists(ctx context.Context, subjectID string) (bool, error)

	// Save persists a newly built schedule. Returns ErrAlreadyExists when
	// the subject already has one; an existing schedule is never replaced.
	Save(ctx context.Context, sched model.TrialSchedule) error

	// Load reads the subject's schedule back in trial order.
	// Returns ErrNotFound when no schedule was created yet.
	Load(ctx context.Context, subjectID string) (model.TrialSchedule, error)

	// RecordResponse writes the observed key and onset onto exactly the
	// trial identified by trialNumber. Other trials are never touched.
	RecordResponse(ctx context.Context, subjectID string, trialNumber int, key string, onset float64) error
}
