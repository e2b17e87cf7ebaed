package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // pure-Go sqlite driver

	"github.com/TimManiquet/fmritask/internal/domain/model"
)

// SQLiteStore implements Store on a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenStore, path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenStore, path, err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Exists reports whether the subject already has a schedule.
func (s *SQLiteStore) Exists(ctx context.Context, subjectID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trials WHERE subject_id = ?;`, subjectID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("exists: %w", err)
	}
	return n > 0, nil
}

// Save persists a freshly built schedule atomically. An existing schedule
// is never replaced: later runs must see exactly the trials of the first.
func (s *SQLiteStore) Save(ctx context.Context, sched model.TrialSchedule) error {
	exists, err := s.Exists(ctx, sched.SubjectID)
	if err != nil {
		return fmt.Errorf("save: %w", err)
	}
	if exists {
		return fmt.Errorf("save: subject %s: %w", sched.SubjectID, ErrAlreadyExists)
	}

	transaction, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save: begin transaction: %w", err)
	}
	defer func() {
		_ = transaction.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	stmt, err := transaction.PrepareContext(ctx, `
		INSERT INTO trials (subject_id, trial_number, run, stimulus, extra,
			map_id, yes_key, no_key, yes_instr, no_instr, ideal_onset, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`)
	if err != nil {
		return fmt.Errorf("save: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, trial := range sched.Trials {
		var extra any
		if len(trial.Extra) > 0 {
			encoded, merr := json.Marshal(trial.Extra)
			if merr != nil {
				return fmt.Errorf("save: encode extra for trial %d: %w", trial.TrialNumber, merr)
			}
			extra = string(encoded)
		}

		_, err = stmt.ExecContext(ctx,
			sched.SubjectID, trial.TrialNumber, trial.Run, trial.Stimulus, extra,
			trial.Mapping.MapID, trial.Mapping.YesKey, trial.Mapping.NoKey,
			trial.Mapping.YesInstr, trial.Mapping.NoInstr, trial.IdealOnset, now)
		if err != nil {
			return fmt.Errorf("save: insert trial %d: %w", trial.TrialNumber, err)
		}
	}

	if err := transaction.Commit(); err != nil {
		return fmt.Errorf("save: commit transaction: %w", err)
	}
	return nil
}

// Load reads the subject's schedule back in trial order.
func (s *SQLiteStore) Load(ctx context.Context, subjectID string) (model.TrialSchedule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT trial_number, run, stimulus, extra,
			map_id, yes_key, no_key, yes_instr, no_instr,
			ideal_onset, response_key, response_onset
		FROM trials WHERE subject_id = ? ORDER BY trial_number;
	`, subjectID)
	if err != nil {
		return model.TrialSchedule{}, fmt.Errorf("load: query: %w", err)
	}
	defer rows.Close()

	sched := model.TrialSchedule{SubjectID: subjectID}
	for rows.Next() {
		var trial model.Trial
		var extra sql.NullString
		var respKey sql.NullString
		var respOnset sql.NullFloat64

		err = rows.Scan(&trial.TrialNumber, &trial.Run, &trial.Stimulus, &extra,
			&trial.Mapping.MapID, &trial.Mapping.YesKey, &trial.Mapping.NoKey,
			&trial.Mapping.YesInstr, &trial.Mapping.NoInstr,
			&trial.IdealOnset, &respKey, &respOnset)
		if err != nil {
			return model.TrialSchedule{}, fmt.Errorf("load: scan: %w", err)
		}

		trial.SubjectID = subjectID
		if extra.Valid && extra.String != "" {
			if uerr := json.Unmarshal([]byte(extra.String), &trial.Extra); uerr != nil {
				return model.TrialSchedule{}, fmt.Errorf("load: decode extra for trial %d: %w", trial.TrialNumber, uerr)
			}
		}
		if respKey.Valid {
			trial.ResponseKey = respKey.String
			trial.ResponseOnset = respOnset.Float64
			trial.Responded = true
		}

		sched.Trials = append(sched.Trials, trial)
	}
	if err := rows.Err(); err != nil {
		return model.TrialSchedule{}, fmt.Errorf("load: iterate: %w", err)
	}
	if len(sched.Trials) == 0 {
		return model.TrialSchedule{}, fmt.Errorf("load: subject %s: %w", subjectID, ErrNotFound)
	}
	return sched, nil
}

// RecordResponse updates exactly one trial's response fields, confining
// the mutation to the trial identified by the current trial number.
func (s *SQLiteStore) RecordResponse(ctx context.Context, subjectID string, trialNumber int, key string, onset float64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE trials SET response_key = ?, response_onset = ?
		WHERE subject_id = ? AND trial_number = ?;
	`, key, onset, subjectID, trialNumber)
	if err != nil {
		return fmt.Errorf("record response: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("record response: rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("record response: subject %s trial %d: %w", subjectID, trialNumber, ErrNotFound)
	}
	return nil
}

// compile-time check: SQLiteStore satisfies the Store contract.
var _ Store = (*SQLiteStore)(nil)
