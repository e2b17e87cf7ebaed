// Package schedule expands a stimulus table into the full per-run trial
// schedule: replication, partitioning into runs, optional randomization,
// ideal onset times and deterministic button assignment.
package schedule

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/TimManiquet/fmritask/internal/config"
	"github.com/TimManiquet/fmritask/internal/domain/buttons"
	"github.com/TimManiquet/fmritask/internal/domain/model"
)

// Randomization modes accepted in the configuration.
const (
	RandomizeNone = ""
	RandomizeRun  = "run"
	RandomizeAll  = "all"
)

// Builder constructs trial schedules. The zero value is not usable; use
// NewBuilder.
type Builder struct {
	rng *rand.Rand
}

// NewBuilder creates a Builder with configuration options. Without a seed
// option the shuffle order differs between processes.
func NewBuilder(opts ...Option) *Builder {
	b := &Builder{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // shuffle order, not cryptography
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Build expands the stimulus table into the complete ordered schedule for
// one participant. It fails before producing any trial: a missing required
// configuration key surfaces the config error, an expanded count that does
// not divide evenly into runs surfaces a *PartitionError with both counts.
func (b *Builder) Build(ctx context.Context, cfg *config.Config, table model.StimulusTable, subjectID string) (model.TrialSchedule, error) {
	if err := cfg.Validate(); err != nil {
		return model.TrialSchedule{}, fmt.Errorf("build schedule: %w", err)
	}
	if table.Len() == 0 {
		return model.TrialSchedule{}, fmt.Errorf("build schedule: %w", ErrEmptyTable)
	}
	if err := ctx.Err(); err != nil {
		return model.TrialSchedule{}, fmt.Errorf("build schedule: %w", err)
	}

	// Replicate the table, preserving row order within each replica.
	rows := make([]model.StimulusRow, 0, table.Len()*cfg.NumRepetitions)
	for rep := 0; rep < cfg.NumRepetitions; rep++ {
		for _, r := range table.Rows {
			rows = append(rows, r.Clone())
		}
	}

	if len(rows)%cfg.NumRuns != 0 {
		return model.TrialSchedule{}, &PartitionError{Trials: len(rows), Runs: cfg.NumRuns}
	}
	trialsPerRun := len(rows) / cfg.NumRuns

	switch cfg.StimRandomization {
	case RandomizeAll:
		b.rng.Shuffle(len(rows), func(i, j int) {
			rows[i], rows[j] = rows[j], rows[i]
		})
	case RandomizeRun:
		// Intra-block permutation only: no row crosses a run boundary.
		for start := 0; start < len(rows); start += trialsPerRun {
			block := rows[start : start+trialsPerRun]
			b.rng.Shuffle(len(block), func(i, j int) {
				block[i], block[j] = block[j], block[i]
			})
		}
	case RandomizeNone:
		// identity order
	}

	// The onset pattern is run-relative and identical for every run.
	onsets := idealOnsets(cfg.PrePost, cfg.TrialDur(), trialsPerRun)

	trials := make([]model.Trial, len(rows))
	withinRun := make(map[int]int, cfg.NumRuns)
	for i, row := range rows {
		run := row.Run
		if !table.HasRun {
			run = i/trialsPerRun + 1
		}

		pos := withinRun[run]
		withinRun[run] = pos + 1

		trials[i] = model.Trial{
			TrialNumber: i + 1,
			Run:         run,
			SubjectID:   subjectID,
			Stimulus:    row.Stimulus,
			Extra:       row.Extra,
			Mapping:     buttons.MapFor(cfg, subjectID, run),
			IdealOnset:  onsets[pos%trialsPerRun],
		}
	}

	return model.TrialSchedule{SubjectID: subjectID, Trials: trials}, nil
}

// idealOnsets returns the strictly increasing arithmetic onset sequence for
// a single run: first term prePost, common difference trialDur.
func idealOnsets(prePost, trialDur float64, n int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = prePost + float64(i)*trialDur
	}
	return out
}
