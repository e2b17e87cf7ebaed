// Package config defines experiment configuration structures and loading hooks.
//
// Conventions:
// - Provide New initializer to build a Config with defaults.
// - Load layers defaults, an optional YAML file, and environment variables.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"context"
	"fmt"
)

// Config contains the validated experiment parameters. Durations are in
// seconds, matching the stimulus-onset units used throughout.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// StimListFile points at the delimited stimulus table.
	StimListFile string `koanf:"stim_list_file"`

	// NumRepetitions replicates the stimulus table this many times.
	NumRepetitions int `koanf:"num_repetitions"`

	// NumRuns partitions the expanded trial list into equal runs.
	NumRuns int `koanf:"num_runs"`

	// PrePost is the padding before the first and after the last trial
	// of every run, in seconds.
	PrePost float64 `koanf:"pre_post"`

	// StimDur and FixDur compose the trial duration.
	StimDur float64 `koanf:"stim_dur"`
	FixDur  float64 `koanf:"fix_dur"`

	// StimRandomization selects the shuffle mode: "", "run" or "all".
	StimRandomization string `koanf:"stim_randomization"`

	// Key identities as reported by the input backend.
	TriggerKey   string   `koanf:"trigger_key"`
	EscapeKey    string   `koanf:"escape_key"`
	ResponseKeys []string `koanf:"response_keys"`

	// Instructions shown for the two logical responses, in the same
	// order as ResponseKeys before counterbalancing.
	ResponseInstructions []string `koanf:"response_instructions"`

	// PollIntervalMS is the input polling tick in milliseconds.
	PollIntervalMS int `koanf:"poll_interval_ms"`

	// DataDir receives schedule databases and event logs.
	DataDir string `koanf:"data_dir"`
}

// New creates a Config with defaults. Context is accepted first to satisfy
// the project-wide convention; it is reserved for future use.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:             "info",
		NumRepetitions:       1,
		NumRuns:              1,
		PrePost:              10,
		StimDur:              1.5,
		FixDur:               0.5,
		TriggerKey:           "t",
		EscapeKey:            "escape",
		ResponseKeys:         []string{"f", "j"},
		ResponseInstructions: []string{"yes", "no"},
		PollIntervalMS:       5,
		DataDir:              "data",
	}
}

// TrialDur is the derived per-trial duration: stimulus plus fixation.
func (c *Config) TrialDur() float64 {
	return c.StimDur + c.FixDur
}

// Validate enforces the required-key invariant: every parameter the
// scheduler depends on must be present, or construction fails before any
// trial is built.
func (c *Config) Validate() error {
	if c.StimListFile == "" {
		return fmt.Errorf("%w: stim_list_file", ErrMissingKey)
	}
	if c.NumRepetitions <= 0 {
		return fmt.Errorf("%w: num_repetitions", ErrMissingKey)
	}
	if c.NumRuns <= 0 {
		return fmt.Errorf("%w: num_runs", ErrMissingKey)
	}
	if c.PrePost < 0 {
		return fmt.Errorf("%w: pre_post must be non-negative", ErrInvalidConfig)
	}
	if c.TrialDur() <= 0 {
		return fmt.Errorf("%w: stim_dur + fix_dur must be positive", ErrInvalidConfig)
	}
	switch c.StimRandomization {
	case "", "run", "all":
	default:
		return fmt.Errorf("%w: stim_randomization must be empty, %q or %q, got %q",
			ErrInvalidConfig, "run", "all", c.StimRandomization)
	}
	if c.TriggerKey == "" {
		return fmt.Errorf("%w: trigger_key", ErrMissingKey)
	}
	if c.EscapeKey == "" {
		return fmt.Errorf("%w: escape_key", ErrMissingKey)
	}
	if len(c.ResponseKeys) != 2 {
		return fmt.Errorf("%w: exactly two response_keys required, got %d",
			ErrInvalidConfig, len(c.ResponseKeys))
	}
	if len(c.ResponseInstructions) != 2 {
		return fmt.Errorf("%w: exactly two response_instructions required, got %d",
			ErrInvalidConfig, len(c.ResponseInstructions))
	}
	return nil
}
