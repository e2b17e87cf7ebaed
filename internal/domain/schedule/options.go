package schedule

import (
	"math/rand"
)

// Option applies a configuration option to the Builder.
type Option func(*Builder)

// WithSeed fixes the shuffle seed for reproducible schedules.
func WithSeed(seed int64) Option {
	return func(b *Builder) {
		b.rng = rand.New(rand.NewSource(seed)) //nolint:gosec // deterministic seed for reproducible schedules
	}
}

// WithRand supplies a pre-built random source.
func WithRand(rng *rand.Rand) Option {
	return func(b *Builder) {
		if rng != nil {
			b.rng = rng
		}
	}
}
