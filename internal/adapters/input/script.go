package input

import (
	"context"

	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
)

// ScriptBackend replays a prepared press sequence against the session
// clock. It exists for rehearsal runs and for exercising the state machine
// without hardware; it satisfies the same contract as the real backends.
type ScriptBackend struct {
	clock   session.Clock
	pending []eventlog.KeyEvent
}

// NewScript creates a backend that releases each scripted press once the
// clock reaches its timestamp.
func NewScript(clock session.Clock, presses []eventlog.KeyEvent) *ScriptBackend {
	// events are released in slice order, so keep a copy
	pending := make([]eventlog.KeyEvent, len(presses))
	copy(pending, presses)
	return &ScriptBackend{clock: clock, pending: pending}
}

// Poll releases every scripted press whose timestamp has passed.
func (s *ScriptBackend) Poll(_ context.Context) ([]eventlog.KeyEvent, error) {
	now := s.clock.Now()
	var out []eventlog.KeyEvent
	for len(s.pending) > 0 && !s.pending[0].Time.After(now) {
		out = append(out, s.pending[0])
		s.pending = s.pending[1:]
	}
	return out, nil
}

// Flush discards presses that are already due.
func (s *ScriptBackend) Flush(ctx context.Context) error {
	_, err := s.Poll(ctx)
	return err
}

// Remaining reports how many scripted presses have not been released yet.
func (s *ScriptBackend) Remaining() int { return len(s.pending) }

// compile-time check: ScriptBackend satisfies the state machine contract.
var _ eventlog.Backend = (*ScriptBackend)(nil)
