package input

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
)

// TerminalBackend reads the default device: the controlling terminal,
// switched into raw mode so single key presses arrive without a newline.
type TerminalBackend struct {
	*streamBackend
	fd    int
	state *term.State
}

// OpenTerminal puts stdin into raw mode and starts reading key presses.
// Close must run on every exit path, including the abort path, so the
// terminal is restored.
func OpenTerminal(clock session.Clock, opts ...Option) (*TerminalBackend, error) {
	o := &options{name: DefaultKeyNamer}
	for _, opt := range opts {
		opt(o)
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTerminal
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: raw mode: %w", ErrOpenDevice, err)
	}

	return &TerminalBackend{
		streamBackend: newStreamBackend(os.Stdin, clock, o.name),
		fd:            fd,
		state:         state,
	}, nil
}

// Close restores the terminal state.
func (t *TerminalBackend) Close() error {
	return term.Restore(t.fd, t.state)
}

// compile-time check: TerminalBackend satisfies the state machine contract.
var _ eventlog.Backend = (*TerminalBackend)(nil)
