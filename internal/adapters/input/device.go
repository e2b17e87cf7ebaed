package input

import (
	"fmt"
	"os"

	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
)

// DeviceBackend reads key presses from an identified input device, e.g. a
// scanner button box exposed as a character device or FIFO.
type DeviceBackend struct {
	*streamBackend
	file *os.File
	path string
}

// Option applies a configuration option to a backend.
type Option func(*options)

type options struct {
	name KeyNamer
}

// WithKeyNamer overrides the byte-to-key translation.
func WithKeyNamer(n KeyNamer) Option {
	return func(o *options) {
		if n != nil {
			o.name = n
		}
	}
}

// OpenDevice opens the device at path and starts reading from it.
func OpenDevice(path string, clock session.Clock, opts ...Option) (*DeviceBackend, error) {
	o := &options{name: DefaultKeyNamer}
	for _, opt := range opts {
		opt(o)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrOpenDevice, path, err)
	}

	return &DeviceBackend{
		streamBackend: newStreamBackend(f, clock, o.name),
		file:          f,
		path:          path,
	}, nil
}

// Path returns the device path this backend reads from.
func (d *DeviceBackend) Path() string { return d.path }

// Close stops the reader and releases the device.
func (d *DeviceBackend) Close() error {
	return d.file.Close()
}

// compile-time check: DeviceBackend satisfies the state machine contract.
var _ eventlog.Backend = (*DeviceBackend)(nil)
