// Package input provides the interchangeable keyboard backends polled by
// the event-logging state machine: an identified device stream, the
// default terminal, and a scripted replay source for tests and rehearsal.
package input

import (
	"context"
	"io"
	"sync"

	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
)

const eventBufferSize = 256

// KeyNamer translates a raw input byte into a key identity, or "" to
// ignore the byte.
type KeyNamer func(b byte) string

// DefaultKeyNamer maps the bytes a lab keyboard produces onto the key
// identities used in configuration files.
func DefaultKeyNamer(b byte) string {
	switch b {
	case 0x1b:
		return "escape"
	case '\r', '\n':
		return "return"
	case ' ':
		return "space"
	case '\t':
		return "tab"
	}
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	if b >= '!' && b <= '~' {
		return string(rune(b))
	}
	return ""
}

// streamBackend pumps a byte stream into a buffered event channel from a
// reader goroutine; Poll and Flush drain the channel without blocking, so
// the state machine's tick stays in control of latency.
type streamBackend struct {
	events chan eventlog.KeyEvent
	clock  session.Clock
	name   KeyNamer

	mu      sync.Mutex
	closed  bool
	readErr error
}

func newStreamBackend(r io.Reader, clock session.Clock, name KeyNamer) *streamBackend {
	b := &streamBackend{
		events: make(chan eventlog.KeyEvent, eventBufferSize),
		clock:  clock,
		name:   name,
	}
	go b.pump(r)
	return b
}

// pump reads single bytes until EOF or error, stamping each press as it
// arrives. Press timestamps therefore reflect read time, the closest
// observable instant to the physical press.
func (b *streamBackend) pump(r io.Reader) {
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if key := b.name(buf[0]); key != "" {
				ev := eventlog.KeyEvent{Key: key, Time: b.clock.Now()}
				select {
				case b.events <- ev:
				default:
					// Buffer full: drop rather than block the reader.
				}
			}
		}
		if err != nil {
			b.mu.Lock()
			if err != io.EOF {
				b.readErr = err
			}
			b.closed = true
			b.mu.Unlock()
			close(b.events)
			return
		}
	}
}

// Poll returns every press buffered since the previous call.
func (b *streamBackend) Poll(_ context.Context) ([]eventlog.KeyEvent, error) {
	b.mu.Lock()
	readErr := b.readErr
	b.mu.Unlock()
	if readErr != nil {
		return nil, readErr
	}

	var out []eventlog.KeyEvent
	for {
		select {
		case ev, ok := <-b.events:
			if !ok {
				return out, nil
			}
			out = append(out, ev)
		default:
			return out, nil
		}
	}
}

// Flush discards everything currently buffered.
func (b *streamBackend) Flush(ctx context.Context) error {
	_, err := b.Poll(ctx)
	return err
}
