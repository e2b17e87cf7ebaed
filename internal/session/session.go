// Package session holds the shared timing state of one task session: the
// session-start instant every logged timestamp is measured against, the
// clock capability, and the abort flag.
//
// The session is owned by a single run at a time; the design is
// single-threaded and the struct carries no locking.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Clock abstracts the wall clock so elapsed-time logging is reproducible
// in tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// NewClock returns the wall clock.
func NewClock() Clock { return realClock{} }

// Session is the per-participant session state.
type Session struct {
	ID        string
	SubjectID string

	clock   Clock
	start   time.Time
	aborted bool
}

// Option applies a configuration option to the Session.
type Option func(*Session)

// WithClock injects a clock, typically a fake one in tests.
func WithClock(c Clock) Option {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// New starts a session for the subject. The start instant is taken from
// the clock at construction and never changes afterwards.
func New(subjectID string, opts ...Option) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		clock:     NewClock(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.start = s.clock.Now()
	return s
}

// Clock returns the session's clock capability.
func (s *Session) Clock() Clock { return s.clock }

// Start returns the session-start instant.
func (s *Session) Start() time.Time { return s.start }

// Elapsed returns seconds since session start.
func (s *Session) Elapsed() float64 {
	return s.ElapsedAt(s.clock.Now())
}

// ElapsedAt returns seconds between session start and t.
func (s *Session) ElapsedAt(t time.Time) float64 {
	return t.Sub(s.start).Seconds()
}

// MarkAborted records that the participant aborted the session. Set before
// the abort error propagates so the state survives the unwind.
func (s *Session) MarkAborted() { s.aborted = true }

// Aborted reports whether an abort was recorded.
func (s *Session) Aborted() bool { return s.aborted }
