// Package eventlog implements the blocking input-logging loop that waits
// for scanner triggers and participant key presses.
//
// One state machine serves every wait point in a run: trigger waits,
// response windows and free polling all parameterize the same loop with
// break flags and an exit predicate. The input source and the clock are
// injected capabilities, so the machine runs identically against a real
// device and a scripted test stream.
package eventlog

import (
	"context"
	"fmt"
	"time"

	"github.com/TimManiquet/fmritask/internal/config"
	"github.com/TimManiquet/fmritask/internal/session"
	"github.com/TimManiquet/fmritask/pkg/logger"
	"github.com/TimManiquet/fmritask/pkg/metrics"
)

// Record kinds and subkinds written to the sink.
const (
	KindPulse = "PULSE"
	KindResp  = "RESP"

	SubTrigger  = "Trigger"
	SubEscape   = "Escape"
	SubKeyPress = "KeyPress"
)

const defaultPollInterval = 5 * time.Millisecond

// KeyEvent is one key press reported by a backend.
type KeyEvent struct {
	Key  string
	Time time.Time // press instant, on the session's clock
}

// Backend is the input capability the state machine polls. Both the
// device-specific and the default-device readers satisfy it; selection is
// an injected dependency, never a branch inside the loop.
type Backend interface {
	// Poll returns the keys pressed since the previous call, oldest
	// first. An empty slice means nothing new this tick.
	Poll(ctx context.Context) ([]KeyEvent, error)

	// Flush discards pending presses so stale keys never leak into a
	// fresh wait.
	Flush(ctx context.Context) error
}

// Sink receives one append-only record per observed input event.
type Sink interface {
	Log(kind, subkind string, at time.Time, elapsed float64, key string) error
}

// State enumerates the machine's observable states.
type State int

// Machine states.
const (
	StateIdle State = iota
	StatePolling
	StateTriggerSeen
	StateEscapeSeen
	StateResponseSeen
	StateExited
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePolling:
		return "polling"
	case StateTriggerSeen:
		return "trigger-seen"
	case StateEscapeSeen:
		return "escape-seen"
	case StateResponseSeen:
		return "response-seen"
	case StateExited:
		return "exited"
	default:
		return "unknown"
	}
}

// Response is the first qualifying key observed during a wait. The zero
// value means no qualifying key was seen.
type Response struct {
	Key     string
	Time    time.Time
	Elapsed float64 // seconds since session start
}

// Observed reports whether a qualifying key was recorded.
func (r Response) Observed() bool { return r.Key != "" }

// Logger is the polling state machine bound to one session.
type Logger struct {
	backend Backend
	sink    Sink
	sess    *session.Session

	triggerKey string
	escapeKey  string
	validKeys  map[string]bool

	pollInterval time.Duration
	state        State

	log logger.Logger
}

// New binds the state machine to a backend, a sink and a session. Key
// identities come from the validated configuration.
func New(backend Backend, sink Sink, sess *session.Session, cfg *config.Config, opts ...Option) *Logger {
	l := &Logger{
		backend:      backend,
		sink:         sink,
		sess:         sess,
		triggerKey:   cfg.TriggerKey,
		escapeKey:    cfg.EscapeKey,
		validKeys:    make(map[string]bool, len(cfg.ResponseKeys)),
		pollInterval: defaultPollInterval,
		state:        StateIdle,
		log:          logger.Get().Named("eventlog"),
	}
	for _, key := range cfg.ResponseKeys {
		l.validKeys[key] = true
	}
	if cfg.PollIntervalMS > 0 {
		l.pollInterval = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// State returns the machine's last observable state.
func (l *Logger) State() State { return l.state }

// Wait blocks until an exit condition fires, logging every observed input
// event, and returns at most one qualifying response key.
//
// Exit conditions: a trigger press when triggerBreaks is set, any
// non-trigger non-escape press when otherKeysBreak is set, the keepPolling
// predicate turning false, or context cancellation. An escape press aborts
// with ErrAbortedByUser after marking the session; no key is returned on
// that path.
//
// The first valid response key wins; later presses in the same call are
// still logged but never overwrite it. A nil keepPolling polls until a
// break flag fires.
func (l *Logger) Wait(ctx context.Context, triggerBreaks, otherKeysBreak bool, keepPolling func() bool) (Response, error) {
	l.state = StatePolling

	// Stale presses from before this wait must not leak in.
	if err := l.backend.Flush(ctx); err != nil {
		l.state = StateExited
		return Response{}, fmt.Errorf("%w: flush: %w", ErrBackendRead, err)
	}

	var resp Response
	exit := false

	for {
		if err := ctx.Err(); err != nil {
			l.state = StateExited
			return resp, fmt.Errorf("wait interrupted: %w", err)
		}

		events, err := l.backend.Poll(ctx)
		if err != nil {
			l.state = StateExited
			return Response{}, fmt.Errorf("%w: %w", ErrBackendRead, err)
		}

		for _, ev := range events {
			elapsed := l.sess.ElapsedAt(ev.Time)

			switch {
			case ev.Key == l.triggerKey:
				l.state = StateTriggerSeen
				if err := l.sink.Log(KindPulse, SubTrigger, ev.Time, elapsed, ev.Key); err != nil {
					return Response{}, fmt.Errorf("log pulse: %w", err)
				}
				metrics.RecordPulse()
				l.log.Debug(ctx, "trigger pulse", logger.Float64("elapsed", elapsed))
				if triggerBreaks {
					exit = true
				}

			case ev.Key == l.escapeKey:
				l.state = StateEscapeSeen
				if err := l.sink.Log(KindResp, SubEscape, ev.Time, elapsed, ev.Key); err != nil {
					return Response{}, fmt.Errorf("log escape: %w", err)
				}
				l.sess.MarkAborted()
				metrics.RecordAbort()
				l.log.Warn(ctx, "escape pressed, aborting run", logger.Float64("elapsed", elapsed))
				l.state = StateExited
				return Response{}, fmt.Errorf("escape at %.3fs: %w", elapsed, ErrAbortedByUser)

			default:
				l.state = StateResponseSeen
				if err := l.sink.Log(KindResp, SubKeyPress, ev.Time, elapsed, ev.Key); err != nil {
					return Response{}, fmt.Errorf("log keypress: %w", err)
				}
				metrics.RecordKeyPress()
				if !resp.Observed() && l.validKeys[ev.Key] {
					resp = Response{Key: ev.Key, Time: ev.Time, Elapsed: elapsed}
					metrics.RecordResponse()
				}
				if otherKeysBreak {
					exit = true
				}
			}
		}

		if exit {
			break
		}
		if keepPolling != nil && !keepPolling() {
			break
		}

		l.state = StatePolling
		select {
		case <-ctx.Done():
			l.state = StateExited
			return resp, fmt.Errorf("wait interrupted: %w", ctx.Err())
		case <-time.After(l.pollInterval):
		}
	}

	l.state = StateExited
	return resp, nil
}

// WaitForTrigger blocks until the next scanner pulse, ignoring everything
// except escape. Sugar over Wait for the common run-start case.
func (l *Logger) WaitForTrigger(ctx context.Context) error {
	_, err := l.Wait(ctx, true, false, nil)
	return err
}
