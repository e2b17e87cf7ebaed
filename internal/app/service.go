// Package service orchestrates one run of the task: it loads or builds
// the subject's trial schedule, waits for the scanner trigger, and walks
// the run's trials collecting responses through the event logger.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/TimManiquet/fmritask/internal/adapters/stimlist"
	"github.com/TimManiquet/fmritask/internal/adapters/storage"
	"github.com/TimManiquet/fmritask/internal/config"
	"github.com/TimManiquet/fmritask/internal/domain/model"
	"github.com/TimManiquet/fmritask/internal/domain/schedule"
	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
	"github.com/TimManiquet/fmritask/pkg/logger"
	"github.com/TimManiquet/fmritask/pkg/metrics"
)

// Presenter renders a trial to the participant. Display hardware is out
// of scope here, so the default implementation does nothing; a real
// presentation layer plugs in through WithPresenter.
type Presenter interface {
	ShowStimulus(ctx context.Context, trial model.Trial) error
	ShowFixation(ctx context.Context, trial model.Trial) error
}

// NopPresenter renders nothing.
type NopPresenter struct{}

func (NopPresenter) ShowStimulus(context.Context, model.Trial) error { return nil }
func (NopPresenter) ShowFixation(context.Context, model.Trial) error { return nil }

// Service drives one subject's session against a schedule store and an
// input backend.
type Service struct {
	cfg     *config.Config
	store   storage.Store
	backend eventlog.Backend
	sink    eventlog.Sink
	sess    *session.Session

	builder   *schedule.Builder
	presenter Presenter
	events    *eventlog.Logger
	sched     model.TrialSchedule

	log logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPresenter sets the presentation layer for stimuli and fixations.
func WithPresenter(p Presenter) Option {
	return func(s *Service) {
		if p != nil {
			s.presenter = p
		}
	}
}

// WithBuilder sets the schedule builder, typically a seeded one in tests.
func WithBuilder(b *schedule.Builder) Option {
	return func(s *Service) {
		if b != nil {
			s.builder = b
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(log logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// New wires the service for one session. The configuration must already
// be validated.
func New(cfg *config.Config, store storage.Store, backend eventlog.Backend, sink eventlog.Sink, sess *session.Session, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		store:     store,
		backend:   backend,
		sink:      sink,
		sess:      sess,
		builder:   schedule.NewBuilder(),
		presenter: NopPresenter{},
		log:       logger.Get().Named("service"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.events = eventlog.New(backend, sink, sess, cfg, eventlog.WithLogger(s.log))

	return s
}

// Schedule returns the subject's trial schedule, loading the stored one
// when it exists and building and persisting a fresh one otherwise. A
// stored schedule is never regenerated, so repeated runs of the same
// subject always see identical trials.
func (s *Service) Schedule(ctx context.Context) (model.TrialSchedule, error) {
	if s.sched.Len() > 0 {
		return s.sched, nil
	}

	subject := s.sess.SubjectID

	exists, err := s.store.Exists(ctx, subject)
	if err != nil {
		return model.TrialSchedule{}, fmt.Errorf("check stored schedule: %w", err)
	}

	if exists {
		sched, err := s.store.Load(ctx, subject)
		if err != nil {
			return model.TrialSchedule{}, fmt.Errorf("load stored schedule: %w", err)
		}

		metrics.RecordScheduleLoaded()
		metrics.UpdateTrialsScheduled(sched.Len())
		s.log.Info(ctx, "loaded existing trial schedule",
			logger.String("subject", subject),
			logger.Int("trials", sched.Len()))

		s.sched = sched
		return sched, nil
	}

	table, err := stimlist.Read(s.cfg.StimListFile)
	if err != nil {
		return model.TrialSchedule{}, fmt.Errorf("read stimulus list: %w", err)
	}

	start := time.Now()
	sched, err := s.builder.Build(ctx, s.cfg, table, subject)
	if err != nil {
		return model.TrialSchedule{}, err
	}
	metrics.RecordScheduleBuildDuration(float64(time.Since(start).Milliseconds()))

	if err := s.store.Save(ctx, sched); err != nil {
		return model.TrialSchedule{}, fmt.Errorf("persist schedule: %w", err)
	}

	metrics.RecordScheduleBuilt()
	metrics.UpdateTrialsScheduled(sched.Len())
	s.log.Info(ctx, "built and persisted trial schedule",
		logger.String("subject", subject),
		logger.Int("trials", sched.Len()))

	s.sched = sched
	return sched, nil
}

// Run executes one run of the schedule: wait for the scanner trigger,
// then present each trial in turn, collecting at most one response per
// trial inside its onset window. Only the in-flight trial's response
// fields are ever written back.
func (s *Service) Run(ctx context.Context, run int) error {
	sched, err := s.Schedule(ctx)
	if err != nil {
		return err
	}

	trials := sched.RunTrials(run)
	if len(trials) == 0 {
		return fmt.Errorf("%w: %d", ErrNoSuchRun, run)
	}

	mapping := trials[0].Mapping
	s.log.Info(ctx, "starting run",
		logger.String("subject", sched.SubjectID),
		logger.Int("run", run),
		logger.Int("trials", len(trials)),
		logger.String("button_map", mapping.MapID))

	if err := s.events.WaitForTrigger(ctx); err != nil {
		return s.release(ctx, err)
	}

	// Onsets are run-relative: the trigger pulse defines time zero.
	runStart := s.sess.Clock().Now()

	if _, err := s.waitUntil(ctx, runStart.Add(seconds(s.cfg.PrePost))); err != nil {
		return s.release(ctx, err)
	}

	var deadline time.Time
	for _, trial := range trials {
		if trial.IsFixation() {
			err = s.presenter.ShowFixation(ctx, trial)
		} else {
			err = s.presenter.ShowStimulus(ctx, trial)
		}
		if err != nil {
			return fmt.Errorf("present trial %d: %w", trial.TrialNumber, err)
		}
		metrics.RecordTrialPresented()

		deadline = runStart.Add(seconds(trial.IdealOnset + s.cfg.TrialDur()))
		resp, err := s.waitUntil(ctx, deadline)
		if err != nil {
			return s.release(ctx, err)
		}

		if resp.Observed() {
			if err := s.store.RecordResponse(ctx, sched.SubjectID, trial.TrialNumber, resp.Key, resp.Elapsed); err != nil {
				return fmt.Errorf("record response for trial %d: %w", trial.TrialNumber, err)
			}
		}
	}

	if _, err := s.waitUntil(ctx, deadline.Add(seconds(s.cfg.PrePost))); err != nil {
		return s.release(ctx, err)
	}

	metrics.RecordRunCompleted()
	s.log.Info(ctx, "run complete",
		logger.String("subject", sched.SubjectID),
		logger.Int("run", run))

	return nil
}

// waitUntil polls for input until the deadline passes, logging every
// observed event. Trigger pulses and extra key presses never end the
// window early.
func (s *Service) waitUntil(ctx context.Context, deadline time.Time) (eventlog.Response, error) {
	clock := s.sess.Clock()
	return s.events.Wait(ctx, false, false, func() bool {
		return clock.Now().Before(deadline)
	})
}

// release drains the input backend before propagating a fatal condition,
// so queued device events do not leak into a later session.
func (s *Service) release(ctx context.Context, cause error) error {
	if err := s.backend.Flush(context.WithoutCancel(ctx)); err != nil && !errors.Is(cause, context.Canceled) {
		s.log.Warn(ctx, "failed to flush input backend on abort", logger.Error(err))
	}

	return cause
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
