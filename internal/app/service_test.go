package service_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TimManiquet/fmritask/internal/adapters/input"
	"github.com/TimManiquet/fmritask/internal/adapters/logsink"
	"github.com/TimManiquet/fmritask/internal/adapters/storage"
	service "github.com/TimManiquet/fmritask/internal/app"
	"github.com/TimManiquet/fmritask/internal/config"
	"github.com/TimManiquet/fmritask/internal/domain/schedule"
	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
	"github.com/TimManiquet/fmritask/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

func writeStimList(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stimuli.tsv")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write stimulus list: %v", err)
	}
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		StimListFile:         writeStimList(t, "stimuli\nimg_01.png\nfixation\n"),
		NumRepetitions:       1,
		NumRuns:              1,
		PrePost:              0.05,
		StimDur:              0.2,
		FixDur:               0,
		TriggerKey:           "t",
		EscapeKey:            "escape",
		ResponseKeys:         []string{"f", "j"},
		ResponseInstructions: []string{"yes", "no"},
		PollIntervalMS:       1,
	}
}

func openStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "schedules.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func press(key string, at time.Time, offset time.Duration) eventlog.KeyEvent {
	return eventlog.KeyEvent{Key: key, Time: at.Add(offset)}
}

func TestServiceSchedule(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with an empty store", t, func() {
		cfg := testConfig(t)
		store := openStore(t)
		sess := session.New("sub-01")
		sink := logsink.NewWriter(&bytes.Buffer{})
		backend := input.NewScript(sess.Clock(), nil)

		svc := service.New(cfg, store, backend, sink, sess,
			service.WithBuilder(schedule.NewBuilder(schedule.WithSeed(7))))

		Convey("When the schedule is requested", func() {
			sched, err := svc.Schedule(ctx)

			Convey("Then it is built and persisted", func() {
				So(err, ShouldBeNil)
				So(sched.Len(), ShouldEqual, 2)

				exists, err := store.Exists(ctx, "sub-01")
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)
			})
		})

		Convey("When a schedule was already persisted for the subject", func() {
			first, err := svc.Schedule(ctx)
			So(err, ShouldBeNil)

			// Point a second service at a longer stimulus list; the
			// stored schedule must win over regeneration.
			cfg2 := testConfig(t)
			cfg2.StimListFile = writeStimList(t, "stimuli\na.png\nb.png\nc.png\nd.png\n")

			svc2 := service.New(cfg2, store, backend, sink, session.New("sub-01"))
			again, err := svc2.Schedule(ctx)

			Convey("Then the stored schedule is returned unchanged", func() {
				So(err, ShouldBeNil)
				So(again.Len(), ShouldEqual, first.Len())
				So(again.Trials[0].Stimulus, ShouldEqual, first.Trials[0].Stimulus)
			})
		})

		Convey("When the trial count does not divide into the runs", func() {
			cfg.NumRuns = 3
			_, err := svc.Schedule(ctx)

			Convey("Then the partition failure propagates", func() {
				So(errors.Is(err, schedule.ErrPartition), ShouldBeTrue)
			})
		})
	})
}

func TestServiceRun(t *testing.T) {
	ctx := context.Background()

	Convey("Given a scripted run with one response press", t, func() {
		cfg := testConfig(t)
		store := openStore(t)
		sess := session.New("sub-01")

		var logBuf bytes.Buffer
		sink := logsink.NewWriter(&logBuf)

		// Trigger well after start so schedule building cannot outrun
		// it; "f" lands inside trial 1's window (pre padding 50ms,
		// trial 1 spans the next 200ms after the trigger).
		backend := input.NewScript(sess.Clock(), []eventlog.KeyEvent{
			press("t", sess.Start(), 300*time.Millisecond),
			press("f", sess.Start(), 450*time.Millisecond),
		})

		svc := service.New(cfg, store, backend, sink, sess)

		Convey("When the run executes", func() {
			err := svc.Run(ctx, 1)

			Convey("Then it completes and the response is written back", func() {
				So(err, ShouldBeNil)

				sched, err := store.Load(ctx, "sub-01")
				So(err, ShouldBeNil)
				So(sched.Trials[0].Responded, ShouldBeTrue)
				So(sched.Trials[0].ResponseKey, ShouldEqual, "f")
				So(sched.Trials[0].ResponseOnset, ShouldBeGreaterThan, 0)
				So(sched.Trials[1].Responded, ShouldBeFalse)
			})

			Convey("Then the pulse and the key press were logged", func() {
				So(err, ShouldBeNil)
				So(logBuf.String(), ShouldContainSubstring, "PULSE\tTrigger")
				So(logBuf.String(), ShouldContainSubstring, "RESP\tKeyPress")
			})
		})
	})

	Convey("Given a scripted run where the participant escapes", t, func() {
		cfg := testConfig(t)
		store := openStore(t)
		sess := session.New("sub-01")

		var logBuf bytes.Buffer
		sink := logsink.NewWriter(&logBuf)

		backend := input.NewScript(sess.Clock(), []eventlog.KeyEvent{
			press("t", sess.Start(), 300*time.Millisecond),
			press("escape", sess.Start(), 450*time.Millisecond),
		})

		svc := service.New(cfg, store, backend, sink, sess)

		Convey("When the run executes", func() {
			err := svc.Run(ctx, 1)

			Convey("Then it aborts and the session records it", func() {
				So(errors.Is(err, eventlog.ErrAbortedByUser), ShouldBeTrue)
				So(sess.Aborted(), ShouldBeTrue)
				So(logBuf.String(), ShouldContainSubstring, "RESP\tEscape")
			})

			Convey("Then no response was committed", func() {
				sched, err := store.Load(ctx, "sub-01")
				So(err, ShouldBeNil)
				for _, trial := range sched.Trials {
					So(trial.Responded, ShouldBeFalse)
				}
			})
		})
	})

	Convey("Given a run number outside the schedule", t, func() {
		cfg := testConfig(t)
		store := openStore(t)
		sess := session.New("sub-01")
		sink := logsink.NewWriter(&bytes.Buffer{})
		backend := input.NewScript(sess.Clock(), nil)

		svc := service.New(cfg, store, backend, sink, sess)

		Convey("When the run executes", func() {
			err := svc.Run(ctx, 99)

			Convey("Then it is rejected with the run number", func() {
				So(errors.Is(err, service.ErrNoSuchRun), ShouldBeTrue)
				So(strings.Contains(err.Error(), "99"), ShouldBeTrue)
			})
		})
	})
}
