package input_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/TimManiquet/fmritask/internal/adapters/input"
	"github.com/TimManiquet/fmritask/internal/eventlog"
	. "github.com/smartystreets/goconvey/convey"
)

type movableClock struct {
	now time.Time
}

func (c *movableClock) Now() time.Time { return c.now }

func writeDevice(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write device file: %v", err)
	}
	return path
}

func pollUntil(b eventlog.Backend, want int) []eventlog.KeyEvent {
	deadline := time.Now().Add(time.Second)
	var out []eventlog.KeyEvent
	for len(out) < want && time.Now().Before(deadline) {
		events, err := b.Poll(context.Background())
		if err != nil {
			break
		}
		out = append(out, events...)
		time.Sleep(time.Millisecond)
	}
	return out
}

func TestDefaultKeyNamer(t *testing.T) {
	Convey("Given the default key namer", t, func() {
		Convey("Then special bytes map to named keys", func() {
			So(input.DefaultKeyNamer(0x1b), ShouldEqual, "escape")
			So(input.DefaultKeyNamer('\r'), ShouldEqual, "return")
			So(input.DefaultKeyNamer(' '), ShouldEqual, "space")
			So(input.DefaultKeyNamer('\t'), ShouldEqual, "tab")
		})

		Convey("Then letters are lowercased", func() {
			So(input.DefaultKeyNamer('F'), ShouldEqual, "f")
			So(input.DefaultKeyNamer('j'), ShouldEqual, "j")
		})

		Convey("Then unprintable bytes are ignored", func() {
			So(input.DefaultKeyNamer(0x00), ShouldBeEmpty)
			So(input.DefaultKeyNamer(0x7f), ShouldBeEmpty)
		})
	})
}

func TestDeviceBackend(t *testing.T) {
	Convey("Given a device file with queued presses", t, func() {
		clock := &movableClock{now: time.Now()}
		path := writeDevice(t, "buttonbox", "tfj")

		backend, err := input.OpenDevice(path, clock)
		So(err, ShouldBeNil)
		defer backend.Close()

		Convey("When polling after the reader drains the file", func() {
			events := pollUntil(backend, 3)

			Convey("Then presses arrive in order with key identities", func() {
				So(len(events), ShouldEqual, 3)
				So(events[0].Key, ShouldEqual, "t")
				So(events[1].Key, ShouldEqual, "f")
				So(events[2].Key, ShouldEqual, "j")
			})
		})

		Convey("Then the path is retained for logging", func() {
			So(backend.Path(), ShouldEqual, path)
		})
	})

	Convey("Given a device stream of unprintable bytes", t, func() {
		clock := &movableClock{now: time.Now()}
		path := writeDevice(t, "quiet", "\x00\x01\x02")

		backend, err := input.OpenDevice(path, clock)
		So(err, ShouldBeNil)
		defer backend.Close()

		Convey("When polling", func() {
			time.Sleep(20 * time.Millisecond)
			events, perr := backend.Poll(context.Background())

			Convey("Then nothing is reported", func() {
				So(perr, ShouldBeNil)
				So(events, ShouldBeEmpty)
			})
		})
	})

	Convey("Given a missing device path", t, func() {
		_, err := input.OpenDevice("/no/such/device", &movableClock{now: time.Now()})

		Convey("Then opening fails with the sentinel", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "open input device failed")
		})
	})
}

func TestScriptBackend(t *testing.T) {
	Convey("Given a scripted press sequence", t, func() {
		start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
		clock := &movableClock{now: start}
		backend := input.NewScript(clock, []eventlog.KeyEvent{
			{Key: "t", Time: start.Add(1 * time.Second)},
			{Key: "f", Time: start.Add(2 * time.Second)},
		})

		Convey("When polling before the first press is due", func() {
			events, err := backend.Poll(context.Background())

			Convey("Then nothing is released", func() {
				So(err, ShouldBeNil)
				So(events, ShouldBeEmpty)
				So(backend.Remaining(), ShouldEqual, 2)
			})
		})

		Convey("When the clock passes the first press", func() {
			clock.now = start.Add(1500 * time.Millisecond)
			events, err := backend.Poll(context.Background())

			Convey("Then only the due press is released", func() {
				So(err, ShouldBeNil)
				So(len(events), ShouldEqual, 1)
				So(events[0].Key, ShouldEqual, "t")
				So(backend.Remaining(), ShouldEqual, 1)
			})
		})

		Convey("When flushing past every press", func() {
			clock.now = start.Add(time.Minute)
			So(backend.Flush(context.Background()), ShouldBeNil)

			Convey("Then the script is exhausted", func() {
				So(backend.Remaining(), ShouldEqual, 0)
			})
		})
	})
}
