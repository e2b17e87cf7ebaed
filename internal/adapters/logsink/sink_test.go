package logsink_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TimManiquet/fmritask/internal/adapters/logsink"
	. "github.com/smartystreets/goconvey/convey"
)

func TestFileSink(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 0, 12, 0, time.UTC)

	Convey("Given a sink over a buffer", t, func() {
		var buf bytes.Buffer
		sink := logsink.NewWriter(&buf)

		Convey("When logging a pulse and a key press", func() {
			So(sink.Log("PULSE", "Trigger", at, 12.0, "t"), ShouldBeNil)
			So(sink.Log("RESP", "KeyPress", at.Add(time.Second), 13.0, "f"), ShouldBeNil)

			lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

			Convey("Then one record per event is appended", func() {
				So(len(lines), ShouldEqual, 2)
			})

			Convey("Then each record has the seven fixed columns", func() {
				cols := strings.Split(lines[0], "\t")
				So(len(cols), ShouldEqual, 7)
				So(cols[0], ShouldEqual, "PULSE")
				So(cols[1], ShouldEqual, "Trigger")
				So(cols[3], ShouldEqual, "-")
				So(cols[4], ShouldEqual, "12.0000")
				So(cols[5], ShouldEqual, "-")
				So(cols[6], ShouldEqual, "t")
			})

			Convey("Then the timestamp column parses back", func() {
				cols := strings.Split(lines[0], "\t")
				parsed, err := time.Parse(time.RFC3339Nano, cols[2])
				So(err, ShouldBeNil)
				So(parsed.Equal(at), ShouldBeTrue)
			})
		})
	})

	Convey("Given a file-backed sink", t, func() {
		path := filepath.Join(t.TempDir(), "events.tsv")
		sink, err := logsink.New(path)
		So(err, ShouldBeNil)

		Convey("When logging and reopening in append mode", func() {
			So(sink.Log("RESP", "Escape", at, 30.5, "escape"), ShouldBeNil)
			So(sink.Close(), ShouldBeNil)

			again, err := logsink.New(path)
			So(err, ShouldBeNil)
			So(again.Log("PULSE", "Trigger", at, 31.0, "t"), ShouldBeNil)
			So(again.Close(), ShouldBeNil)

			Convey("Then earlier records survive", func() {
				data, rerr := os.ReadFile(path)
				So(rerr, ShouldBeNil)
				lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
				So(len(lines), ShouldEqual, 2)
				So(lines[0], ShouldStartWith, "RESP\tEscape")
				So(lines[1], ShouldStartWith, "PULSE\tTrigger")
			})
		})
	})

	Convey("Given an unwritable path", t, func() {
		_, err := logsink.New("/no/such/dir/events.tsv")

		Convey("Then opening fails with the sentinel", func() {
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "open event log failed")
		})
	})
}
