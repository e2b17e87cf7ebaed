package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/TimManiquet/fmritask/internal/config"
	. "github.com/smartystreets/goconvey/convey"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	Convey("Given a YAML config file", t, func() {
		path := writeConfigFile(t, `
stim_list_file: lists/stimuli.tsv
num_repetitions: 2
num_runs: 2
pre_post: 10
stim_dur: 1.5
fix_dur: 0.5
stim_randomization: run
trigger_key: t
escape_key: escape
response_keys: ["f", "j"]
response_instructions: ["animate", "inanimate"]
`)

		Convey("When loading it", func() {
			cfg, err := config.Load(context.Background(), path)

			Convey("Then all values land on the struct", func() {
				So(err, ShouldBeNil)
				So(cfg.StimListFile, ShouldEqual, "lists/stimuli.tsv")
				So(cfg.NumRepetitions, ShouldEqual, 2)
				So(cfg.NumRuns, ShouldEqual, 2)
				So(cfg.StimRandomization, ShouldEqual, "run")
				So(cfg.TrialDur(), ShouldEqual, 2.0)
				So(cfg.ResponseInstructions, ShouldResemble, []string{"animate", "inanimate"})
			})
		})

		Convey("When an env var overrides a file value", func() {
			t.Setenv("FMRITASK_NUM_RUNS", "4")
			cfg, err := config.Load(context.Background(), path)

			Convey("Then the env value wins", func() {
				So(err, ShouldBeNil)
				So(cfg.NumRuns, ShouldEqual, 4)
			})
		})
	})

	Convey("Given a config file without the stimulus list", t, func() {
		path := writeConfigFile(t, "num_runs: 2\n")

		Convey("When loading it", func() {
			_, err := config.Load(context.Background(), path)

			Convey("Then loading fails fast with the missing key", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, config.ErrMissingKey), ShouldBeTrue)
			})
		})
	})

	Convey("Given a path that does not exist", t, func() {
		_, err := config.Load(context.Background(), "does/not/exist.yaml")

		Convey("Then the load error is surfaced", func() {
			So(err, ShouldNotBeNil)
			So(errors.Is(err, config.ErrLoadConfig), ShouldBeTrue)
		})
	})
}
