package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TimManiquet/fmritask/internal/adapters/input"
	"github.com/TimManiquet/fmritask/internal/adapters/logsink"
	service "github.com/TimManiquet/fmritask/internal/app"
	"github.com/TimManiquet/fmritask/internal/eventlog"
	"github.com/TimManiquet/fmritask/internal/session"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one run of the subject's schedule",
	Long: `Waits for the scanner trigger, then presents the run's trials in order,
logging every pulse and key press and recording at most one response per
trial. The schedule is built and persisted on the first run and read back
unchanged on later ones.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runRun(cmd); err != nil {
			if errors.Is(err, eventlog.ErrAbortedByUser) {
				fmt.Fprintln(os.Stderr, "Run aborted by participant.")
				os.Exit(2)
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().Int("run", 1, "Run number to execute (1-based)")
	runCmd.Flags().String("device", "", "Input device path (default: the terminal in raw mode)")
}

func runRun(cmd *cobra.Command) error {
	ctx, stop, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()

	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}
	runNumber, _ := cmd.Flags().GetInt("run")

	store, err := openStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	sink, err := logsink.New(filepath.Join(cfg.DataDir, subject+"_events.tsv"))
	if err != nil {
		return err
	}
	defer sink.Close()

	sess := session.New(subject)

	var backend interface {
		eventlog.Backend
		Close() error
	}
	if devicePath, _ := cmd.Flags().GetString("device"); devicePath != "" {
		backend, err = input.OpenDevice(devicePath, sess.Clock())
	} else {
		backend, err = input.OpenTerminal(sess.Clock())
	}
	if err != nil {
		return err
	}
	defer backend.Close()

	svc := service.New(cfg, store, backend, sink, sess)
	return svc.Run(ctx, runNumber)
}
