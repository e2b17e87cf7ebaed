package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TimManiquet/fmritask/internal/adapters/stimlist"
	"github.com/TimManiquet/fmritask/internal/adapters/storage"
	"github.com/TimManiquet/fmritask/internal/domain/schedule"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build and persist a subject's trial schedule",
	Long: `Expands the stimulus list into a full trial schedule for the subject and
stores it. A subject's schedule is built exactly once; re-running the
command for the same subject fails rather than overwriting it.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runBuild(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().Int64("seed", 0, "Randomization seed (0 means time-seeded)")
}

func runBuild(cmd *cobra.Command) error {
	ctx, stop, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()

	subject, err := subjectFlag(cmd)
	if err != nil {
		return err
	}

	table, err := stimlist.Read(cfg.StimListFile)
	if err != nil {
		return err
	}

	var opts []schedule.Option
	if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
		opts = append(opts, schedule.WithSeed(seed))
	}

	sched, err := schedule.NewBuilder(opts...).Build(ctx, cfg, table, subject)
	if err != nil {
		return err
	}

	store, err := openStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(ctx, sched); err != nil {
		return err
	}

	fmt.Printf("Schedule for %s: %d trials across %d runs\n", subject, sched.Len(), sched.Runs())
	for run := 1; run <= sched.Runs(); run++ {
		trials := sched.RunTrials(run)
		if len(trials) == 0 {
			continue
		}
		fmt.Printf("  run %d: %d trials, button map %s (first onset %.1fs)\n",
			run, len(trials), trials[0].Mapping.MapID, trials[0].IdealOnset)
	}
	return nil
}

// openStore opens the per-project schedule database, creating the data
// directory when needed.
func openStore(dataDir string) (*storage.SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0o750); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return storage.Open(filepath.Join(dataDir, "schedules.db"))
}
