package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TimManiquet/fmritask/internal/adapters/stimlist"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the configuration and stimulus list for consistency",
	Long: `Loads the configuration, reads the stimulus list and verifies that the
expanded trial count divides evenly into the configured runs, without
building or persisting anything.`,
	Run: func(cmd *cobra.Command, args []string) {
		if err := runValidate(cmd); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command) error {
	_, stop, cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	defer stop()

	table, err := stimlist.Read(cfg.StimListFile)
	if err != nil {
		return err
	}

	trials := table.Len() * cfg.NumRepetitions
	if trials%cfg.NumRuns != 0 {
		return fmt.Errorf("%d trials (%d stimuli x %d repetitions) do not divide into %d runs",
			trials, table.Len(), cfg.NumRepetitions, cfg.NumRuns)
	}

	fmt.Printf("Stimulus list: %s (%d rows, columns %v)\n", cfg.StimListFile, table.Len(), table.Columns)
	fmt.Printf("Schedule: %d trials, %d runs of %d trials each\n", trials, cfg.NumRuns, trials/cfg.NumRuns)
	if table.HasRun {
		fmt.Println("Run assignment: taken from the stimulus list's run column")
	}
	fmt.Println("Configuration is valid.")
	return nil
}
