package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/TimManiquet/fmritask/internal/config"
	"github.com/TimManiquet/fmritask/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "fmritask",
	Short: "Schedule and run a button-response fMRI task",
	Long: `fmritask builds counterbalanced trial schedules from a stimulus list,
persists one schedule per subject, and drives runs against a scanner
trigger and a button box, logging every input event.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("subject", "", "Subject identifier (e.g. sub-01)")
}

// setup performs the shared startup sequence: logging, a signal-aware
// root context, and validated configuration.
func setup(cmd *cobra.Command) (context.Context, context.CancelFunc, *config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, nil, nil, fmt.Errorf("initialize logging: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		stop()
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	return ctx, stop, cfg, nil
}

// subjectFlag returns the mandatory --subject value.
func subjectFlag(cmd *cobra.Command) (string, error) {
	subject, _ := cmd.Flags().GetString("subject")
	if subject == "" {
		return "", fmt.Errorf("--subject is required")
	}
	return subject, nil
}
