package main

import (
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"applicant-engine/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one pass over unread mail and export the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		res, err := eng.runner.Run(ctx)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}

var watchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a pass now and then on every polling interval",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, err := newEngine(ctx, cfg)
		if err != nil {
			return err
		}
		defer eng.Close()

		every := pollInterval(watchInterval)
		zap.L().Info("watching mailbox", zap.Duration("every", every), zap.String("kind", cfg.Mailbox.Kind))
		scheduler.Every(ctx, every, "mailbox", eng.runner.Task)
		return nil
	},
}

// pollInterval prefers a flag value over polling.seconds.
func pollInterval(flag time.Duration) time.Duration {
	if flag > 0 {
		return flag
	}
	return time.Duration(cfg.Polling.Seconds) * time.Second
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "every", 0, "polling interval (default from config)")
	rootCmd.AddCommand(runCmd, watchCmd)
}
