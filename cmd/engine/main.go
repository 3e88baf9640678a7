package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"applicant-engine/internal/config"
)

var (
	dataDir string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "applicant-engine",
	Short: "Classify applicant emails and export candidate fields",
	Long: "Reads unread mail from an IMAP or Gmail inbox, recognises job-board notifications " +
		"(AhaMove, TopCV, CareerBuilder) and personal applications, extracts candidate fields " +
		"and appends them to an xlsx workbook, a Google Sheet or a local sqlite store.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if dataDir == "" {
			d, err := config.DataDir()
			if err != nil {
				return err
			}
			dataDir = d
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return eris.Wrapf(err, "create data dir %s", dataDir)
		}

		c, vr, err := config.LoadUser(dataDir)
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}
		for _, w := range vr.Warnings {
			zap.L().Warn("config warning", zap.String("warning", w))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "",
		"directory holding config.yml, the database and the workbook (default $"+config.EnvDataDir+")")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
