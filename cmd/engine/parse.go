package main

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"applicant-engine/internal/pipeline"
)

var parseCmd = &cobra.Command{
	Use:   "parse <file.eml|->",
	Short: "Parse one raw message and print the extracted record",
	Long:  "Classifies a saved RFC822 message and prints the record as JSON without exporting it. Use - to read stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var (
			raw []byte
			err error
			id  = "stdin"
		)
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			id = filepath.Base(args[0])
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		rec, err := pipeline.ParseRaw(cmd.Context(), parserOptions(cfg), id, raw)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"record":     rec,
			"exportable": rec != nil && rec.HasPosition(),
		})
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
