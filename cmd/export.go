package main

import (
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lotto-cli/internal/writer"
)

var (
	exportInput  string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a scraped JSON dataset to XLSX",
	RunE: func(cmd *cobra.Command, args []string) error {
		input := exportInput
		if input == "" {
			input = filepath.Join(cfg.Output.Dir, writer.JSONFileName)
		}
		output := exportOutput
		if output == "" {
			output = filepath.Join(cfg.Output.Dir, "lotto_max_draws.xlsx")
		}

		doc, err := writer.ReadJSON(input)
		if err != nil {
			return err
		}
		if err := writer.WriteXLSX(output, doc.Draws); err != nil {
			return eris.Wrapf(err, "export %s", output)
		}

		zap.L().Info("dataset exported",
			zap.String("input", input),
			zap.String("output", output),
			zap.Int("draws", len(doc.Draws)),
		)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportInput, "input", "", "source JSON dataset (default from config)")
	exportCmd.Flags().StringVar(&exportOutput, "output", "", "target XLSX file (default alongside the input)")
	rootCmd.AddCommand(exportCmd)
}
