package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/usecase"
)

var (
	exportFormat string
	exportOutput string
)

func buildExportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export [undo-log]",
		Short: "Render an undo log to CSV or JSON",
		Long: `Renders the operation records of an undo log for auditing or
spreadsheet review.

Examples:
  vttassets export -o run.csv ./assets/vttassets-undo.json
  vttassets export --format json -o run.json ./assets/vttassets-undo.json`,
		Args: cobra.ExactArgs(1),
		RunE: runExport,
	}

	cmd.Flags().StringVar(&exportFormat, "format", "csv", "Output format: csv or json")
	cmd.Flags().StringVarP(&exportOutput, "out", "o", "", "Output file path (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runExport(_ *cobra.Command, args []string) error {
	err := usecase.New().RunExport(usecase.ExportRequest{
		LedgerPath: args[0],
		OutputPath: exportOutput,
		Format:     exportFormat,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Exported %s to %s\n", args[0], exportOutput)
	return nil
}
