package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/undo"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/usecase"
)

var (
	undoForce  bool
	undoBackup string
)

func buildUndoCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo [undo-log]",
		Short: "Reverse an optimize run using its undo log",
		Long: `Reverses a recorded optimize run in two phases:
  - Validate: confirms every recorded path still matches the disk;
    any hard mismatch aborts before a single change is made
  - Replay: restores files first, then directories ordered so that
    the deepest directories are restored last

Size or modification-time drift on a file produces a warning but never
blocks the undo. Use --force to proceed past hard validation failures
and to overwrite occupied original paths.

Examples:
  vttassets undo --dry-run ./assets/vttassets-undo.json
  vttassets undo ./assets/vttassets-undo.json
  vttassets undo --force --backup /tmp/pre-undo ./assets/vttassets-undo.json`,
		Args: cobra.ExactArgs(1),
		RunE: runUndo,
	}

	cmd.Flags().BoolVar(&undoForce, "force", false, "Proceed past validation failures and overwrite occupied targets")
	cmd.Flags().StringVar(&undoBackup, "backup", "", "Copy current files here before restoring")

	return cmd
}

func runUndo(_ *cobra.Command, args []string) error {
	printDryRunBanner()

	progressTicker := startProgress("undoing")

	execution, err := usecase.New().RunUndo(usecase.UndoRequest{
		LedgerPath: args[0],
		Force:      undoForce,
		DryRun:     dryRun,
		BackupPath: undoBackup,
	})
	progressTicker.Stop()

	if err != nil {
		return err
	}

	printCommandHeader("UNDO", execution.RootDir)
	fmt.Printf("Run ID: %s\n\n", execution.RunID)

	for _, warning := range execution.Summary.Warnings {
		printWarning(warning)
	}

	if verbose {
		for _, res := range execution.Summary.Results {
			printUndoResult(res)
		}
		fmt.Println()
	}

	printSummary(
		fmt.Sprintf("Total:     %d", execution.Summary.Total),
		fmt.Sprintf("Restored:  %d", execution.Summary.Restored),
		fmt.Sprintf("Skipped:   %d", execution.Summary.Skipped),
		fmt.Sprintf("Failed:    %d", execution.Summary.Failed),
		fmt.Sprintf("What-if:   %d", execution.Summary.WhatIf),
	)
	if execution.ResultsLogPath != "" {
		fmt.Printf("\nReplay log: %s\n", execution.ResultsLogPath)
	}
	printDryRunHint()

	return nil
}

func printUndoResult(res undo.Result) {
	switch res.Status {
	case undo.StatusSuccess:
		fmt.Printf("RESTORE: %s\n", res.CurrentPath)
		fmt.Printf("     TO: %s\n", res.TargetPath)
	case undo.StatusWhatIf:
		fmt.Printf("WOULD RESTORE: %s -> %s\n", res.CurrentPath, res.TargetPath)
	case undo.StatusSkipped:
		fmt.Printf("SKIP: [%s] %s (%s)\n", res.Type, res.CurrentPath, res.Error)
	case undo.StatusFailed:
		fmt.Printf("ERROR: [%s] %s: %s\n", res.Type, res.CurrentPath, res.Error)
	}
}
