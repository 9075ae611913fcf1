package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/optimizer"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/sanitizer"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/usecase"
)

var (
	optRemoveMetadata  bool
	optSpaces          string
	optExpandAmpersand bool
	optPreserveCase    bool
	optKeepExtCase     bool
	optForce           bool
	optParallel        bool
	optThrottle        int
	optChunkSize       int
	optOutputRoot      string
	optUndoLog         string
	optIncludeExt      []string
	optExcludeExt      []string
	optNoRecurse       bool
)

func buildOptimizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize [path]",
		Short: "Rename files and directories into a sanitized, web-safe form",
		Long: `Renames every entry under the target directory in place:
  - Replaces whitespace runs (underscore by default)
  - Removes characters unsafe for web serving
  - Lowercases names and extensions
  - Optionally strips (...)/[...] metadata groups and WxH suffixes

Directories are renamed deepest-first before any file is touched, so a
renamed parent never orphans pending child operations. Every successful
rename is recorded in an undo log.

Examples:
  vttassets optimize --dry-run ./assets       # Preview changes
  vttassets optimize ./assets                 # Apply changes
  vttassets optimize --parallel ./assets      # Use a worker pool for files
  vttassets optimize --output ./web ./assets  # Copy instead of rename

Before: "Player's Guide (2nd Edition).PDF"   (--remove-metadata)
After:  "players_guide.pdf"`,
		Args: cobra.ExactArgs(1),
		RunE: runOptimize,
	}

	cmd.Flags().BoolVar(&optRemoveMetadata, "remove-metadata", false, "Strip (...) and [...] groups and WxH dimension suffixes")
	cmd.Flags().StringVar(&optSpaces, "spaces", "underscore", "Whitespace handling: remove, dash, underscore")
	cmd.Flags().BoolVar(&optExpandAmpersand, "expand-ampersand", false, "Replace & with _and_ instead of _")
	cmd.Flags().BoolVar(&optPreserveCase, "preserve-case", false, "Keep the original name casing")
	cmd.Flags().BoolVar(&optKeepExtCase, "keep-extension-case", false, "Do not lowercase extensions")
	cmd.Flags().BoolVar(&optForce, "force", false, "Overwrite pre-existing targets")
	cmd.Flags().BoolVar(&optParallel, "parallel", false, "Process file chunks on a worker pool")
	cmd.Flags().IntVar(&optThrottle, "throttle", 0, "Worker count for --parallel (1-32, default CPU count)")
	cmd.Flags().IntVar(&optChunkSize, "chunk-size", 0, "Files per processing chunk")
	cmd.Flags().StringVarP(&optOutputRoot, "output", "o", "", "Copy sanitized entries here instead of renaming in place")
	cmd.Flags().StringVar(&optUndoLog, "undo-log", "", "Undo log path (default <root>/"+usecase.DefaultUndoLogName+")")
	cmd.Flags().StringSliceVar(&optIncludeExt, "include-ext", nil, "Only process files with these extensions")
	cmd.Flags().StringSliceVar(&optExcludeExt, "exclude-ext", nil, "Skip files with these extensions")
	cmd.Flags().BoolVar(&optNoRecurse, "no-recurse", false, "Process only the top level of the target")

	return cmd
}

func runOptimize(_ *cobra.Command, args []string) error {
	opts, err := sanitizeOptionsFromFlags()
	if err != nil {
		return err
	}

	printDryRunBanner()

	progressTicker := startProgress("optimizing")

	execution, err := usecase.New().RunOptimize(usecase.OptimizeRequest{
		Root:          args[0],
		Options:       opts,
		DryRun:        dryRun,
		Recurse:       !optNoRecurse,
		Parallel:      optParallel,
		ThrottleLimit: optThrottle,
		ChunkSize:     optChunkSize,
		OutputRoot:    optOutputRoot,
		UndoLogPath:   optUndoLog,
		IncludeExt:    optIncludeExt,
		ExcludeExt:    optExcludeExt,
	})
	progressTicker.Stop()

	if err != nil {
		return err
	}

	printCommandHeader("OPTIMIZE", execution.RootDir)
	fmt.Printf("Processed %d entries in %v\n\n", execution.Summary.Total, execution.Duration.Round(millisecond))

	printOperationDetails(execution.Records)

	printSummary(
		fmt.Sprintf("Total:             %d", execution.Summary.Total),
		fmt.Sprintf("Renamed:           %d", execution.Summary.Renamed),
		fmt.Sprintf("Already optimized: %d", execution.Summary.AlreadyOptimized),
		fmt.Sprintf("Skipped:           %d", execution.Summary.Skipped),
		fmt.Sprintf("Failed:            %d", execution.Summary.Failed),
		fmt.Sprintf("What-if:           %d", execution.Summary.WhatIf),
	)

	if execution.UndoLogPath != "" {
		fmt.Printf("\nUndo log: %s\n", execution.UndoLogPath)
	}

	printDryRunHint()
	return nil
}

func sanitizeOptionsFromFlags() (sanitizer.Options, error) {
	opts := sanitizer.DefaultOptions()
	opts.RemoveMetadata = optRemoveMetadata
	opts.ExpandAmpersand = optExpandAmpersand
	opts.PreserveCase = optPreserveCase
	opts.LowercaseExtensions = !optKeepExtCase
	opts.Force = optForce

	switch optSpaces {
	case "remove":
		opts.SpaceReplacement = sanitizer.SpaceRemove
	case "dash":
		opts.SpaceReplacement = sanitizer.SpaceDash
	case "underscore":
		opts.SpaceReplacement = sanitizer.SpaceUnderscore
	default:
		return opts, fmt.Errorf("invalid --spaces value %q (want remove, dash, or underscore)", optSpaces)
	}

	return opts, nil
}

func printOperationDetails(records []optimizer.OperationRecord) {
	if !verbose {
		return
	}

	for _, rec := range records {
		switch rec.Status {
		case optimizer.StatusSuccess:
			fmt.Printf("RENAME: %s\n", rec.OriginalPath)
			fmt.Printf("    TO: %s\n", rec.NewPath)
		case optimizer.StatusWhatIf:
			fmt.Printf("WOULD RENAME: %s -> %s\n", rec.OriginalName, rec.NewName)
		case optimizer.StatusSkipped:
			fmt.Printf("SKIP: %s (%s)\n", rec.OriginalName, rec.Error)
		case optimizer.StatusFailed:
			fmt.Printf("ERROR: %s -> %s: %s\n", rec.OriginalName, rec.NewName, rec.Error)
		}
	}

	fmt.Println()
}
