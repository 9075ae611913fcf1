package main

import (
	"github.com/spf13/cobra"
)

var (
	dryRun  bool
	verbose bool
)

func buildRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vttassets",
		Short: "Prepare virtual-tabletop asset libraries for web serving",
		Long: `vttassets prepares asset directories for a web-served game table.

Commands:
  optimize   Renames files and directories into a sanitized, web-safe form
  undo       Reverses an optimize run using its undo log
  transcode  Converts media through an external encoder (webp/webm)
  export     Renders an undo log to CSV or JSON

Examples:
  # Preview what optimize would do (recommended first step)
  vttassets optimize --dry-run /assets/maps

  # Rename in place, in parallel, and keep the undo log
  vttassets optimize --parallel /assets/maps

  # Restore every entry to its original name
  vttassets undo /assets/maps/vttassets-undo.json

  # Convert source images to webp alongside the originals
  vttassets transcode --profile webp /assets/maps

Safety:
  The tool never renames entries outside the target directory. Every
  successful rename is recorded in an undo log that can replay the run
  in reverse.`,
	}

	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without making changes")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")

	return cmd
}
