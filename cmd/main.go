package main

import (
	"os"
)

func main() {
	rootCmd := buildRootCommand()
	rootCmd.AddCommand(buildOptimizeCommand())
	rootCmd.AddCommand(buildUndoCommand())
	rootCmd.AddCommand(buildTranscodeCommand())
	rootCmd.AddCommand(buildExportCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
