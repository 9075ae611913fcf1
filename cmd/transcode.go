package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/transcode"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/usecase"
)

var (
	transcodeProfile   string
	transcodeOutput    string
	transcodeForce     bool
	transcodeThrottle  int
	transcodeNoRecurse bool
)

func buildTranscodeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcode [path]",
		Short: "Convert media files through an external encoder",
		Long: `Converts matching media files to web-efficient formats using an
external encoder (ffmpeg):
  - webp: png/jpg/jpeg/gif/bmp/tiff images
  - webm: mp4/mov/avi/mkv/m4v video

Destinations that are already newer than their source are skipped
unless --force is set. Conversions run on a bounded worker pool; a
stuck encoder stalls only its own worker slot.

Examples:
  vttassets transcode --profile webp --dry-run ./assets
  vttassets transcode --profile webm --output ./web ./assets
  vttassets transcode --profile webp --throttle 8 ./assets`,
		Args: cobra.ExactArgs(1),
		RunE: runTranscode,
	}

	cmd.Flags().StringVar(&transcodeProfile, "profile", "webp", "Conversion profile: webp or webm")
	cmd.Flags().StringVarP(&transcodeOutput, "output", "o", "", "Write converted files here instead of next to sources")
	cmd.Flags().BoolVar(&transcodeForce, "force", false, "Re-encode even when the destination is up to date")
	cmd.Flags().IntVar(&transcodeThrottle, "throttle", 0, "Worker count (1-64, default CPU count)")
	cmd.Flags().BoolVar(&transcodeNoRecurse, "no-recurse", false, "Process only the top level of the target")

	return cmd
}

func runTranscode(cmd *cobra.Command, args []string) error {
	printDryRunBanner()

	progressTicker := startProgress("transcoding")

	execution, err := usecase.New().RunTranscode(cmd.Context(), usecase.TranscodeRequest{
		Root:          args[0],
		Profile:       transcodeProfile,
		OutputRoot:    transcodeOutput,
		Force:         transcodeForce,
		DryRun:        dryRun,
		Recurse:       !transcodeNoRecurse,
		ThrottleLimit: transcodeThrottle,
	})
	progressTicker.Stop()

	if err != nil {
		return err
	}

	printCommandHeader("TRANSCODE", execution.RootDir)
	fmt.Printf("Profile: %s\n\n", execution.Profile)

	if verbose {
		for _, res := range execution.Results {
			printTranscodeResult(res)
		}
		fmt.Println()
	}

	printSummary(
		fmt.Sprintf("Total:      %d", execution.Summary.Total),
		fmt.Sprintf("Converted:  %d", execution.Summary.Converted),
		fmt.Sprintf("Skipped:    %d", execution.Summary.Skipped),
		fmt.Sprintf("Failed:     %d", execution.Summary.Failed),
		fmt.Sprintf("What-if:    %d", execution.Summary.WhatIf),
		fmt.Sprintf("Input:      %s", formatBytes(execution.Summary.SrcBytes)),
		fmt.Sprintf("Output:     %s", formatBytes(execution.Summary.DstBytes)),
	)
	printDryRunHint()

	return nil
}

func printTranscodeResult(res transcode.Result) {
	switch res.Status {
	case transcode.StatusConverted:
		fmt.Printf("CONVERT: %s -> %s (%s -> %s)\n",
			res.Source, res.Dest, formatBytes(res.SrcBytes), formatBytes(res.DstBytes))
	case transcode.StatusWhatIf:
		fmt.Printf("WOULD CONVERT: %s -> %s\n", res.Source, res.Dest)
	case transcode.StatusSkipped:
		fmt.Printf("SKIP: %s (%s)\n", res.Source, res.Error)
	case transcode.StatusFailed:
		fmt.Printf("ERROR: %s: %s\n", res.Source, res.Error)
	}
}
