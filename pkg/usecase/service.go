// Package usecase provides application-level orchestration for CLI
// workflows, free of cobra dependencies.
package usecase

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/filelock"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/ledger"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/optimizer"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/pathmap"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/planner"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/progress"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/report"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/safepath"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/sanitizer"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/transcode"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/undo"
)

// DefaultUndoLogName is written into the run root when no path is given.
const DefaultUndoLogName = "vttassets-undo.json"

var defaultSkipNames = []string{".DS_Store", "Thumbs.db"}

// Service orchestrates command workflows.
type Service struct{}

// New creates a use-case service.
func New() *Service {
	return &Service{}
}

// OptimizeRequest contains inputs for the optimize workflow.
type OptimizeRequest struct {
	Root          string
	Options       sanitizer.Options
	DryRun        bool
	Recurse       bool
	Parallel      bool
	ThrottleLimit int
	ChunkSize     int
	OutputRoot    string
	UndoLogPath   string
	IncludeExt    []string
	ExcludeExt    []string
	OnProgress    progress.Callback
}

// OptimizeExecution contains optimize workflow outputs.
type OptimizeExecution struct {
	RootDir     string
	Summary     optimizer.Summary
	Records     []optimizer.OperationRecord
	UndoLogPath string
	Duration    time.Duration
}

// RunOptimize executes the full optimize workflow: discovery, the sequential
// directory phase, chunked (optionally parallel) file phases, and the undo
// ledger write.
func (s *Service) RunOptimize(req OptimizeRequest) (OptimizeExecution, error) {
	start := time.Now()

	v, err := safepath.New(req.Root)
	if err != nil {
		return OptimizeExecution{}, err
	}
	root := v.Root()

	throttle, err := resolveThrottle(req.ThrottleLimit, optimizer.MaxThrottle, optimizer.ValidateThrottle)
	if err != nil {
		return OptimizeExecution{}, err
	}

	outputRoot := ""
	if req.OutputRoot != "" {
		outputRoot, err = filepath.Abs(req.OutputRoot)
		if err != nil {
			return OptimizeExecution{}, fmt.Errorf("cannot resolve output root: %w", err)
		}
	}

	undoLogPath := req.UndoLogPath
	if undoLogPath == "" {
		undoLogPath = filepath.Join(root, DefaultUndoLogName)
	}

	// Advisory lock for in-place runs only; copy mode never mutates the
	// source tree.
	if !req.DryRun && outputRoot == "" {
		lock, lockErr := filelock.LockRoot(root)
		if lockErr != nil {
			return OptimizeExecution{}, lockErr
		}
		defer lock.Close()
	}

	filter := planner.Filter{
		IncludeExt: req.IncludeExt,
		ExcludeExt: req.ExcludeExt,
		SkipNames: append(append([]string(nil), defaultSkipNames...),
			filelock.LockFileName,
			filepath.Base(undoLogPath),
			filepath.Base(undo.ResultsLogPath(undoLogPath))),
	}

	plan, err := planner.Discover(root, req.Recurse, req.ChunkSize, filter)
	if err != nil {
		return OptimizeExecution{}, err
	}

	exec := optimizer.NewExecutor(v, req.Options, req.DryRun)
	if outputRoot != "" {
		exec.SetOutputRoot(outputRoot)
	}
	exec.SetDuplicates(duplicateSet(plan, req.Options))

	index := pathmap.NewIndex()
	records := make([]optimizer.OperationRecord, 0, len(plan.Directories)+plan.TotalFiles)

	total := plan.TotalFiles
	if outputRoot == "" {
		total += len(plan.Directories)
	}
	done := 0

	// Directory phase: strictly sequential, strictly before any file
	// parallelism. This ordering is what keeps the rename index a read-only
	// snapshot for file workers.
	if outputRoot == "" {
		for _, dir := range plan.Directories {
			records = append(records, exec.ProcessDirectory(dir, index))
			done++
			progress.Emit(req.OnProgress, "directories", done, total)
		}
	}

	for _, files := range plan.Chunks {
		if req.Parallel && len(files) > 1 {
			snapshot := index.Snapshot()
			records = append(records, optimizer.RunParallel(files, exec, snapshot, throttle)...)
		} else {
			for _, f := range files {
				records = append(records, exec.ProcessFile(f, index))
			}
		}

		done += len(files)
		progress.Emit(req.OnProgress, "files", done, total)
	}

	execution := OptimizeExecution{
		RootDir:  root,
		Summary:  optimizer.Summarize(records),
		Records:  records,
		Duration: time.Since(start),
	}

	if !req.DryRun && outputRoot == "" && execution.Summary.Renamed > 0 {
		led := ledger.Build(root, req.Options, records)
		if err := led.Save(undoLogPath); err != nil {
			return execution, err
		}
		execution.UndoLogPath = undoLogPath
	}

	return execution, nil
}

// UndoRequest contains inputs for the undo workflow.
type UndoRequest struct {
	LedgerPath string
	Force      bool
	DryRun     bool
	BackupPath string
}

// UndoExecution contains undo workflow outputs.
type UndoExecution struct {
	RootDir        string
	RunID          string
	Summary        undo.Summary
	ResultsLogPath string
	Duration       time.Duration
}

// RunUndo loads the ledger and drives the two-phase restore.
func (s *Service) RunUndo(req UndoRequest) (UndoExecution, error) {
	start := time.Now()

	led, err := ledger.Load(req.LedgerPath)
	if err != nil {
		return UndoExecution{}, err
	}

	if !req.DryRun {
		if info, statErr := os.Stat(led.Metadata.RootPath); statErr == nil && info.IsDir() {
			lock, lockErr := filelock.LockRoot(led.Metadata.RootPath)
			if lockErr != nil {
				return UndoExecution{}, lockErr
			}
			defer lock.Close()
		}
	}

	engine := &undo.Engine{
		Force:       req.Force,
		DryRun:      req.DryRun,
		BackupPath:  req.BackupPath,
		ResultsPath: undo.ResultsLogPath(req.LedgerPath),
	}

	summary, err := engine.Run(led)
	if err != nil {
		return UndoExecution{}, err
	}

	execution := UndoExecution{
		RootDir:  led.Metadata.RootPath,
		RunID:    led.Metadata.RunID,
		Summary:  *summary,
		Duration: time.Since(start),
	}
	if !req.DryRun {
		execution.ResultsLogPath = engine.ResultsPath
	}

	return execution, nil
}

// TranscodeRequest contains inputs for the transcode workflow.
type TranscodeRequest struct {
	Root          string
	Profile       string
	OutputRoot    string
	Force         bool
	DryRun        bool
	Recurse       bool
	ThrottleLimit int
	OnProgress    progress.Callback
}

// TranscodeSummary aggregates transcode outcomes.
type TranscodeSummary struct {
	Total     int
	Converted int
	Skipped   int
	Failed    int
	WhatIf    int
	SrcBytes  int64
	DstBytes  int64
}

// TranscodeExecution contains transcode workflow outputs.
type TranscodeExecution struct {
	RootDir  string
	Profile  string
	Summary  TranscodeSummary
	Results  []transcode.Result
	Duration time.Duration
}

// RunTranscode converts every matching media file through the external
// encoder on a bounded worker pool.
func (s *Service) RunTranscode(ctx context.Context, req TranscodeRequest) (TranscodeExecution, error) {
	start := time.Now()

	v, err := safepath.New(req.Root)
	if err != nil {
		return TranscodeExecution{}, err
	}
	root := v.Root()

	profile, err := transcode.ProfileFor(req.Profile)
	if err != nil {
		return TranscodeExecution{}, err
	}

	throttle, err := resolveThrottle(req.ThrottleLimit, transcode.MaxThrottle, transcode.ValidateThrottle)
	if err != nil {
		return TranscodeExecution{}, err
	}

	outputRoot := ""
	if req.OutputRoot != "" {
		outputRoot, err = filepath.Abs(req.OutputRoot)
		if err != nil {
			return TranscodeExecution{}, fmt.Errorf("cannot resolve output root: %w", err)
		}
	}

	filter := planner.Filter{
		IncludeExt: profile.InputExts,
		SkipNames:  append([]string(nil), defaultSkipNames...),
	}

	plan, err := planner.Discover(root, req.Recurse, 0, filter)
	if err != nil {
		return TranscodeExecution{}, err
	}

	paths := make([]string, 0, plan.TotalFiles)
	for _, f := range plan.Files {
		paths = append(paths, f.Path)
	}

	tr := transcode.New(req.Force, req.DryRun)
	results := tr.RunBatch(ctx, root, outputRoot, paths, profile, throttle)
	progress.Emit(req.OnProgress, "transcoding", len(results), len(paths))

	summary := TranscodeSummary{Total: len(results)}
	for _, res := range results {
		switch res.Status {
		case transcode.StatusConverted:
			summary.Converted++
		case transcode.StatusSkipped:
			summary.Skipped++
		case transcode.StatusFailed:
			summary.Failed++
		case transcode.StatusWhatIf:
			summary.WhatIf++
		}
		summary.SrcBytes += res.SrcBytes
		summary.DstBytes += res.DstBytes
	}

	return TranscodeExecution{
		RootDir:  root,
		Profile:  profile.Name,
		Summary:  summary,
		Results:  results,
		Duration: time.Since(start),
	}, nil
}

// ExportRequest contains inputs for the export workflow.
type ExportRequest struct {
	LedgerPath string
	OutputPath string
	Format     string
}

// RunExport renders a persisted ledger to CSV or JSON.
func (s *Service) RunExport(req ExportRequest) error {
	led, err := ledger.Load(req.LedgerPath)
	if err != nil {
		return err
	}

	return report.Export(led, req.OutputPath, req.Format)
}

// duplicateSet precomputes the batch-wide duplicate targets over every
// planned entry, keyed the same way the executor checks them.
func duplicateSet(plan *planner.Plan, opts sanitizer.Options) map[string]struct{} {
	entries := make([]planner.Entry, 0, len(plan.Directories)+len(plan.Files))
	entries = append(entries, plan.Directories...)
	entries = append(entries, plan.Files...)

	dups := sanitizer.DuplicateTargets(optimizer.PlanEntries(entries, opts))

	set := make(map[string]struct{}, len(dups))
	for key := range dups {
		set[key] = struct{}{}
	}

	return set
}

func resolveThrottle(requested, max int, validate func(int) error) (int, error) {
	if requested == 0 {
		return min(runtime.NumCPU(), max), nil
	}

	if err := validate(requested); err != nil {
		return 0, err
	}

	return requested, nil
}
