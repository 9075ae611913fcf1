// Package undo replays a persisted ledger in reverse-safe order: files
// first, then directories by recorded dependency count descending. A shallow
// renamed directory accumulates the IDs of everything renamed after it
// beneath its new path, so high-count directories must be restored first for
// deeper recorded paths to become valid again.
package undo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/ledger"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/optimizer"
)

// ErrValidation indicates recorded state no longer matches the disk and the
// undo was aborted before any mutation.
var ErrValidation = errors.New("undo validation failed")

// Status is the outcome of replaying one operation.
type Status string

const (
	StatusSuccess Status = "Success"
	StatusFailed  Status = "Failed"
	StatusSkipped Status = "Skipped"
	StatusWhatIf  Status = "WhatIf"
)

// Result is the per-operation outcome of replay.
type Result struct {
	OperationID int64  `json:"operation_id"`
	Type        string `json:"type"`
	CurrentPath string `json:"current_path"`
	TargetPath  string `json:"target_path"`
	Status      Status `json:"status"`
	Error       string `json:"error,omitempty"`
}

// Summary aggregates an undo run.
type Summary struct {
	Total    int
	Restored int
	Skipped  int
	Failed   int
	WhatIf   int
	Warnings []string
	Results  []Result
}

// clockSkew is the modification-time drift tolerated before a validation
// warning is emitted.
const clockSkew = 2 * time.Second

// Engine drives the two-phase undo protocol.
type Engine struct {
	Force      bool
	DryRun     bool
	BackupPath string

	// ResultsPath, when set, receives the replay audit log after a
	// non-dry run.
	ResultsPath string
}

// ResultsLog is the persisted audit record of one replay run.
type ResultsLog struct {
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	Total     int       `json:"total"`
	Restored  int       `json:"restored"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	WhatIf    int       `json:"what_if"`
	Warnings  []string  `json:"warnings,omitempty"`
	Results   []Result  `json:"results"`
}

// ResultsLogPath derives the replay log path written next to a ledger.
func ResultsLogPath(ledgerPath string) string {
	ext := filepath.Ext(ledgerPath)
	return strings.TrimSuffix(ledgerPath, ext) + "-results" + ext
}

// Run validates the ledger against the current disk state, then replays the
// renames in reverse-safe order. Validation failures abort with zero
// mutations unless Force is set, in which case they downgrade to warnings.
// Once replay begins it always runs to completion over all operations.
func (e *Engine) Run(led *ledger.Ledger) (*Summary, error) {
	summary := &Summary{Total: len(led.Operations)}

	violations := e.validate(led, summary)
	if len(violations) > 0 {
		if !e.Force {
			return nil, fmt.Errorf("%w: %s", ErrValidation, strings.Join(violations, "; "))
		}
		summary.Warnings = append(summary.Warnings, violations...)
	}

	if e.BackupPath != "" && !e.DryRun {
		if err := e.backup(led); err != nil {
			return nil, fmt.Errorf("backup before undo: %w", err)
		}
	}

	for _, op := range replayOrder(led.Operations) {
		res := e.replayOne(op)
		summary.Results = append(summary.Results, res)

		switch res.Status {
		case StatusSuccess:
			summary.Restored++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
		case StatusWhatIf:
			summary.WhatIf++
		}
	}

	// The replay log is written whatever the outcome mix was; a write
	// failure downgrades to a warning so the completed replay is reported.
	if e.ResultsPath != "" && !e.DryRun {
		if err := saveResults(e.ResultsPath, led.Metadata.RunID, summary); err != nil {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("cannot write replay log: %v", err))
		}
	}

	return summary, nil
}

func saveResults(path, runID string, summary *Summary) error {
	log := ResultsLog{
		RunID:     runID,
		Timestamp: time.Now().UTC(),
		Total:     summary.Total,
		Restored:  summary.Restored,
		Skipped:   summary.Skipped,
		Failed:    summary.Failed,
		WhatIf:    summary.WhatIf,
		Warnings:  summary.Warnings,
		Results:   summary.Results,
	}

	data, err := json.MarshalIndent(log, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// validate is read-only. Hard violations: a recorded new path that no longer
// exists on disk, or an original path already occupied. File size or mtime
// drift is only a warning and never blocks undo. Existence is checked against
// the operation's resolved current location, not the raw recorded path: a
// directory renamed later in the run (deepest-first) carries earlier recorded
// paths along to its new location.
func (e *Engine) validate(led *ledger.Ledger, summary *Summary) []string {
	var violations []string

	current := currentPathIndex(led.Operations)

	for _, op := range led.Operations {
		cur := current[op.OperationID]

		info, err := os.Stat(cur)
		if err != nil {
			violations = append(violations,
				fmt.Sprintf("operation %d: recorded path %s no longer exists", op.OperationID, cur))
			continue
		}

		if op.Type == string(optimizer.TypeFile) {
			if op.FileSize != nil && info.Size() != *op.FileSize {
				summary.Warnings = append(summary.Warnings,
					fmt.Sprintf("operation %d: %s size changed since optimization", op.OperationID, cur))
			}
			if drift := info.ModTime().Sub(op.LastWriteTime); drift > clockSkew || drift < -clockSkew {
				summary.Warnings = append(summary.Warnings,
					fmt.Sprintf("operation %d: %s modified since optimization", op.OperationID, cur))
			}
		}

		if _, err := os.Stat(op.OriginalPath); err == nil && !strings.EqualFold(op.OriginalPath, op.NewPath) {
			violations = append(violations,
				fmt.Sprintf("operation %d: original path %s already exists", op.OperationID, op.OriginalPath))
		}
	}

	return violations
}

func (e *Engine) replayOne(op ledger.Operation) Result {
	res := Result{
		OperationID: op.OperationID,
		Type:        op.Type,
		CurrentPath: op.NewPath,
		TargetPath:  op.OriginalPath,
	}

	if _, err := os.Stat(op.NewPath); err != nil {
		res.Status = StatusSkipped
		res.Error = "current path missing"
		return res
	}

	if _, err := os.Stat(op.OriginalPath); err == nil && !strings.EqualFold(op.OriginalPath, op.NewPath) {
		if !e.Force {
			res.Status = StatusSkipped
			res.Error = "original path occupied"
			return res
		}
		if !e.DryRun {
			if err := os.RemoveAll(op.OriginalPath); err != nil {
				res.Status = StatusFailed
				res.Error = err.Error()
				return res
			}
		}
	}

	if e.DryRun {
		res.Status = StatusWhatIf
		return res
	}

	if err := os.Rename(op.NewPath, op.OriginalPath); err != nil {
		res.Status = StatusFailed
		res.Error = err.Error()
		return res
	}

	res.Status = StatusSuccess
	return res
}

// replayOrder puts files first in recorded order, then directories by
// dependency count descending. Deeper directories carry fewer recorded
// dependents, so they are restored last, mirroring the forward run's
// deepest-first rename order.
func replayOrder(ops []ledger.Operation) []ledger.Operation {
	var files, dirs []ledger.Operation

	for _, op := range ops {
		if op.Type == string(optimizer.TypeDirectory) {
			dirs = append(dirs, op)
		} else {
			files = append(files, op)
		}
	}

	sort.SliceStable(dirs, func(i, j int) bool {
		di, dj := len(dirs[i].Dependencies), len(dirs[j].Dependencies)
		if di != dj {
			return di > dj
		}
		return depth(dirs[i].NewPath) < depth(dirs[j].NewPath)
	})

	return append(files, dirs...)
}

// currentPathIndex maps each operation ID to the on-disk location of its
// recorded new path at the end of the run. Replaying directory renames in
// recorded order over the tracked paths reproduces the forward run's effect:
// a directory renamed after an operation moves that operation's recorded
// path beneath its new name.
func currentPathIndex(ops []ledger.Operation) map[int64]string {
	current := make(map[int64]string, len(ops))
	for _, op := range ops {
		current[op.OperationID] = op.NewPath
	}

	for _, dir := range ops {
		if dir.Type != string(optimizer.TypeDirectory) {
			continue
		}

		for _, op := range ops {
			if op.OperationID >= dir.OperationID {
				continue
			}
			current[op.OperationID] = substitutePrefix(current[op.OperationID], dir.OriginalPath, dir.NewPath)
		}
	}

	return current
}

// substitutePrefix rewrites path when it equals from or sits beneath it.
func substitutePrefix(path, from, to string) string {
	if path == from {
		return to
	}
	if strings.HasPrefix(path, from+string(filepath.Separator)) {
		return to + path[len(from):]
	}
	return path
}

// backup copies every still-present file recorded in the ledger into the
// backup directory, mirroring its path relative to the run root.
func (e *Engine) backup(led *ledger.Ledger) error {
	root := led.Metadata.RootPath

	for _, op := range led.Operations {
		if op.Type != string(optimizer.TypeFile) {
			continue
		}
		if _, err := os.Stat(op.NewPath); err != nil {
			continue
		}

		rel, err := filepath.Rel(root, op.NewPath)
		if err != nil {
			return err
		}

		dest := filepath.Join(e.BackupPath, rel)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return err
		}
		if err := copyFile(op.NewPath, dest); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}

	return out.Close()
}

func depth(path string) int {
	return strings.Count(path, string(filepath.Separator))
}
