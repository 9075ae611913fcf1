package optimizer

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/pathmap"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/planner"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/safepath"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/sanitizer"
)

// skipParentRenamed is recorded when an entry's resolved path no longer
// exists because an ancestor directory was renamed at a different nesting
// level. A second optimize pass picks these entries up.
const skipParentRenamed = "parent directory was renamed"

// Executor applies one rename (or copy) per call and emits an operation
// record. It is safe for concurrent ProcessFile calls; ProcessDirectory must
// run on the sequential directory phase only.
type Executor struct {
	opts       sanitizer.Options
	dryRun     bool
	validator  *safepath.Validator
	outputRoot string
	duplicates map[string]struct{}
	ids        atomic.Int64
}

// NewExecutor creates an executor rooted at the validator's directory.
func NewExecutor(v *safepath.Validator, opts sanitizer.Options, dryRun bool) *Executor {
	return &Executor{
		opts:      opts,
		dryRun:    dryRun,
		validator: v,
	}
}

// SetOutputRoot switches the executor into copy mode: entries are copied to
// a mirrored relative path under dir instead of renamed in place.
func (e *Executor) SetOutputRoot(dir string) {
	e.outputRoot = dir
}

// SetDuplicates installs the batch-wide duplicate-target set computed from
// the full plan. Keys are produced by DuplicateKey.
func (e *Executor) SetDuplicates(dups map[string]struct{}) {
	e.duplicates = dups
}

// PlanFor computes the proposed rename for one path.
func PlanFor(currentPath string, isDir bool, opts sanitizer.Options) sanitizer.RenamePlan {
	name := filepath.Base(currentPath)
	base, ext := sanitizer.SplitName(name, isDir)
	newName := sanitizer.Sanitize(base, ext, opts)

	return sanitizer.RenamePlan{
		OriginalPath: currentPath,
		OriginalName: name,
		NewName:      newName,
		NewPath:      filepath.Join(filepath.Dir(currentPath), newName),
		NeedsChange:  newName != name,
	}
}

// PlanEntries computes proposed renames for all entries against their
// discovery-time paths.
func PlanEntries(entries []planner.Entry, opts sanitizer.Options) []sanitizer.RenamePlan {
	plans := make([]sanitizer.RenamePlan, 0, len(entries))
	for _, entry := range entries {
		plans = append(plans, PlanFor(entry.Path, entry.IsDir, opts))
	}
	return plans
}

// DuplicateKey identifies a rename target independent of any directory
// remapping: two entries collide iff they share a discovery-time parent and a
// sanitized name, so the key is built from those.
func DuplicateKey(discoveryPath, newName string) string {
	return strings.ToLower(filepath.Join(filepath.Dir(discoveryPath), newName))
}

// ProcessDirectory processes one directory entry. On a successful rename the
// shared index is updated before returning, so every later resolution in the
// run sees the new mapping.
func (e *Executor) ProcessDirectory(entry planner.Entry, index *pathmap.Index) OperationRecord {
	rec := e.newRecord(TypeDirectory, entry)

	if e.outputRoot != "" {
		return e.finishSkip(rec, "output mode copies files only")
	}

	current := index.Resolve(entry.Path)
	rec.OriginalPath = current
	rec.OriginalName = filepath.Base(current)
	rec.ParentDirectory = filepath.Dir(current)

	if _, err := os.Stat(current); err != nil {
		return e.finishSkip(rec, skipParentRenamed)
	}

	plan := PlanFor(current, true, e.opts)
	rec.NewName = plan.NewName
	rec.NewPath = plan.NewPath

	if !plan.NeedsChange {
		rec.Status = StatusAlreadyOptimized
		return rec
	}

	if reason, conflicted := e.conflictReason(entry, plan); conflicted {
		return e.finishSkip(rec, reason)
	}

	if e.dryRun {
		rec.Status = StatusWhatIf
		return rec
	}

	if err := e.validator.SafeRename(current, plan.NewPath); err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	index.Record(current, plan.NewPath)
	rec.Status = StatusSuccess
	return rec
}

// ProcessFile processes one file entry using a read-only path resolver.
func (e *Executor) ProcessFile(entry planner.Entry, res pathmap.Resolver) OperationRecord {
	rec := e.newRecord(TypeFile, entry)

	current := entry.Path
	if e.outputRoot == "" {
		current = res.Resolve(entry.Path)
	}
	rec.OriginalPath = current
	rec.OriginalName = filepath.Base(current)
	rec.ParentDirectory = filepath.Dir(current)

	if _, err := os.Stat(current); err != nil {
		if e.outputRoot != "" {
			rec.Status = StatusFailed
			rec.Error = fmt.Sprintf("cannot access source: %v", err)
			return rec
		}
		return e.finishSkip(rec, skipParentRenamed)
	}

	plan := PlanFor(current, false, e.opts)
	rec.NewName = plan.NewName

	if e.outputRoot != "" {
		return e.copyFileOut(rec, entry, plan, current)
	}

	rec.NewPath = plan.NewPath

	if !plan.NeedsChange {
		rec.Status = StatusAlreadyOptimized
		return rec
	}

	if reason, conflicted := e.conflictReason(entry, plan); conflicted {
		return e.finishSkip(rec, reason)
	}

	if e.dryRun {
		rec.Status = StatusWhatIf
		return rec
	}

	if err := e.validator.SafeRename(current, plan.NewPath); err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	rec.Status = StatusSuccess
	return rec
}

// copyFileOut copies the file onto a mirrored relative path under the output
// root. The source tree is never mutated in this mode.
func (e *Executor) copyFileOut(rec OperationRecord, entry planner.Entry, plan sanitizer.RenamePlan, current string) OperationRecord {
	rel, err := filepath.Rel(e.validator.Root(), entry.Path)
	if err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	dest := filepath.Join(e.outputRoot, filepath.Dir(rel), plan.NewName)
	rec.NewPath = dest

	if reason, conflicted := e.duplicateReason(entry, plan); conflicted {
		return e.finishSkip(rec, reason)
	}

	if _, err := os.Stat(dest); err == nil && !e.opts.Force {
		return e.finishSkip(rec, "target path already exists")
	}

	if e.dryRun {
		rec.Status = StatusWhatIf
		return rec
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	if err := copyFile(current, dest, entry.ModTime); err != nil {
		rec.Status = StatusFailed
		rec.Error = err.Error()
		return rec
	}

	rec.Status = StatusSuccess
	return rec
}

// conflictReason checks the plan against the precomputed batch duplicate set,
// then runs single-plan conflict detection against the disk. Force suppresses
// existing-target conflicts but never duplicates.
func (e *Executor) conflictReason(entry planner.Entry, plan sanitizer.RenamePlan) (string, bool) {
	if reason, conflicted := e.duplicateReason(entry, plan); conflicted {
		return reason, true
	}

	for _, c := range sanitizer.DetectConflicts([]sanitizer.RenamePlan{plan}, e.opts.Force) {
		if c.Kind == sanitizer.ConflictExisting {
			return c.Reason, true
		}
	}

	return "", false
}

func (e *Executor) duplicateReason(entry planner.Entry, plan sanitizer.RenamePlan) (string, bool) {
	if e.duplicates == nil {
		return "", false
	}

	if _, ok := e.duplicates[DuplicateKey(entry.Path, plan.NewName)]; ok {
		return fmt.Sprintf("duplicate target: multiple entries resolve to %s", plan.NewName), true
	}

	return "", false
}

func (e *Executor) newRecord(t EntryType, entry planner.Entry) OperationRecord {
	rec := OperationRecord{
		OperationID:   e.ids.Add(1),
		Type:          t,
		Timestamp:     time.Now().UTC(),
		LastWriteTime: entry.ModTime,
	}
	if t == TypeFile {
		rec.FileSize = entry.Size
	}
	return rec
}

func (e *Executor) finishSkip(rec OperationRecord, reason string) OperationRecord {
	rec.Status = StatusSkipped
	rec.Error = reason
	return rec
}

func copyFile(src, dest string, modTime time.Time) error {
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

	if err := out.Close(); err != nil {
		return err
	}

	return os.Chtimes(dest, modTime, modTime)
}
