package sanitizer

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// RenamePlan is the proposed transformation for one filesystem entry.
// Only the leaf name changes; the containing directory stays the same.
type RenamePlan struct {
	OriginalPath string
	OriginalName string
	NewName      string
	NewPath      string
	NeedsChange  bool
}

// ConflictKind classifies a detected conflict.
type ConflictKind string

const (
	// ConflictDuplicate means two or more plans in the batch resolve to the
	// same case-insensitive target path.
	ConflictDuplicate ConflictKind = "Duplicate"
	// ConflictExisting means a plan's target already exists on disk.
	ConflictExisting ConflictKind = "Existing"
)

// Conflict describes one detected conflict and the source paths involved.
type Conflict struct {
	Kind       ConflictKind
	TargetPath string
	Sources    []string
	Reason     string
}

// DetectConflicts flags duplicate targets within the batch and pre-existing
// targets on disk. Target comparison is case-insensitive. When force is true,
// Existing conflicts are suppressed; Duplicate conflicts never are, since two
// sources cannot both become the same target.
func DetectConflicts(plans []RenamePlan, force bool) []Conflict {
	var conflicts []Conflict

	for target, sources := range DuplicateTargets(plans) {
		conflicts = append(conflicts, Conflict{
			Kind:       ConflictDuplicate,
			TargetPath: target,
			Sources:    sources,
			Reason:     fmt.Sprintf("%d entries resolve to the same target", len(sources)),
		})
	}

	if !force {
		for _, p := range plans {
			if !p.NeedsChange {
				continue
			}

			if _, err := os.Stat(p.NewPath); err == nil && !strings.EqualFold(p.NewPath, p.OriginalPath) {
				conflicts = append(conflicts, Conflict{
					Kind:       ConflictExisting,
					TargetPath: p.NewPath,
					Sources:    []string{p.OriginalPath},
					Reason:     "target path already exists",
				})
			}
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		return conflicts[i].TargetPath < conflicts[j].TargetPath
	})

	return conflicts
}

// DuplicateTargets returns, for every case-insensitive target path claimed by
// more than one plan, the original paths competing for it. The map key is the
// lowercased target path.
func DuplicateTargets(plans []RenamePlan) map[string][]string {
	byTarget := make(map[string][]string)
	for _, p := range plans {
		if !p.NeedsChange {
			continue
		}
		key := strings.ToLower(p.NewPath)
		byTarget[key] = append(byTarget[key], p.OriginalPath)
	}

	for key, sources := range byTarget {
		if len(sources) < 2 {
			delete(byTarget, key)
			continue
		}
		sort.Strings(sources)
	}

	return byTarget
}
