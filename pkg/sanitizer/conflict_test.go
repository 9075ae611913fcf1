package sanitizer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresyuhnke/ConvertVTTAssets/internal/testutil"
)

func planFor(dir, original, renamed string) RenamePlan {
	return RenamePlan{
		OriginalPath: filepath.Join(dir, original),
		OriginalName: original,
		NewName:      renamed,
		NewPath:      filepath.Join(dir, renamed),
		NeedsChange:  original != renamed,
	}
}

func TestDetectConflictsDuplicate(t *testing.T) {
	dir := t.TempDir()

	// Both names sanitize to the same target.
	plans := []RenamePlan{
		planFor(dir, "Token!.png", "token.png"),
		planFor(dir, "Token?.png", "token.png"),
	}

	conflicts := DetectConflicts(plans, false)

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDuplicate, conflicts[0].Kind)
	assert.Len(t, conflicts[0].Sources, 2)
	assert.Contains(t, conflicts[0].Sources, filepath.Join(dir, "Token!.png"))
	assert.Contains(t, conflicts[0].Sources, filepath.Join(dir, "Token?.png"))
}

func TestDetectConflictsDuplicateCaseInsensitive(t *testing.T) {
	dir := t.TempDir()

	plans := []RenamePlan{
		planFor(dir, "a.png", "Token.png"),
		planFor(dir, "b.png", "token.png"),
	}

	conflicts := DetectConflicts(plans, false)

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDuplicate, conflicts[0].Kind)
}

func TestDetectConflictsDuplicateSurvivesForce(t *testing.T) {
	dir := t.TempDir()

	plans := []RenamePlan{
		planFor(dir, "Token!.png", "token.png"),
		planFor(dir, "Token?.png", "token.png"),
	}

	conflicts := DetectConflicts(plans, true)

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictDuplicate, conflicts[0].Kind)
}

func TestDetectConflictsExisting(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFile(t, filepath.Join(dir, "token.png"), "existing")

	plans := []RenamePlan{planFor(dir, "Token!.png", "token.png")}

	conflicts := DetectConflicts(plans, false)

	require.Len(t, conflicts, 1)
	assert.Equal(t, ConflictExisting, conflicts[0].Kind)
	assert.Equal(t, filepath.Join(dir, "token.png"), conflicts[0].TargetPath)
}

func TestDetectConflictsExistingSuppressedByForce(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFile(t, filepath.Join(dir, "token.png"), "existing")

	plans := []RenamePlan{planFor(dir, "Token!.png", "token.png")}

	assert.Empty(t, DetectConflicts(plans, true))
}

func TestDetectConflictsOwnSourceIsNotExisting(t *testing.T) {
	dir := t.TempDir()
	testutil.CreateFile(t, filepath.Join(dir, "Token.png"), "content")

	// Case-only rename: the "existing" target is the plan's own source on a
	// case-insensitive filesystem.
	plans := []RenamePlan{planFor(dir, "Token.png", "token.png")}

	for _, c := range DetectConflicts(plans, false) {
		assert.NotEqual(t, ConflictExisting, c.Kind)
	}
}

func TestDuplicateTargetsIgnoresUnchangedPlans(t *testing.T) {
	dir := t.TempDir()

	plans := []RenamePlan{
		planFor(dir, "token.png", "token.png"),
		planFor(dir, "Token!.png", "token.png"),
	}

	// The unchanged plan does not claim its target, so there is no duplicate.
	assert.Empty(t, DuplicateTargets(plans))
}
