package optimizer

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresyuhnke/ConvertVTTAssets/internal/testutil"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/pathmap"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/planner"
)

func TestValidateThrottle(t *testing.T) {
	assert.NoError(t, ValidateThrottle(1))
	assert.NoError(t, ValidateThrottle(32))
	assert.Error(t, ValidateThrottle(0))
	assert.Error(t, ValidateThrottle(33))
	assert.Error(t, ValidateThrottle(-4))
}

func TestRunParallelProcessesAllFiles(t *testing.T) {
	root := t.TempDir()

	entries := make([]planner.Entry, 0, 20)
	for i := 0; i < 20; i++ {
		path := filepath.Join(root, fmt.Sprintf("Asset %02d.png", i))
		testutil.CreateFile(t, path, "pixels")
		entries = append(entries, entryFor(t, path))
	}

	exec := newTestExecutor(t, root, false)
	records := RunParallel(entries, exec, pathmap.NewIndex().Snapshot(), 4)

	require.Len(t, records, 20)

	// Completion order is not deterministic, so compare by original path.
	seen := make(map[string]Status, len(records))
	for _, rec := range records {
		seen[rec.OriginalPath] = rec.Status
	}
	for _, entry := range entries {
		status, ok := seen[entry.Path]
		require.True(t, ok, "missing record for %s", entry.Path)
		assert.Equal(t, StatusSuccess, status)
	}

	for i := 0; i < 20; i++ {
		renamed := filepath.Join(root, fmt.Sprintf("asset_%02d.png", i))
		assert.True(t, testutil.Exists(t, renamed))
	}
}

func TestRunParallelEmptyInput(t *testing.T) {
	root := t.TempDir()
	exec := newTestExecutor(t, root, false)

	assert.Nil(t, RunParallel(nil, exec, pathmap.NewIndex().Snapshot(), 4))
}

func TestRunParallelClampsThrottleToFileCount(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "Lone Token.png")
	testutil.CreateFile(t, path, "pixels")

	exec := newTestExecutor(t, root, false)
	records := RunParallel([]planner.Entry{entryFor(t, path)}, exec, pathmap.NewIndex().Snapshot(), 32)

	require.Len(t, records, 1)
	assert.Equal(t, StatusSuccess, records[0].Status)
}

func TestPartitionCoversAllEntriesContiguously(t *testing.T) {
	entries := make([]planner.Entry, 10)
	for i := range entries {
		entries[i].Path = fmt.Sprintf("p%d", i)
	}

	batches := partition(entries, 3)

	require.Len(t, batches, 3)
	var flat []planner.Entry
	for _, b := range batches {
		flat = append(flat, b...)
	}
	assert.Equal(t, entries, flat)
}
