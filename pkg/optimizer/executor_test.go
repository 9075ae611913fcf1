package optimizer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresyuhnke/ConvertVTTAssets/internal/testutil"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/pathmap"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/planner"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/safepath"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/sanitizer"
)

func newTestExecutor(t *testing.T, root string, dryRun bool) *Executor {
	t.Helper()

	v, err := safepath.New(root)
	require.NoError(t, err)

	return NewExecutor(v, sanitizer.DefaultOptions(), dryRun)
}

func entryFor(t *testing.T, path string) planner.Entry {
	t.Helper()

	info, err := os.Stat(path)
	require.NoError(t, err)

	e := planner.Entry{
		Path:    path,
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
	if !e.IsDir {
		e.Ext = filepath.Ext(path)
	}
	return e
}

func TestProcessFileRename(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Dungeon Map.PNG")
	testutil.CreateFile(t, src, "pixels")

	exec := newTestExecutor(t, root, false)
	rec := exec.ProcessFile(entryFor(t, src), pathmap.NewIndex())

	assert.Equal(t, StatusSuccess, rec.Status)
	assert.Equal(t, "dungeon_map.png", rec.NewName)
	assert.False(t, testutil.Exists(t, src))
	assert.True(t, testutil.Exists(t, filepath.Join(root, "dungeon_map.png")))
	assert.Equal(t, TypeFile, rec.Type)
	assert.Equal(t, int64(len("pixels")), rec.FileSize)
}

func TestProcessFileAlreadyOptimized(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "dungeon_map.png")
	testutil.CreateFile(t, src, "pixels")

	exec := newTestExecutor(t, root, false)
	rec := exec.ProcessFile(entryFor(t, src), pathmap.NewIndex())

	assert.Equal(t, StatusAlreadyOptimized, rec.Status)
	assert.True(t, testutil.Exists(t, src))
}

func TestProcessFileWhatIfDoesNotTouchDisk(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Dungeon Map.png")
	testutil.CreateFile(t, src, "pixels")

	exec := newTestExecutor(t, root, true)
	rec := exec.ProcessFile(entryFor(t, src), pathmap.NewIndex())

	assert.Equal(t, StatusWhatIf, rec.Status)
	assert.Equal(t, "dungeon_map.png", rec.NewName)
	assert.True(t, testutil.Exists(t, src))
	assert.False(t, testutil.Exists(t, filepath.Join(root, "dungeon_map.png")))
}

func TestProcessFileSkipsExistingTarget(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Dungeon Map.png")
	testutil.CreateFile(t, src, "pixels")
	testutil.CreateFile(t, filepath.Join(root, "dungeon_map.png"), "occupied")

	exec := newTestExecutor(t, root, false)
	rec := exec.ProcessFile(entryFor(t, src), pathmap.NewIndex())

	assert.Equal(t, StatusSkipped, rec.Status)
	assert.Contains(t, rec.Error, "already exists")
	assert.True(t, testutil.Exists(t, src))
}

func TestProcessFileForceOverwritesExistingTarget(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "Dungeon Map.png")
	testutil.CreateFile(t, src, "pixels")
	testutil.CreateFile(t, filepath.Join(root, "dungeon_map.png"), "occupied")

	v, err := safepath.New(root)
	require.NoError(t, err)

	opts := sanitizer.DefaultOptions()
	opts.Force = true
	exec := NewExecutor(v, opts, false)

	rec := exec.ProcessFile(entryFor(t, src), pathmap.NewIndex())

	assert.Equal(t, StatusSuccess, rec.Status)
	data, err := os.ReadFile(filepath.Join(root, "dungeon_map.png"))
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestProcessFileSkipsBatchDuplicates(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "Token!.png")
	b := filepath.Join(root, "Token?.png")
	testutil.CreateFile(t, a, "a")
	testutil.CreateFile(t, b, "b")

	exec := newTestExecutor(t, root, false)
	exec.SetDuplicates(map[string]struct{}{
		DuplicateKey(a, "token.png"): {},
		DuplicateKey(b, "token.png"): {},
	})

	idx := pathmap.NewIndex()
	recA := exec.ProcessFile(entryFor(t, a), idx)
	recB := exec.ProcessFile(entryFor(t, b), idx)

	assert.Equal(t, StatusSkipped, recA.Status)
	assert.Equal(t, StatusSkipped, recB.Status)
	assert.Contains(t, recA.Error, "duplicate target")
	assert.True(t, testutil.Exists(t, a))
	assert.True(t, testutil.Exists(t, b))
}

func TestProcessDirectoryUpdatesIndexBeforeFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Old Maps")
	file := filepath.Join(dir, "City Map.png")
	testutil.CreateFile(t, file, "pixels")

	dirEntry := entryFor(t, dir)
	fileEntry := entryFor(t, file)

	exec := newTestExecutor(t, root, false)
	idx := pathmap.NewIndex()

	dirRec := exec.ProcessDirectory(dirEntry, idx)
	require.Equal(t, StatusSuccess, dirRec.Status)
	assert.Equal(t, filepath.Join(root, "old_maps"), dirRec.NewPath)
	assert.Equal(t, 1, idx.Len())

	// The file's discovery-time path is stale; resolution through the index
	// must reflect the directory's new name.
	fileRec := exec.ProcessFile(fileEntry, idx)
	require.Equal(t, StatusSuccess, fileRec.Status)
	assert.Equal(t, filepath.Join(root, "old_maps", "City Map.png"), fileRec.OriginalPath)
	assert.True(t, testutil.Exists(t, filepath.Join(root, "old_maps", "city_map.png")))
}

func TestProcessFileSkipsWhenResolvedPathMissing(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "Gone Dir", "token.png")
	testutil.CreateFile(t, file, "pixels")

	fileEntry := entryFor(t, file)
	require.NoError(t, os.RemoveAll(filepath.Join(root, "Gone Dir")))

	exec := newTestExecutor(t, root, false)
	rec := exec.ProcessFile(fileEntry, pathmap.NewIndex())

	assert.Equal(t, StatusSkipped, rec.Status)
	assert.Equal(t, "parent directory was renamed", rec.Error)
}

func TestProcessDirectoryWhatIfLeavesIndexEmpty(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Old Maps")
	testutil.CreateDir(t, dir)

	exec := newTestExecutor(t, root, true)
	idx := pathmap.NewIndex()

	rec := exec.ProcessDirectory(entryFor(t, dir), idx)

	assert.Equal(t, StatusWhatIf, rec.Status)
	assert.Equal(t, 0, idx.Len())
	assert.True(t, testutil.Exists(t, dir))
}

func TestProcessFileCopyMode(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()
	src := filepath.Join(root, "Maps", "City Map.png")
	testutil.CreateFile(t, src, "pixels")

	exec := newTestExecutor(t, root, false)
	exec.SetOutputRoot(out)

	rec := exec.ProcessFile(entryFor(t, src), pathmap.NewIndex())

	require.Equal(t, StatusSuccess, rec.Status)
	assert.Equal(t, filepath.Join(out, "Maps", "city_map.png"), rec.NewPath)
	assert.True(t, testutil.Exists(t, src), "copy mode must not mutate the source tree")

	data, err := os.ReadFile(rec.NewPath)
	require.NoError(t, err)
	assert.Equal(t, "pixels", string(data))
}

func TestProcessDirectorySkippedInCopyMode(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Old Maps")
	testutil.CreateDir(t, dir)

	exec := newTestExecutor(t, root, false)
	exec.SetOutputRoot(t.TempDir())

	rec := exec.ProcessDirectory(entryFor(t, dir), pathmap.NewIndex())

	assert.Equal(t, StatusSkipped, rec.Status)
	assert.True(t, testutil.Exists(t, dir))
}

func TestOperationIDsAreMonotonic(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "A File.png")
	b := filepath.Join(root, "B File.png")
	testutil.CreateFile(t, a, "a")
	testutil.CreateFile(t, b, "b")

	exec := newTestExecutor(t, root, false)
	idx := pathmap.NewIndex()

	recA := exec.ProcessFile(entryFor(t, a), idx)
	recB := exec.ProcessFile(entryFor(t, b), idx)

	assert.Less(t, recA.OperationID, recB.OperationID)
}
