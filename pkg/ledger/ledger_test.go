package ledger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresyuhnke/ConvertVTTAssets/internal/testutil"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/optimizer"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/sanitizer"
)

func sampleRecords(root string) []optimizer.OperationRecord {
	// A run over root/Old Maps/: the directory is renamed first, then the
	// files beneath it are processed against the remapped path.
	return []optimizer.OperationRecord{
		{
			OperationID:  1,
			Type:         optimizer.TypeDirectory,
			OriginalPath: filepath.Join(root, "Old Maps"),
			NewPath:      filepath.Join(root, "old_maps"),
			OriginalName: "Old Maps",
			NewName:      "old_maps",
			Status:       optimizer.StatusSuccess,
		},
		{
			OperationID:  2,
			Type:         optimizer.TypeFile,
			OriginalPath: filepath.Join(root, "old_maps", "City Map.png"),
			NewPath:      filepath.Join(root, "old_maps", "city_map.png"),
			OriginalName: "City Map.png",
			NewName:      "city_map.png",
			Status:       optimizer.StatusSuccess,
			FileSize:     42,
		},
		{
			OperationID:  3,
			Type:         optimizer.TypeFile,
			OriginalPath: filepath.Join(root, "readme.txt"),
			NewPath:      filepath.Join(root, "readme.txt"),
			Status:       optimizer.StatusAlreadyOptimized,
		},
	}
}

func TestBuildFiltersNonSuccessRecords(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "assets")
	led := Build(root, sanitizer.DefaultOptions(), sampleRecords(root))

	require.Len(t, led.Operations, 2)
	assert.Equal(t, 2, led.Metadata.TotalOperations)
	assert.Equal(t, root, led.Metadata.RootPath)
	assert.NotEmpty(t, led.Metadata.RunID)
}

func TestBuildDirectoryDependencies(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "assets")
	led := Build(root, sanitizer.DefaultOptions(), sampleRecords(root))

	dir := led.Operations[0]
	require.Equal(t, string(optimizer.TypeDirectory), dir.Type)

	// The file's recorded original path sits under the directory's new
	// path, so the directory depends on it.
	assert.Equal(t, []int64{2}, dir.Dependencies)

	file := led.Operations[1]
	assert.Empty(t, file.Dependencies)
	require.NotNil(t, file.FileSize)
	assert.Equal(t, int64(42), *file.FileSize)
	assert.Nil(t, dir.FileSize)
}

func TestBuildNoDependencyOnSiblingPaths(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "assets")
	records := []optimizer.OperationRecord{
		{
			OperationID:  1,
			Type:         optimizer.TypeDirectory,
			OriginalPath: filepath.Join(root, "Maps"),
			NewPath:      filepath.Join(root, "maps"),
			Status:       optimizer.StatusSuccess,
		},
		{
			OperationID:  2,
			Type:         optimizer.TypeFile,
			OriginalPath: filepath.Join(root, "mapsheet.png"),
			NewPath:      filepath.Join(root, "mapsheet.png"),
			Status:       optimizer.StatusSuccess,
		},
	}

	led := Build(root, sanitizer.DefaultOptions(), records)

	// "mapsheet.png" shares a prefix with "maps" but is not beneath it.
	assert.Empty(t, led.Operations[0].Dependencies)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	root := t.TempDir()
	led := Build(root, sanitizer.DefaultOptions(), sampleRecords(root))
	led.Metadata.Timestamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	path := filepath.Join(t.TempDir(), "undo.json")
	require.NoError(t, led.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, led.Metadata.RunID, loaded.Metadata.RunID)
	assert.Equal(t, led.Metadata.RootPath, loaded.Metadata.RootPath)
	assert.Equal(t, led.Operations, loaded.Operations)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidFormat)
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo.json")
	testutil.CreateFile(t, path, "{not json")

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestLoadRejectsMissingMetadata(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo.json")
	testutil.CreateFile(t, path, `{"operations":[{"operation_id":1}]}`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "metadata")
}

func TestLoadRejectsEmptyOperations(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo.json")
	testutil.CreateFile(t, path, `{"metadata":{"run_id":"x"},"operations":[]}`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "operations")
}

func TestLoadRejectsUnknownDependency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "undo.json")
	testutil.CreateFile(t, path, `{
		"metadata": {"run_id": "x"},
		"operations": [
			{"operation_id": 1, "type": "Directory", "dependencies": [99]}
		]
	}`)

	_, err := Load(path)
	require.ErrorIs(t, err, ErrInvalidFormat)
	assert.Contains(t, err.Error(), "unknown dependency 99")
}

func TestSaveWritesIndentedJSON(t *testing.T) {
	root := t.TempDir()
	led := Build(root, sanitizer.DefaultOptions(), sampleRecords(root))

	path := filepath.Join(t.TempDir(), "undo.json")
	require.NoError(t, led.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n  \"metadata\"")
	assert.Contains(t, string(data), `"run_id"`)
}
