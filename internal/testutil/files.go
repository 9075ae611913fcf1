// Package testutil provides filesystem fixtures for tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// CreateFile writes content to path, creating parent directories as needed.
func CreateFile(t *testing.T, path, content string) {
	t.Helper()

	err := os.MkdirAll(filepath.Dir(path), 0o755)
	require.NoError(t, err)

	err = os.WriteFile(path, []byte(content), 0o644)
	require.NoError(t, err)
}

// CreateFileWithModTime writes content to path and sets its modification
// time.
func CreateFileWithModTime(t *testing.T, path, content string, modTime time.Time) {
	t.Helper()

	CreateFile(t, path, content)

	err := os.Chtimes(path, modTime, modTime)
	require.NoError(t, err)
}

// CreateDir creates a directory and all parents.
func CreateDir(t *testing.T, path string) {
	t.Helper()

	err := os.MkdirAll(path, 0o755)
	require.NoError(t, err)
}

// Exists reports whether path exists.
func Exists(t *testing.T, path string) bool {
	t.Helper()

	_, err := os.Stat(path)
	if err == nil {
		return true
	}

	require.True(t, os.IsNotExist(err))
	return false
}
