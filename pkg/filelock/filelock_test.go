package filelock

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireAndClose(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NotNil(t, lock)

	_, err = os.Stat(lockPath)
	require.NoError(t, err, "lock file should exist while held")

	require.NoError(t, lock.Close())

	_, err = os.Stat(lockPath)
	assert.True(t, os.IsNotExist(err), "lock file should be removed after release")
}

func TestSecondAcquireFails(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1, err := Acquire(lockPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lock1.Close() })

	lock2, err := Acquire(lockPath)
	require.Error(t, err, "second acquire should fail while first is held")
	assert.Nil(t, lock2)
	assert.Contains(t, err.Error(), "holds the lock")
}

func TestReacquireAfterClose(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "test.lock")

	lock1, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, lock1.Close())

	lock2, err := Acquire(lockPath)
	require.NoError(t, err)
	require.NoError(t, lock2.Close())
}

func TestCloseNilLock(t *testing.T) {
	t.Parallel()

	var lock *Lock
	assert.NoError(t, lock.Close())

	assert.NoError(t, (&Lock{}).Close())
}

func TestAcquireInvalidPath(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "nonexistent", "sub", "test.lock")

	lock, err := Acquire(lockPath)
	require.Error(t, err)
	assert.Nil(t, lock)
	assert.Contains(t, err.Error(), "open lock file")
}

func TestLockRoot(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	lock, err := LockRoot(root)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(root, LockFileName))
	require.NoError(t, err)

	require.NoError(t, lock.Close())
}
