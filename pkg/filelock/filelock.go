// Package filelock provides advisory file locking so two optimize or undo
// runs never mutate the same root concurrently.
package filelock

import (
	"os"
	"path/filepath"
)

// LockFileName is the lock file created inside the target root for the
// duration of a mutating run.
const LockFileName = ".vttassets.lock"

// Lock represents an acquired advisory file lock.
type Lock struct {
	file *os.File
}

// LockRoot acquires the advisory lock for a target root directory.
func LockRoot(root string) (*Lock, error) {
	return Acquire(filepath.Join(root, LockFileName))
}
