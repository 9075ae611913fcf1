// Package safepath provides path containment validation to ensure rename
// and copy operations never escape the designated root directory.
package safepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrPathEscape indicates an attempt to access a path outside the root.
	ErrPathEscape = errors.New("path escapes root directory")
	// ErrInvalidRoot indicates the root path is invalid.
	ErrInvalidRoot = errors.New("invalid root directory")
)

// Validator ensures all paths are contained within a root directory.
type Validator struct {
	root string // absolute, cleaned root path
}

// New creates a Validator for the given root, which must be an existing
// directory.
func New(root string) (*Validator, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	cleanRoot := filepath.Clean(absRoot)

	info, err := os.Stat(cleanRoot)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory", ErrInvalidRoot)
	}

	return &Validator{root: cleanRoot}, nil
}

// Root returns the absolute root directory.
func (v *Validator) Root() string {
	return v.root
}

// ValidatePath returns ErrPathEscape when path resolves outside the root.
func (v *Validator) ValidatePath(path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("%w: cannot resolve path", ErrPathEscape)
	}

	if !isSubPath(v.root, filepath.Clean(absPath)) {
		return fmt.Errorf("%w: %s", ErrPathEscape, path)
	}

	return nil
}

// SafeRename renames oldPath to newPath after checking both sides are inside
// the root.
func (v *Validator) SafeRename(oldPath, newPath string) error {
	if err := v.ValidatePath(oldPath); err != nil {
		return err
	}
	if err := v.ValidatePath(newPath); err != nil {
		return err
	}

	return os.Rename(oldPath, newPath)
}

// isSubPath reports whether path equals root or lives beneath it.
func isSubPath(root, path string) bool {
	if path == root {
		return true
	}

	return strings.HasPrefix(path, root+string(os.PathSeparator))
}
