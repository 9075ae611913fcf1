// Package pathmap tracks directories renamed during a run so that paths
// discovered before the rename can be translated to their current location.
package pathmap

import (
	"os"
	"sort"
	"strings"
	"sync"
)

// Resolver translates a discovery-time path into its current path.
type Resolver interface {
	Resolve(path string) string
}

// Index is the run-scoped map from original directory path to renamed path.
// It is written only by the sequential directory phase; parallel file workers
// read through a Snapshot taken after all directory writes for their chunk.
type Index struct {
	mu     sync.RWMutex
	order  []string          // insertion order
	sorted []string          // keys sorted by length descending
	dirs   map[string]string // original -> renamed
}

// NewIndex creates an empty index.
func NewIndex() *Index {
	return &Index{dirs: make(map[string]string)}
}

// Record registers a successful directory rename. Recording the same original
// path twice keeps the latest mapping.
func (x *Index) Record(original, renamed string) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.dirs[original]; !ok {
		x.order = append(x.order, original)
		x.sorted = append(x.sorted, original)
		sort.Slice(x.sorted, func(i, j int) bool {
			return len(x.sorted[i]) > len(x.sorted[j])
		})
	}

	x.dirs[original] = renamed
}

// Resolve substitutes the longest recorded prefix of path, if any. A single
// substitution is applied; mappings are never chained transitively, since
// entries processed in discovery order already produce paths consistent with
// prior renames.
func (x *Index) Resolve(path string) string {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return resolve(path, x.sorted, x.dirs)
}

// Len returns the number of recorded renames.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return len(x.dirs)
}

// Snapshot returns an immutable view of the index for the parallel file
// phase. Later Record calls do not affect the snapshot.
func (x *Index) Snapshot() Snapshot {
	x.mu.RLock()
	defer x.mu.RUnlock()

	dirs := make(map[string]string, len(x.dirs))
	for k, v := range x.dirs {
		dirs[k] = v
	}

	return Snapshot{
		sorted: append([]string(nil), x.sorted...),
		dirs:   dirs,
	}
}

// Snapshot is a read-only copy of an Index, safe for concurrent use without
// locking.
type Snapshot struct {
	sorted []string
	dirs   map[string]string
}

// Resolve behaves like Index.Resolve against the snapshotted state.
func (s Snapshot) Resolve(path string) string {
	return resolve(path, s.sorted, s.dirs)
}

func resolve(path string, sorted []string, dirs map[string]string) string {
	sep := string(os.PathSeparator)

	for _, key := range sorted {
		if path == key {
			return dirs[key]
		}
		if strings.HasPrefix(path, key+sep) {
			return dirs[key] + path[len(key):]
		}
	}

	return path
}
