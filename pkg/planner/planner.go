// Package planner walks the target tree and turns it into an execution plan:
// directories ordered deepest-first, files sorted and partitioned into
// fixed-size chunks to bound peak memory.
package planner

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Entry is one filesystem object under consideration. Entries are created
// during discovery and read-only afterward; path remapping happens at
// processing time, not here.
type Entry struct {
	Path    string
	Name    string
	IsDir   bool
	Ext     string // files only, with leading dot
	Size    int64
	ModTime time.Time
}

// Filter restricts which files are planned. Extension matching is
// case-insensitive and accepts values with or without the leading dot.
// Directories are always traversed and planned regardless of the filter.
type Filter struct {
	IncludeExt []string
	ExcludeExt []string
	SkipNames  []string
}

// Matches reports whether a file with the given extension passes the filter.
func (f Filter) Matches(ext string) bool {
	e := normalizeExt(ext)

	if len(f.IncludeExt) > 0 {
		found := false
		for _, inc := range f.IncludeExt {
			if normalizeExt(inc) == e {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	for _, exc := range f.ExcludeExt {
		if normalizeExt(exc) == e {
			return false
		}
	}

	return true
}

func (f Filter) skipName(name string) bool {
	for _, s := range f.SkipNames {
		if name == s {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	e := strings.ToLower(ext)
	if e != "" && !strings.HasPrefix(e, ".") {
		e = "." + e
	}
	return e
}

// Plan is the output of discovery.
type Plan struct {
	Root        string
	Directories []Entry   // deepest-first
	Files       []Entry   // sorted by path
	Chunks      [][]Entry // Files partitioned into chunkSize slices
	TotalFiles  int
}

// DefaultChunkSize bounds how many file entries are live at once.
const DefaultChunkSize = 1000

// Discover walks root and builds a Plan. Directories are ordered by path
// depth descending so a child directory is always renamed before its parent;
// this keeps every already-discovered child path resolvable with a single
// remap lookup. Files are sorted by full path for deterministic operation
// ordering. Only files are chunked.
func Discover(root string, recurse bool, chunkSize int, filter Filter) (*Plan, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("cannot access root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve root: %w", err)
	}

	plan := &Plan{Root: absRoot}

	if recurse {
		err = walkTree(absRoot, filter, plan)
	} else {
		err = readTopLevel(absRoot, filter, plan)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(plan.Directories, func(i, j int) bool {
		di, dj := depth(plan.Directories[i].Path), depth(plan.Directories[j].Path)
		if di != dj {
			return di > dj
		}
		return plan.Directories[i].Path < plan.Directories[j].Path
	})

	sort.Slice(plan.Files, func(i, j int) bool {
		return plan.Files[i].Path < plan.Files[j].Path
	})

	plan.TotalFiles = len(plan.Files)
	plan.Chunks = chunk(plan.Files, chunkSize)

	return plan, nil
}

func walkTree(root string, filter Filter, plan *Plan) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}

		if info.IsDir() {
			plan.Directories = append(plan.Directories, dirEntry(path, info))
			return nil
		}

		if filter.skipName(info.Name()) || !filter.Matches(filepath.Ext(path)) {
			return nil
		}

		plan.Files = append(plan.Files, fileEntry(path, info))
		return nil
	})
}

func readTopLevel(root string, filter Filter, plan *Plan) error {
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}

	for _, de := range entries {
		info, err := de.Info()
		if err != nil {
			return err
		}

		path := filepath.Join(root, de.Name())

		if de.IsDir() {
			plan.Directories = append(plan.Directories, dirEntry(path, info))
			continue
		}

		if filter.skipName(de.Name()) || !filter.Matches(filepath.Ext(path)) {
			continue
		}

		plan.Files = append(plan.Files, fileEntry(path, info))
	}

	return nil
}

func dirEntry(path string, info os.FileInfo) Entry {
	return Entry{
		Path:    path,
		Name:    info.Name(),
		IsDir:   true,
		ModTime: info.ModTime(),
	}
}

func fileEntry(path string, info os.FileInfo) Entry {
	return Entry{
		Path:    path,
		Name:    info.Name(),
		Ext:     filepath.Ext(path),
		Size:    info.Size(),
		ModTime: info.ModTime(),
	}
}

func depth(path string) int {
	return strings.Count(path, string(os.PathSeparator))
}

func chunk(files []Entry, size int) [][]Entry {
	if size <= 0 {
		size = DefaultChunkSize
	}

	var chunks [][]Entry
	for start := 0; start < len(files); start += size {
		end := min(start+size, len(files))
		chunks = append(chunks, files[start:end])
	}

	return chunks
}
