// Package ledger builds and persists the undo log: a dependency-annotated
// record of every successful rename in a run. A directory operation lists the
// IDs of all operations whose recorded original path sits beneath the
// directory's new path; undo uses those counts to order restoration.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/optimizer"
	"github.com/andresyuhnke/ConvertVTTAssets/pkg/sanitizer"
)

// ErrInvalidFormat indicates the undo log is missing required sections or
// references unknown operations.
var ErrInvalidFormat = errors.New("invalid undo log format")

// Metadata describes the run that produced the ledger.
type Metadata struct {
	RunID           string            `json:"run_id"`
	Timestamp       time.Time         `json:"timestamp"`
	RootPath        string            `json:"root_path"`
	TotalOperations int               `json:"total_operations"`
	Settings        sanitizer.Options `json:"settings"`
}

// Operation is one persisted rename.
type Operation struct {
	OperationID     int64     `json:"operation_id"`
	Type            string    `json:"type"`
	OriginalPath    string    `json:"original_path"`
	NewPath         string    `json:"new_path"`
	OriginalName    string    `json:"original_name"`
	NewName         string    `json:"new_name"`
	ParentDirectory string    `json:"parent_directory"`
	Timestamp       time.Time `json:"timestamp"`
	LastWriteTime   time.Time `json:"last_write_time"`
	FileSize        *int64    `json:"file_size"`
	Dependencies    []int64   `json:"dependencies"`
}

// Ledger is the persisted undo log.
type Ledger struct {
	Metadata   Metadata    `json:"metadata"`
	Operations []Operation `json:"operations"`
}

// Build creates a ledger from the successful operations of a run. Dependency
// computation: a directory depends on every other successful operation whose
// recorded original path lies under the directory's new path. Children are
// remapped before processing, so their recorded original paths already
// reflect the ancestor's new name.
func Build(root string, settings sanitizer.Options, records []optimizer.OperationRecord) *Ledger {
	var ops []Operation

	for _, r := range records {
		if r.Status != optimizer.StatusSuccess {
			continue
		}

		op := Operation{
			OperationID:     r.OperationID,
			Type:            string(r.Type),
			OriginalPath:    r.OriginalPath,
			NewPath:         r.NewPath,
			OriginalName:    r.OriginalName,
			NewName:         r.NewName,
			ParentDirectory: r.ParentDirectory,
			Timestamp:       r.Timestamp,
			LastWriteTime:   r.LastWriteTime,
		}
		if r.Type == optimizer.TypeFile {
			size := r.FileSize
			op.FileSize = &size
		}

		ops = append(ops, op)
	}

	for i := range ops {
		if ops[i].Type != string(optimizer.TypeDirectory) {
			continue
		}

		for j := range ops {
			if i == j {
				continue
			}
			if isUnder(ops[j].OriginalPath, ops[i].NewPath) {
				ops[i].Dependencies = append(ops[i].Dependencies, ops[j].OperationID)
			}
		}

		sort.Slice(ops[i].Dependencies, func(a, b int) bool {
			return ops[i].Dependencies[a] < ops[i].Dependencies[b]
		})
	}

	return &Ledger{
		Metadata: Metadata{
			RunID:           uuid.NewString(),
			Timestamp:       time.Now().UTC(),
			RootPath:        root,
			TotalOperations: len(ops),
			Settings:        settings,
		},
		Operations: ops,
	}
}

// Save writes the ledger as indented JSON.
func (l *Ledger) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode undo log: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write undo log: %w", err)
	}

	return nil
}

// Load reads and validates a ledger. Missing metadata, an empty operations
// list, or a dependency referencing an unknown operation ID all fail with
// ErrInvalidFormat.
func Load(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read undo log: %w", err)
	}

	var raw struct {
		Metadata   *Metadata   `json:"metadata"`
		Operations []Operation `json:"operations"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if raw.Metadata == nil {
		return nil, fmt.Errorf("%w: missing metadata section", ErrInvalidFormat)
	}
	if len(raw.Operations) == 0 {
		return nil, fmt.Errorf("%w: missing or empty operations section", ErrInvalidFormat)
	}

	known := make(map[int64]bool, len(raw.Operations))
	for _, op := range raw.Operations {
		known[op.OperationID] = true
	}
	for _, op := range raw.Operations {
		for _, dep := range op.Dependencies {
			if !known[dep] {
				return nil, fmt.Errorf("%w: operation %d references unknown dependency %d",
					ErrInvalidFormat, op.OperationID, dep)
			}
		}
	}

	return &Ledger{Metadata: *raw.Metadata, Operations: raw.Operations}, nil
}

func isUnder(path, dir string) bool {
	return strings.HasPrefix(path, dir+string(filepath.Separator))
}
