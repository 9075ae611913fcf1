// Package report renders a persisted operation log to CSV or JSON. It is a
// presentation layer over the ledger and never interprets statuses.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/andresyuhnke/ConvertVTTAssets/pkg/ledger"
)

// Formats supported by Export.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var csvHeader = []string{
	"operation_id", "type", "original_path", "new_path",
	"original_name", "new_name", "parent_directory",
	"timestamp", "last_write_time", "file_size", "dependencies",
}

// WriteCSV writes one row per operation.
func WriteCSV(w io.Writer, ops []ledger.Operation) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, op := range ops {
		size := ""
		if op.FileSize != nil {
			size = strconv.FormatInt(*op.FileSize, 10)
		}

		deps := make([]string, 0, len(op.Dependencies))
		for _, d := range op.Dependencies {
			deps = append(deps, strconv.FormatInt(d, 10))
		}

		row := []string{
			strconv.FormatInt(op.OperationID, 10),
			op.Type,
			op.OriginalPath,
			op.NewPath,
			op.OriginalName,
			op.NewName,
			op.ParentDirectory,
			op.Timestamp.Format(time.RFC3339),
			op.LastWriteTime.Format(time.RFC3339),
			size,
			strings.Join(deps, " "),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the operations as an indented JSON array.
func WriteJSON(w io.Writer, ops []ledger.Operation) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ops)
}

// Export writes the ledger's operations to path in the given format.
func Export(led *ledger.Ledger, path, format string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(format) {
	case FormatCSV:
		err = WriteCSV(f, led.Operations)
	case FormatJSON:
		err = WriteJSON(f, led.Operations)
	default:
		err = fmt.Errorf("unknown export format %q", format)
	}
	if err != nil {
		return err
	}

	return f.Close()
}
