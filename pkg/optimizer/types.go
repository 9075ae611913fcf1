// Package optimizer applies sanitization renames to a planned tree and
// records a structured operation log for reporting and undo.
package optimizer

import (
	"time"
)

// Status is the outcome of one attempted operation.
type Status string

const (
	StatusSuccess          Status = "Success"
	StatusFailed           Status = "Failed"
	StatusSkipped          Status = "Skipped"
	StatusAlreadyOptimized Status = "AlreadyOptimized"
	StatusWhatIf           Status = "WhatIf"
)

// EntryType distinguishes file from directory operations.
type EntryType string

const (
	TypeFile      EntryType = "File"
	TypeDirectory EntryType = "Directory"
)

// OperationRecord is the immutable result of attempting one rename or copy.
type OperationRecord struct {
	OperationID     int64
	Type            EntryType
	OriginalPath    string
	NewPath         string
	OriginalName    string
	NewName         string
	Status          Status
	Error           string
	Timestamp       time.Time
	ParentDirectory string
	LastWriteTime   time.Time
	FileSize        int64 // files only
}

// Summary aggregates outcomes per status.
type Summary struct {
	Total            int
	Renamed          int
	Skipped          int
	Failed           int
	AlreadyOptimized int
	WhatIf           int
}

// Summarize counts records by status.
func Summarize(records []OperationRecord) Summary {
	s := Summary{Total: len(records)}

	for _, r := range records {
		switch r.Status {
		case StatusSuccess:
			s.Renamed++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		case StatusAlreadyOptimized:
			s.AlreadyOptimized++
		case StatusWhatIf:
			s.WhatIf++
		}
	}

	return s
}
