// Package history maintains an append-only JSONL log of scan runs and
// their scored violations. The log is caller-owned: each Log value binds
// to one file, and concurrent scans must not share a Log without external
// synchronization.
package history

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/complyscan/complyscan/internal/types"
)

// ScanRecord summarizes one completed scan run.
type ScanRecord struct {
	Timestamp       time.Time         `json:"timestamp"`
	ScanID          string            `json:"scan_id"`
	Database        string            `json:"database,omitempty"`
	TablesScanned   int               `json:"tables_scanned"`
	RulesChecked    int               `json:"rules_checked"`
	TotalViolations int               `json:"total_violations"`
	Diagnostics     int               `json:"diagnostics,omitempty"`
	SeverityCounts  map[string]int    `json:"severity_counts"`
	Duration        string            `json:"duration"`
	TopViolations   []Entry           `json:"top_violations,omitempty"`
	AllViolations   []types.Violation `json:"all_violations,omitempty"`
}

// Entry is a compact reference to one violation.
type Entry struct {
	Table    string  `json:"table"`
	RuleID   string  `json:"rule_id"`
	Severity string  `json:"severity"`
	Risk     float64 `json:"risk_score"`
}

// Log is an append-only scan history bound to one file.
type Log struct {
	path string
}

// DefaultFile is the history file name created in the working directory.
const DefaultFile = ".complyscan_history.jsonl"

// New creates a Log stored under dir (the working directory when empty).
func New(dir string) *Log {
	if dir == "" {
		dir = "."
	}
	return &Log{path: filepath.Join(dir, DefaultFile)}
}

// Append writes one scan record to the log.
func (l *Log) Append(record ScanRecord) error {
	if record.ScanID == "" {
		record.ScanID = fmt.Sprintf("scan_%d", time.Now().Unix())
	}
	// Owner-only: the log carries violation metadata.
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	if err := json.NewEncoder(f).Encode(record); err != nil {
		return fmt.Errorf("failed to write history record: %w", err)
	}
	return nil
}

// Load returns all records, newest first. Malformed lines, such as a
// partial record left by an interrupted append, are skipped.
func (l *Log) Load() ([]ScanRecord, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history log: %w", err)
	}
	defer f.Close()

	var records []ScanRecord
	scanner := bufio.NewScanner(f)
	// Records written with full violation sets exceed the default token size.
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var record ScanRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read history log: %w", err)
	}
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	return records, nil
}

// NewRecord builds a ScanRecord from a scan result and its scored
// violations, keeping the ten highest-risk entries as a summary.
func NewRecord(result types.ScanResult, violations []types.Violation, keepAll bool) ScanRecord {
	severityCounts := make(map[string]int)
	for _, v := range violations {
		severityCounts[string(v.Severity)]++
	}
	top := make([]Entry, 0, 10)
	for i, v := range violations {
		if i >= 10 {
			break
		}
		top = append(top, Entry{
			Table:    v.Table,
			RuleID:   v.RuleID,
			Severity: string(v.Severity),
			Risk:     v.RiskScore,
		})
	}
	rec := ScanRecord{
		Timestamp:       result.CompletedAt,
		ScanID:          result.ScanID,
		TablesScanned:   len(result.TablesScanned),
		RulesChecked:    result.RulesChecked,
		TotalViolations: len(violations),
		Diagnostics:     len(result.Diagnostics),
		SeverityCounts:  severityCounts,
		Duration:        result.CompletedAt.Sub(result.StartedAt).String(),
		TopViolations:   top,
	}
	if keepAll {
		rec.AllViolations = violations
	}
	return rec
}
