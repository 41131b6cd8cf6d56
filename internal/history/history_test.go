package history

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/complyscan/complyscan/internal/types"
)

func testResult() types.ScanResult {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return types.ScanResult{
		ScanID:        "20260301_100000",
		StartedAt:     start,
		CompletedAt:   start.Add(90 * time.Second),
		TablesScanned: []string{"users", "orders"},
		RulesChecked:  4,
		Diagnostics:   []types.ScanError{{Table: "orders", RuleID: "r2", Err: "timeout"}},
	}
}

func TestAppendLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	log := New(dir)

	violations := []types.Violation{
		{Table: "users", RuleID: "r1", Severity: types.SevCritical, RiskScore: 100},
		{Table: "orders", RuleID: "r2", Severity: types.SevMed, RiskScore: 55},
	}
	if err := log.Append(NewRecord(testResult(), violations, false)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	second := testResult()
	second.ScanID = "20260302_100000"
	if err := log.Append(NewRecord(second, nil, false)); err != nil {
		t.Fatalf("Append: %v", err)
	}

	records, err := log.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records", len(records))
	}
	// Newest first.
	if records[0].ScanID != "20260302_100000" {
		t.Fatalf("first record = %s", records[0].ScanID)
	}
	rec := records[1]
	if rec.TotalViolations != 2 || rec.TablesScanned != 2 || rec.RulesChecked != 4 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Diagnostics != 1 {
		t.Fatalf("diagnostics = %d", rec.Diagnostics)
	}
	if rec.Duration != "1m30s" {
		t.Fatalf("duration = %s", rec.Duration)
	}
	if rec.SeverityCounts["critical"] != 1 || rec.SeverityCounts["medium"] != 1 {
		t.Fatalf("severity counts = %v", rec.SeverityCounts)
	}
	if len(rec.TopViolations) != 2 {
		t.Fatalf("top violations = %d", len(rec.TopViolations))
	}
	if rec.TopViolations[0].Risk != 100 {
		t.Fatalf("top risk = %v", rec.TopViolations[0].Risk)
	}
	if len(rec.AllViolations) != 0 {
		t.Fatal("full violations should not be kept without keepAll")
	}
}

func TestNewRecord_KeepAllAndTopCap(t *testing.T) {
	violations := make([]types.Violation, 15)
	for i := range violations {
		violations[i] = types.Violation{Table: "t", RuleID: "r", Severity: types.SevLow}
	}
	rec := NewRecord(testResult(), violations, true)
	if len(rec.TopViolations) != 10 {
		t.Fatalf("top violations = %d, want cap of 10", len(rec.TopViolations))
	}
	if len(rec.AllViolations) != 15 {
		t.Fatalf("all violations = %d", len(rec.AllViolations))
	}
}

func TestAppend_AssignsScanID(t *testing.T) {
	log := New(t.TempDir())
	if err := log.Append(ScanRecord{}); err != nil {
		t.Fatal(err)
	}
	records, err := log.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].ScanID == "" {
		t.Fatalf("expected generated scan id, got %+v", records)
	}
}

func TestAppend_OwnerOnlyPermissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}
	dir := t.TempDir()
	log := New(dir)
	if err := log.Append(ScanRecord{ScanID: "s1"}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(filepath.Join(dir, DefaultFile))
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0600 {
		t.Fatalf("mode = %o", got)
	}
}

func TestLoad_SkipsCorruptLines(t *testing.T) {
	dir := t.TempDir()
	log := New(dir)
	if err := log.Append(ScanRecord{ScanID: "first"}); err != nil {
		t.Fatal(err)
	}

	// An interrupted append leaves a partial record mid-file.
	f, err := os.OpenFile(filepath.Join(dir, DefaultFile), os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{\"scan_id\": \"broken\", tru\n"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if err := log.Append(ScanRecord{ScanID: "second"}); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	var records []ScanRecord
	var loadErr error
	go func() {
		records, loadErr = log.Load()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Load did not terminate on corrupt input")
	}
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want the 2 intact ones", len(records))
	}
	if records[0].ScanID != "second" || records[1].ScanID != "first" {
		t.Fatalf("records = %+v", records)
	}
}

func TestLoad_TrailingCorruptLine(t *testing.T) {
	dir := t.TempDir()
	log := New(dir)
	if err := log.Append(ScanRecord{ScanID: "good"}); err != nil {
		t.Fatal(err)
	}
	f, err := os.OpenFile(filepath.Join(dir, DefaultFile), os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.WriteString("{not json"); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	records, err := log.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(records) != 1 || records[0].ScanID != "good" {
		t.Fatalf("records = %+v", records)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	log := New(t.TempDir())
	if _, err := log.Load(); err == nil {
		t.Fatal("expected error for missing log")
	}
}
