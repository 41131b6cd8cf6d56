// Package report renders scored violations for humans and pipelines and
// computes the overall compliance score.
package report

import (
	"time"

	"github.com/complyscan/complyscan/internal/types"
)

// Summary holds per-report rollup counts.
type Summary struct {
	TotalViolations int            `json:"total_violations"`
	BySeverity      map[string]int `json:"by_severity"`
	ByType          map[string]int `json:"by_type"`
	ByTable         map[string]int `json:"by_table"`
}

// Report is the serializable report envelope.
type Report struct {
	GeneratedAt     time.Time         `json:"generated_at"`
	ScanID          string            `json:"scan_id,omitempty"`
	Summary         Summary           `json:"summary"`
	ComplianceScore float64           `json:"compliance_score"`
	Violations      []types.Violation `json:"violations"`
}

// severityDeductions weights violations for the compliance score.
var severityDeductions = map[types.Severity]int{
	types.SevCritical: 10,
	types.SevHigh:     5,
	types.SevMed:      2,
	types.SevLow:      1,
}

// New assembles a report from scored violations.
func New(scanID string, violations []types.Violation) Report {
	return Report{
		GeneratedAt:     time.Now().UTC(),
		ScanID:          scanID,
		Summary:         Summarize(violations),
		ComplianceScore: ComplianceScore(violations),
		Violations:      violations,
	}
}

// Summarize counts violations by severity, type, and table.
func Summarize(violations []types.Violation) Summary {
	s := Summary{
		TotalViolations: len(violations),
		BySeverity:      map[string]int{},
		ByType:          map[string]int{},
		ByTable:         map[string]int{},
	}
	for _, v := range violations {
		s.BySeverity[string(v.Severity)]++
		s.ByType[string(v.RuleType)]++
		s.ByTable[v.Table]++
	}
	return s
}

// ComplianceScore grades a violation set on [0,100]: 100 is clean, and
// each violation deducts its severity weight, capped at 100 total.
func ComplianceScore(violations []types.Violation) float64 {
	if len(violations) == 0 {
		return 100
	}
	total := 0
	for _, v := range violations {
		w, ok := severityDeductions[v.Severity]
		if !ok {
			w = 1
		}
		total += w
	}
	if total > 100 {
		total = 100
	}
	return float64(100 - total)
}
