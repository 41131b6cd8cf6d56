package report

import (
	"encoding/json"
	"os"

	"github.com/complyscan/complyscan/internal/types"
)

// Baseline is a persisted set of accepted violations. Scans filtered
// against a baseline only surface findings not yet reviewed.
type Baseline struct {
	Items map[string]bool `json:"items"`
}

// LoadBaseline reads an accepted-violation set from path.
func LoadBaseline(path string) (Baseline, error) {
	b := Baseline{Items: map[string]bool{}}
	f, err := os.ReadFile(path)
	if err != nil {
		return b, err
	}
	_ = json.Unmarshal(f, &b)
	return b, nil
}

// SaveBaseline writes the violation set to path as the new baseline.
func SaveBaseline(path string, violations []types.Violation) error {
	b := Baseline{Items: map[string]bool{}}
	for _, v := range violations {
		b.Items[key(v)] = true
	}
	buf, _ := json.MarshalIndent(b, "", "  ")
	return os.WriteFile(path, buf, 0644)
}

// FilterNewViolations drops violations already accepted in the baseline.
func FilterNewViolations(violations []types.Violation, base Baseline) []types.Violation {
	var out []types.Violation
	for _, v := range violations {
		if !base.Items[key(v)] {
			out = append(out, v)
		}
	}
	return out
}

// key identifies a violation across scans. Ids and counts change run to
// run; the rule and its location do not.
func key(v types.Violation) string {
	return v.Table + "|" + v.Column + "|" + v.RuleID
}

// ShouldFail reports whether a violation set crosses the CI failure
// threshold. Unknown thresholds default to medium.
func ShouldFail(violations []types.Violation, failOn string) bool {
	level := map[string]int{"low": 1, "medium": 2, "high": 3, "critical": 4}
	th := level[failOn]
	if th == 0 {
		th = 2
	}
	for _, v := range violations {
		if level[string(v.Severity)] >= th {
			return true
		}
	}
	return false
}
