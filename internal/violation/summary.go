package violation

import (
	"math"

	"github.com/complyscan/complyscan/internal/types"
)

// Summary is a statistical rollup of a violation set.
type Summary struct {
	Total            int            `json:"total_violations"`
	BySeverity       map[string]int `json:"by_severity"`
	ByCategory       map[string]int `json:"by_category"`
	ByType           map[string]int `json:"by_type"`
	ByFramework      map[string]int `json:"by_framework"`
	AverageRiskScore float64        `json:"average_risk_score"`
	CriticalCount    int            `json:"critical_count"`
	HighCount        int            `json:"high_count"`
	RequiresReview   int            `json:"requires_review"`
}

// Summarize computes rollup statistics for a violation set.
func Summarize(violations []types.Violation) Summary {
	s := Summary{
		Total:       len(violations),
		BySeverity:  map[string]int{},
		ByCategory:  map[string]int{},
		ByType:      map[string]int{},
		ByFramework: map[string]int{},
	}
	var riskSum float64
	for _, v := range violations {
		s.BySeverity[string(v.Severity)]++
		s.ByCategory[v.Category]++
		s.ByType[string(v.RuleType)]++
		for _, fw := range v.Frameworks {
			s.ByFramework[fw]++
		}
		riskSum += v.RiskScore
		if v.RequiresReview {
			s.RequiresReview++
		}
	}
	if s.Total > 0 {
		s.AverageRiskScore = math.Round(riskSum/float64(s.Total)*100) / 100
	}
	s.CriticalCount = s.BySeverity[string(types.SevCritical)]
	s.HighCount = s.BySeverity[string(types.SevHigh)]
	return s
}

// FilterOptions selects a subset of violations. Zero values match all.
type FilterOptions struct {
	Severity     types.Severity
	Category     string
	RuleType     types.RuleType
	Status       types.ViolationStatus
	MinRiskScore float64
}

// Filter returns the violations matching every set criterion, in order.
func Filter(violations []types.Violation, opts FilterOptions) []types.Violation {
	var out []types.Violation
	for _, v := range violations {
		if opts.Severity != "" && v.Severity != opts.Severity {
			continue
		}
		if opts.Category != "" && v.Category != opts.Category {
			continue
		}
		if opts.RuleType != "" && v.RuleType != opts.RuleType {
			continue
		}
		if opts.Status != "" && v.Status != opts.Status {
			continue
		}
		if v.RiskScore < opts.MinRiskScore {
			continue
		}
		out = append(out, v)
	}
	return out
}
