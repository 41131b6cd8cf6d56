package violation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyscan/complyscan/internal/types"
)

func resultWith(hits ...types.PotentialViolation) types.ScanResult {
	return types.ScanResult{
		ScanID:      "20260101_120000",
		StartedAt:   time.Now().UTC(),
		CompletedAt: time.Now().UTC(),
		Potential:   hits,
	}
}

func TestScore_EveryHitYieldsOneViolation(t *testing.T) {
	result := resultWith(
		types.PotentialViolation{Type: types.RuleRetention, Table: "orders", RuleID: "r1", Count: 5},
		types.PotentialViolation{Type: types.RuleMasking, Table: "users", RuleID: "r2"},
		types.PotentialViolation{Type: types.RuleScanError, Table: "bad", RuleID: "r3"},
	)
	violations := Score(result, nil)

	// The error marker is filtered; everything else maps one to one.
	require.Len(t, violations, 2)
	for _, v := range violations {
		assert.NotEmpty(t, v.ID)
		assert.Equal(t, "20260101_120000", v.ScanID)
		assert.Equal(t, types.StatusOpen, v.Status)
		assert.False(t, v.DetectedAt.IsZero())
		assert.Empty(t, v.Explanation, "explanation belongs to a later stage")
		assert.Empty(t, v.Remediation, "remediation belongs to a later stage")
	}
}

func TestResolveSeverity(t *testing.T) {
	tests := []struct {
		name string
		pv   types.PotentialViolation
		rule types.Rule
		want types.Severity
	}{
		{"rule severity wins", types.PotentialViolation{Type: types.RuleEncryption, Count: 500}, types.Rule{Severity: types.SevLow}, types.SevLow},
		{"encryption over threshold", types.PotentialViolation{Type: types.RuleEncryption, Count: 150}, types.Rule{}, types.SevCritical},
		{"encryption under threshold", types.PotentialViolation{Type: types.RuleEncryption, Count: 10}, types.Rule{}, types.SevHigh},
		{"age over threshold", types.PotentialViolation{Type: types.RuleAgeRestrict, Count: 101}, types.Rule{}, types.SevCritical},
		{"retention", types.PotentialViolation{Type: types.RuleRetention}, types.Rule{}, types.SevHigh},
		{"access", types.PotentialViolation{Type: types.RuleAccess}, types.Rule{}, types.SevHigh},
		{"geographic", types.PotentialViolation{Type: types.RuleGeoRestrict}, types.Rule{}, types.SevHigh},
		{"consent", types.PotentialViolation{Type: types.RuleConsent}, types.Rule{}, types.SevMed},
		{"masking", types.PotentialViolation{Type: types.RuleMasking}, types.Rule{}, types.SevMed},
		{"notification", types.PotentialViolation{Type: types.RuleNotification}, types.Rule{}, types.SevMed},
		{"audit logging", types.PotentialViolation{Type: types.RuleAuditLogging}, types.Rule{}, types.SevLow},
		{"default", types.PotentialViolation{Type: types.RuleOther}, types.Rule{}, types.SevMed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Deterministic: repeated resolution never flips.
			for i := 0; i < 3; i++ {
				assert.Equal(t, tt.want, resolveSeverity(tt.pv, tt.rule))
			}
		})
	}
}

func TestRiskScore_Bounds(t *testing.T) {
	for _, sev := range []types.Severity{types.SevCritical, types.SevHigh, types.SevMed, types.SevLow} {
		for ruleType := range riskMultipliers {
			for _, count := range []int{0, 1, 10, 1000, 1_000_000} {
				score := riskScore(sev, ruleType, count)
				assert.GreaterOrEqual(t, score, 0.0)
				assert.LessOrEqual(t, score, 100.0)
			}
		}
	}
}

func TestRiskScore_MonotonicInCount(t *testing.T) {
	prev := 0.0
	for _, count := range []int{1, 2, 10, 100, 10_000} {
		score := riskScore(types.SevMed, types.RuleMasking, count)
		assert.GreaterOrEqual(t, score, prev, "count=%d", count)
		prev = score
	}
}

func TestRiskScore_KnownValues(t *testing.T) {
	// base 50 × 1.1 × 1.0 at count 1
	assert.Equal(t, 55.0, riskScore(types.SevMed, types.RuleMasking, 1))
	// base 25 × 1.0 at count 1
	assert.Equal(t, 25.0, riskScore(types.SevLow, types.RuleAuditLogging, 1))
	// base 100 × 1.5 caps at 100
	assert.Equal(t, 100.0, riskScore(types.SevCritical, types.RuleEncryption, 1))
	// base 75 × 1.3 × (1 + log10(100)×0.1) = 117 → capped
	assert.Equal(t, 100.0, riskScore(types.SevHigh, types.RuleRetention, 100))
}

func TestScore_SortedDescendingStable(t *testing.T) {
	result := resultWith(
		types.PotentialViolation{Type: types.RuleAuditLogging, Table: "t1", RuleID: "low-1"},
		types.PotentialViolation{Type: types.RuleEncryption, Table: "t2", RuleID: "high", Count: 10},
		types.PotentialViolation{Type: types.RuleAuditLogging, Table: "t3", RuleID: "low-2"},
	)
	violations := Score(result, nil)
	require.Len(t, violations, 3)
	assert.Equal(t, "high", violations[0].RuleID)
	// Equal scores keep discovery order.
	assert.Equal(t, "low-1", violations[1].RuleID)
	assert.Equal(t, "low-2", violations[2].RuleID)
	for i := 1; i < len(violations); i++ {
		assert.GreaterOrEqual(t, violations[i-1].RiskScore, violations[i].RiskScore)
	}
}

func TestScore_RoundTripIdentical(t *testing.T) {
	result := resultWith(types.PotentialViolation{
		Type: types.RuleRetention, Table: "orders", Column: "created_at",
		RuleID: "r1", Count: 42, Details: "stale rows",
	})
	rules := []types.Rule{{ID: "r1", Type: types.RuleRetention, Text: "90 day retention"}}

	a := Score(result, rules)
	b := Score(result, rules)
	require.Len(t, a, 1)
	require.Len(t, b, 1)

	// Identical except id and timestamp.
	a[0].ID, b[0].ID = "", ""
	a[0].DetectedAt, b[0].DetectedAt = time.Time{}, time.Time{}
	assert.Equal(t, a[0], b[0])
}

func TestScore_RuleTextResolution(t *testing.T) {
	result := resultWith(types.PotentialViolation{
		Type: types.RuleConsent, Table: "users", RuleID: "r9",
	})
	rules := []types.Rule{{ID: "r9", Type: types.RuleConsent, Text: "explicit consent required"}}
	violations := Score(result, rules)
	require.Len(t, violations, 1)
	assert.Equal(t, "explicit consent required", violations[0].RuleText)
	assert.Equal(t, 1, violations[0].Count, "zero count normalizes to 1")
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, "Data Lifecycle", categorize(types.RuleRetention))
	assert.Equal(t, "Access Control", categorize(types.RuleAccess))
	assert.Equal(t, "Data Protection", categorize(types.RuleEncryption))
	assert.Equal(t, "Data Protection", categorize(types.RuleMasking))
	assert.Equal(t, "Privacy Rights", categorize(types.RuleConsent))
	assert.Equal(t, "Privacy Rights", categorize(types.RuleAgeRestrict))
	assert.Equal(t, "Data Sovereignty", categorize(types.RuleGeoRestrict))
	assert.Equal(t, "Audit & Compliance", categorize(types.RuleAuditLogging))
	assert.Equal(t, "Incident Response", categorize(types.RuleNotification))
	assert.Equal(t, "General Compliance", categorize(types.RuleOther))
}

func TestMapFrameworks(t *testing.T) {
	assert.Equal(t, []string{"COPPA"}, mapFrameworks(types.RuleAgeRestrict))
	assert.Equal(t, []string{"HIPAA", "PCI-DSS"}, mapFrameworks(types.RuleEncryption))
	assert.Equal(t, []string{"GDPR", "CCPA"}, mapFrameworks(types.RuleConsent))
	assert.Equal(t, []string{"GDPR", "HIPAA", "CCPA", "PCI-DSS", "SOX"}, mapFrameworks(types.RuleAccess))
	assert.Equal(t, []string{"HIPAA", "PCI-DSS", "SOX"}, mapFrameworks(types.RuleAuditLogging))
	assert.Equal(t, []string{"GDPR"}, mapFrameworks(types.RuleGeoRestrict))
	assert.Empty(t, mapFrameworks(types.RuleOther))
}

func TestScoringFixturesPinned(t *testing.T) {
	assert.Equal(t, map[types.Severity]float64{
		types.SevCritical: 100, types.SevHigh: 75, types.SevMed: 50, types.SevLow: 25,
	}, severityWeights)
	assert.Equal(t, map[types.RuleType]float64{
		types.RuleEncryption: 1.5, types.RuleRetention: 1.3, types.RuleAccess: 1.4,
		types.RuleConsent: 1.2, types.RuleAgeRestrict: 1.5, types.RuleGeoRestrict: 1.3,
		types.RuleAuditLogging: 1.0, types.RuleMasking: 1.1, types.RuleNotification: 1.2,
		types.RuleOther: 1.0,
	}, riskMultipliers)
}
