package violation

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/complyscan/complyscan/internal/types"
)

// Scoring fixtures. These literals are shared with the package tests so a
// change here fails a test instead of drifting silently.

// severityWeights is the base score per resolved severity.
var severityWeights = map[types.Severity]float64{
	types.SevCritical: 100,
	types.SevHigh:     75,
	types.SevMed:      50,
	types.SevLow:      25,
}

// riskMultipliers scales the base score per rule category.
var riskMultipliers = map[types.RuleType]float64{
	types.RuleEncryption:   1.5,
	types.RuleRetention:    1.3,
	types.RuleAccess:       1.4,
	types.RuleConsent:      1.2,
	types.RuleAgeRestrict:  1.5,
	types.RuleGeoRestrict:  1.3,
	types.RuleAuditLogging: 1.0,
	types.RuleMasking:      1.1,
	types.RuleNotification: 1.2,
	types.RuleOther:        1.0,
}

// categories maps each rule category to its human-facing group.
var categories = map[types.RuleType]string{
	types.RuleRetention:    "Data Lifecycle",
	types.RuleAccess:       "Access Control",
	types.RuleEncryption:   "Data Protection",
	types.RuleMasking:      "Data Protection",
	types.RuleConsent:      "Privacy Rights",
	types.RuleAgeRestrict:  "Privacy Rights",
	types.RuleGeoRestrict:  "Data Sovereignty",
	types.RuleAuditLogging: "Audit & Compliance",
	types.RuleNotification: "Incident Response",
}

const defaultCategory = "General Compliance"

// frameworkMemberships associates each regulatory framework with the rule
// categories it governs. Order here fixes tag order on violations.
var frameworkMemberships = []struct {
	Name  string
	Types []types.RuleType
}{
	{"GDPR", []types.RuleType{types.RuleConsent, types.RuleRetention, types.RuleGeoRestrict, types.RuleAccess, types.RuleNotification}},
	{"HIPAA", []types.RuleType{types.RuleEncryption, types.RuleAccess, types.RuleAuditLogging, types.RuleRetention}},
	{"CCPA", []types.RuleType{types.RuleConsent, types.RuleAccess, types.RuleRetention}},
	{"PCI-DSS", []types.RuleType{types.RuleEncryption, types.RuleMasking, types.RuleAccess, types.RuleAuditLogging}},
	{"SOX", []types.RuleType{types.RuleAuditLogging, types.RuleAccess}},
	{"COPPA", []types.RuleType{types.RuleAgeRestrict}},
}

// criticalCountThreshold escalates encryption and age hits to critical.
const criticalCountThreshold = 100

// Score converts every non-error potential violation in a scan result into
// a scored, categorized Violation, sorted descending by risk score. It is
// pure apart from id and timestamp assignment: scoring the same hit twice
// yields identical records except for those two fields.
func Score(result types.ScanResult, rules []types.Rule) []types.Violation {
	rulesByID := make(map[string]types.Rule, len(rules))
	for _, r := range rules {
		rulesByID[r.ID] = r
	}

	now := time.Now().UTC()
	var violations []types.Violation
	for _, pv := range result.Potential {
		if pv.Type == types.RuleScanError {
			continue // diagnostics live in result.Diagnostics
		}
		rule, hasRule := rulesByID[pv.RuleID]

		text := pv.RuleText
		if text == "" && hasRule {
			text = rule.Text
		}
		count := pv.Count
		if count == 0 {
			count = 1
		}
		severity := resolveSeverity(pv, rule)

		v := types.Violation{
			ID:             uuid.NewString(),
			ScanID:         result.ScanID,
			RuleID:         pv.RuleID,
			RuleType:       pv.Type,
			RuleText:       text,
			Table:          pv.Table,
			Column:         pv.Column,
			Columns:        pv.Columns,
			Count:          count,
			Details:        pv.Details,
			Severity:       severity,
			RiskScore:      riskScore(severity, pv.Type, count),
			Category:       categorize(pv.Type),
			Frameworks:     mapFrameworks(pv.Type),
			Status:         types.StatusOpen,
			RequiresReview: pv.RequiresReview,
			DetectedAt:     now,
		}
		violations = append(violations, v)
	}

	// Stable: ties keep discovery order.
	sort.SliceStable(violations, func(i, j int) bool {
		return violations[i].RiskScore > violations[j].RiskScore
	})
	return violations
}

// resolveSeverity picks the first applicable severity source: the rule's
// declared severity, then category defaults with a count escalation for
// encryption and age restriction.
func resolveSeverity(pv types.PotentialViolation, rule types.Rule) types.Severity {
	if rule.Severity != "" {
		return rule.Severity
	}
	switch pv.Type {
	case types.RuleEncryption, types.RuleAgeRestrict:
		if pv.Count > criticalCountThreshold {
			return types.SevCritical
		}
		return types.SevHigh
	case types.RuleRetention, types.RuleAccess, types.RuleGeoRestrict:
		return types.SevHigh
	case types.RuleConsent, types.RuleMasking, types.RuleNotification:
		return types.SevMed
	case types.RuleAuditLogging:
		return types.SevLow
	}
	return types.SevMed
}

// riskScore combines the severity base weight, the category multiplier,
// and a log-scaled count factor, capped at 100.
func riskScore(severity types.Severity, ruleType types.RuleType, count int) float64 {
	base, ok := severityWeights[severity]
	if !ok {
		base = severityWeights[types.SevMed]
	}
	mult, ok := riskMultipliers[ruleType]
	if !ok {
		mult = 1.0
	}
	countFactor := 1 + math.Log10(math.Max(float64(count), 1))*0.1
	score := base * mult * countFactor
	return math.Round(math.Min(score, 100)*100) / 100
}

func categorize(ruleType types.RuleType) string {
	if c, ok := categories[ruleType]; ok {
		return c
	}
	return defaultCategory
}

func mapFrameworks(ruleType types.RuleType) []string {
	frameworks := []string{}
	for _, fw := range frameworkMemberships {
		for _, t := range fw.Types {
			if t == ruleType {
				frameworks = append(frameworks, fw.Name)
				break
			}
		}
	}
	return frameworks
}
