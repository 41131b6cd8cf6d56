package scan

import "github.com/complyscan/complyscan/internal/types"

// Heuristic keyword fixtures. These literals are shared with the package
// tests so a change here fails a test instead of drifting silently.

// sensitivePatterns augments entity-hint matching per rule category. Any
// column whose lower-cased name contains one of these substrings is
// considered applicable to the rule.
var sensitivePatterns = map[types.RuleType][]string{
	types.RuleEncryption:  {"password", "ssn", "credit_card", "account_number", "secret", "token", "key"},
	types.RuleMasking:     {"email", "phone", "ssn", "credit_card", "account", "address"},
	types.RuleConsent:     {"email", "marketing", "consent", "opted"},
	types.RuleAgeRestrict: {"birthdate", "birth_date", "dob", "date_of_birth", "age"},
	types.RuleGeoRestrict: {"country", "region", "location", "address", "city", "state"},
}

// dateColumnHints identifies date-like columns for retention checks.
var dateColumnHints = []string{"date", "time", "created", "updated", "modified"}

// birthColumnHints identifies birth-date-like columns for age checks.
var birthColumnHints = []string{"birth", "dob", "date_of_birth"}

// geoColumnHints identifies geography-like columns for sovereignty checks.
var geoColumnHints = []string{"country", "region", "location"}

// accessSensitiveHints flags columns that likely need access controls.
var accessSensitiveHints = []string{"password", "secret", "token", "key", "ssn", "credit"}

// auditColumnNames is the canonical audit-trail column set. A table with
// none of these fails the audit-logging check.
var auditColumnNames = []string{"created_at", "updated_at", "modified_at", "created_by", "modified_by", "audit_log"}

// columnsMatching returns, in input order, the columns whose lower-cased
// name contains any of the given substrings.
func columnsMatching(columns []string, hints []string) []string {
	var out []string
	for _, c := range columns {
		if nameContainsAny(c, hints) {
			out = append(out, c)
		}
	}
	return out
}
