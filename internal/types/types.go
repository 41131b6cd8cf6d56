package types

import "time"

// Severity is a coarse-grained risk level for a rule or violation.
type Severity string

const (
	SevCritical Severity = "critical"
	SevHigh     Severity = "high"
	SevMed      Severity = "medium"
	SevLow      Severity = "low"
)

// RuleType is the closed set of policy rule categories the engine knows
// how to check. Unrecognized category strings normalize to RuleOther.
type RuleType string

const (
	RuleRetention    RuleType = "data_retention"
	RuleEncryption   RuleType = "data_encryption"
	RuleMasking      RuleType = "data_masking"
	RuleAccess       RuleType = "data_access"
	RuleConsent      RuleType = "consent"
	RuleAgeRestrict  RuleType = "age_restriction"
	RuleGeoRestrict  RuleType = "geographic_restriction"
	RuleAuditLogging RuleType = "audit_logging"
	RuleNotification RuleType = "notification"
	RuleOther        RuleType = "other"

	// RuleScanError marks an internal error entry carried through the
	// potential-violation stream; the scorer filters it out.
	RuleScanError RuleType = "scan_error"
)

// ParseRuleType maps a category string onto the closed RuleType set.
func ParseRuleType(s string) RuleType {
	switch RuleType(s) {
	case RuleRetention, RuleEncryption, RuleMasking, RuleAccess,
		RuleConsent, RuleAgeRestrict, RuleGeoRestrict,
		RuleAuditLogging, RuleNotification:
		return RuleType(s)
	}
	return RuleOther
}

// ViolationStatus tracks a violation through the external review workflow.
type ViolationStatus string

const (
	StatusOpen          ViolationStatus = "open"
	StatusConfirmed     ViolationStatus = "confirmed"
	StatusFalsePositive ViolationStatus = "false_positive"
	StatusEscalated     ViolationStatus = "escalated"
)

// Rule is a declarative or heuristic policy constraint. Rules are read-only
// during a scan; they are produced by an external ingestion stage.
type Rule struct {
	ID             string   `json:"id" yaml:"id"`
	Type           RuleType `json:"type" yaml:"type"`
	Text           string   `json:"text" yaml:"text"`
	Severity       Severity `json:"severity,omitempty" yaml:"severity,omitempty"`
	Entities       []string `json:"entities,omitempty" yaml:"entities,omitempty"` // "table.column" or bare column name
	SQLCondition   string   `json:"sql_condition,omitempty" yaml:"sql_condition,omitempty"`
	RetentionValue int      `json:"retention_value,omitempty" yaml:"retention_value,omitempty"`
	RetentionUnit  string   `json:"retention_unit,omitempty" yaml:"retention_unit,omitempty"` // days, months, years
}

// Column describes a single column (or inferred document field).
type Column struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// ForeignKey describes a referential constraint on a table.
type ForeignKey struct {
	Columns         []string `json:"columns"`
	ReferredTable   string   `json:"referred_table"`
	ReferredColumns []string `json:"referred_columns"`
}

// Index describes a table index.
type Index struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

// TableSchema is a read-only snapshot of one table or collection,
// taken once per scan.
type TableSchema struct {
	Name        string       `json:"table_name"`
	Columns     []Column     `json:"columns"`
	PrimaryKey  []string     `json:"primary_key,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty"`
}

// ColumnNames returns the column names in declaration order.
func (s TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// PotentialViolation is a raw, unscored hit produced by a checker. It is
// consumed by the violation scorer and never persisted standalone.
type PotentialViolation struct {
	Type           RuleType `json:"type"`
	Table          string   `json:"table"`
	Column         string   `json:"column,omitempty"`
	Columns        []string `json:"columns,omitempty"`
	RuleID         string   `json:"rule_id"`
	RuleText       string   `json:"rule_text,omitempty"`
	Count          int      `json:"violation_count,omitempty"`
	Details        string   `json:"details"`
	SQLCondition   string   `json:"sql_condition,omitempty"`
	UniqueRegions  []string `json:"unique_regions,omitempty"`
	RequiresReview bool     `json:"requires_review,omitempty"`
}

// ScanError is a diagnostic entry for a check that failed. It is recorded
// alongside violations so one bad query never aborts the cross-product.
type ScanError struct {
	Table  string `json:"table"`
	RuleID string `json:"rule_id"`
	Err    string `json:"error"`
}

// ScanResult is the output of one scan run. It is discarded after scoring;
// only the violation history survives.
type ScanResult struct {
	ScanID        string                 `json:"scan_id"`
	StartedAt     time.Time              `json:"started_at"`
	CompletedAt   time.Time              `json:"completed_at"`
	TablesScanned []string               `json:"tables_scanned"`
	RulesChecked  int                    `json:"rules_checked"`
	Potential     []PotentialViolation   `json:"potential_violations"`
	Diagnostics   []ScanError            `json:"diagnostics,omitempty"`
	Schema        map[string]TableSchema `json:"schema"`
}

// Violation is a scored, categorized, persisted compliance violation.
// Explanation, Remediation, and Status are mutated only by external
// explanation and review stages after creation.
type Violation struct {
	ID             string          `json:"id"`
	ScanID         string          `json:"scan_id"`
	RuleID         string          `json:"rule_id"`
	RuleType       RuleType        `json:"rule_type"`
	RuleText       string          `json:"rule_text,omitempty"`
	Table          string          `json:"table"`
	Column         string          `json:"column,omitempty"`
	Columns        []string        `json:"columns,omitempty"`
	Count          int             `json:"violation_count"`
	Details        string          `json:"details"`
	Explanation    string          `json:"explanation,omitempty"`
	Remediation    string          `json:"remediation,omitempty"`
	Severity       Severity        `json:"severity"`
	RiskScore      float64         `json:"risk_score"`
	Category       string          `json:"category"`
	Frameworks     []string        `json:"frameworks"`
	Status         ViolationStatus `json:"status"`
	RequiresReview bool            `json:"requires_review,omitempty"`
	DetectedAt     time.Time       `json:"detected_at"`
}
