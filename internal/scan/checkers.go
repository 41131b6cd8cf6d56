package scan

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/types"
)

const (
	// valueSampleLimit bounds per-column sampling for encryption and
	// masking heuristics. Plaintext below the sample goes undetected.
	valueSampleLimit = 10
	// distinctSampleLimit bounds distinct-value collection for
	// geographic review hits.
	distinctSampleLimit = 50
	// hashedPasswordMinLen: bcrypt and friends produce >= 60 chars, so
	// shorter password values are treated as plaintext.
	hashedPasswordMinLen = 60

	defaultRetentionDays = 90
	defaultMinAge        = 18
)

// checkInput carries one (table, rule) pair through a checker.
type checkInput struct {
	Table   string
	Rule    types.Rule
	Matched []string // columns the matcher resolved for the rule
	Columns []string // full column set of the table
}

type checkerFunc func(c *checker, ctx context.Context, in checkInput) ([]types.PotentialViolation, error)

// registry is the closed dispatch table from rule category to checker.
// Categories without an entry fall back to the raw-predicate checker.
var registry = map[types.RuleType]checkerFunc{
	types.RuleRetention:    (*checker).retention,
	types.RuleEncryption:   (*checker).encryption,
	types.RuleMasking:      (*checker).masking,
	types.RuleAccess:       (*checker).access,
	types.RuleAgeRestrict:  (*checker).ageRestriction,
	types.RuleGeoRestrict:  (*checker).geoRestriction,
	types.RuleAuditLogging: (*checker).auditLogging,
}

type checker struct {
	backend backend.Backend
	log     *logrus.Logger
}

// check matches the rule to the table's columns and dispatches to the
// category's checker. An empty match with no raw predicate is a valid
// "not applicable" outcome, not an error.
func (c *checker) check(ctx context.Context, table string, rule types.Rule, columns []string) ([]types.PotentialViolation, error) {
	in := checkInput{
		Table:   table,
		Rule:    rule,
		Matched: MatchColumns(rule, columns),
		Columns: columns,
	}
	if len(in.Matched) == 0 && rule.SQLCondition == "" {
		return nil, nil
	}
	fn, ok := registry[rule.Type]
	if !ok {
		if rule.SQLCondition == "" {
			return nil, nil
		}
		fn = (*checker).predicate
	}
	return fn(c, ctx, in)
}

func (c *checker) retention(ctx context.Context, in checkInput) ([]types.PotentialViolation, error) {
	d := c.backend.Dialect()
	if !d.IsSQL() {
		return nil, nil
	}
	dateCols := columnsMatching(in.Columns, dateColumnHints)
	if len(dateCols) == 0 {
		return nil, nil
	}

	days := in.Rule.RetentionValue
	if days == 0 {
		days = defaultRetentionDays
	}
	// Fixed-length unit conversion, matching the declared policy math.
	unit := strings.ToLower(in.Rule.RetentionUnit)
	switch {
	case strings.Contains(unit, "month"):
		days *= 30
	case strings.Contains(unit, "year"):
		days *= 365
	}

	var hits []types.PotentialViolation
	for _, col := range dateCols {
		primary := fmt.Sprintf(
			"SELECT COUNT(*) AS count FROM %s WHERE %s < CURRENT_DATE - INTERVAL '%d days'",
			d.Quote(in.Table), d.Quote(col), days)
		count, err := c.countQuery(ctx, primary)
		if err != nil {
			count, err = c.countQuery(ctx, retentionFallback(d, in.Table, col, days))
			if err != nil {
				c.log.WithError(err).Debugf("could not check retention on %s.%s", in.Table, col)
				continue
			}
		}
		if count > 0 {
			hits = append(hits, types.PotentialViolation{
				Type:     types.RuleRetention,
				Table:    in.Table,
				Column:   col,
				RuleID:   in.Rule.ID,
				RuleText: in.Rule.Text,
				Count:    int(count),
				Details:  fmt.Sprintf("Found %d records older than %d days based on %s", count, days, col),
			})
		}
	}
	return hits, nil
}

func retentionFallback(d backend.Dialect, table, col string, days int) string {
	if d == backend.DialectMySQL {
		return fmt.Sprintf(
			"SELECT COUNT(*) AS count FROM %s WHERE %s < DATE_SUB(CURDATE(), INTERVAL %d DAY)",
			d.Quote(table), d.Quote(col), days)
	}
	return fmt.Sprintf(
		"SELECT COUNT(*) AS count FROM %s WHERE %s < date('now', '-%d days')",
		d.Quote(table), d.Quote(col), days)
}

func (c *checker) encryption(ctx context.Context, in checkInput) ([]types.PotentialViolation, error) {
	var hits []types.PotentialViolation
	for _, col := range in.Matched {
		vals, err := c.backend.SampleColumn(ctx, in.Table, col, valueSampleLimit)
		if err != nil {
			c.log.WithError(err).Debugf("could not check encryption on %s.%s", in.Table, col)
			continue
		}
		for _, v := range vals {
			if !looksPlaintext(col, fmt.Sprint(v)) {
				continue
			}
			hits = append(hits, types.PotentialViolation{
				Type:     types.RuleEncryption,
				Table:    in.Table,
				Column:   col,
				RuleID:   in.Rule.ID,
				RuleText: in.Rule.Text,
				Details:  fmt.Sprintf("Column %s appears to contain unencrypted sensitive data", col),
			})
			break // first plaintext value flags the column
		}
	}
	return hits, nil
}

// looksPlaintext pairs a column-name hint with a value-shape heuristic.
// Encrypted or hashed values tend to be long and non-numeric.
func looksPlaintext(column, value string) bool {
	lower := strings.ToLower(column)
	switch {
	case strings.Contains(lower, "ssn"):
		return len(value) == 9 && isDigits(value)
	case strings.Contains(lower, "credit"):
		return (len(value) == 15 || len(value) == 16) && isDigits(value)
	case strings.Contains(lower, "password"):
		return len(value) < hashedPasswordMinLen
	}
	return false
}

func (c *checker) masking(ctx context.Context, in checkInput) ([]types.PotentialViolation, error) {
	var hits []types.PotentialViolation
	for _, col := range in.Matched {
		vals, err := c.backend.SampleColumn(ctx, in.Table, col, valueSampleLimit)
		if err != nil {
			c.log.WithError(err).Debugf("could not check masking on %s.%s", in.Table, col)
			continue
		}
		for _, v := range vals {
			if !looksUnmasked(col, fmt.Sprint(v)) {
				continue
			}
			hits = append(hits, types.PotentialViolation{
				Type:     types.RuleMasking,
				Table:    in.Table,
				Column:   col,
				RuleID:   in.Rule.ID,
				RuleText: in.Rule.Text,
				Details:  fmt.Sprintf("Column %s contains unmasked sensitive data", col),
			})
			break
		}
	}
	return hits, nil
}

func looksUnmasked(column, value string) bool {
	lower := strings.ToLower(column)
	switch {
	case strings.Contains(lower, "email"):
		return strings.Contains(value, "@") && !strings.HasPrefix(value, "***")
	case strings.Contains(lower, "phone"):
		stripped := strings.NewReplacer("-", "", " ", "").Replace(value)
		return len(stripped) >= 10
	}
	return false
}

func (c *checker) access(_ context.Context, in checkInput) ([]types.PotentialViolation, error) {
	sensitive := columnsMatching(in.Columns, accessSensitiveHints)
	if len(sensitive) == 0 {
		return nil, nil
	}
	// Static check: one composite hit per table, resolved by a human.
	return []types.PotentialViolation{{
		Type:           types.RuleAccess,
		Table:          in.Table,
		Columns:        sensitive,
		RuleID:         in.Rule.ID,
		RuleText:       in.Rule.Text,
		Details:        "Table contains sensitive columns that may need access controls: " + strings.Join(sensitive, ", "),
		RequiresReview: true,
	}}, nil
}

var minAgePattern = regexp.MustCompile(`(?i)(\d+)\s*years?`)

func (c *checker) ageRestriction(ctx context.Context, in checkInput) ([]types.PotentialViolation, error) {
	d := c.backend.Dialect()
	if !d.HasDateArithmetic() {
		return nil, nil
	}
	birthCols := columnsMatching(in.Columns, birthColumnHints)
	if len(birthCols) == 0 {
		return nil, nil
	}

	minAge := defaultMinAge
	if m := minAgePattern.FindStringSubmatch(in.Rule.Text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			minAge = n
		}
	}

	var hits []types.PotentialViolation
	for _, col := range birthCols {
		primary := fmt.Sprintf(
			"SELECT COUNT(*) AS count FROM %s WHERE EXTRACT(YEAR FROM AGE(CURRENT_DATE, %s::date)) < %d",
			d.Quote(in.Table), d.Quote(col), minAge)
		count, err := c.countQuery(ctx, primary)
		if err != nil {
			fallback := ageFallback(d, in.Table, col, minAge)
			if fallback == "" {
				continue
			}
			count, err = c.countQuery(ctx, fallback)
			if err != nil {
				c.log.WithError(err).Debugf("could not check age restriction on %s.%s", in.Table, col)
				continue
			}
		}
		if count > 0 {
			hits = append(hits, types.PotentialViolation{
				Type:     types.RuleAgeRestrict,
				Table:    in.Table,
				Column:   col,
				RuleID:   in.Rule.ID,
				RuleText: in.Rule.Text,
				Count:    int(count),
				Details:  fmt.Sprintf("Found %d records with age below %d", count, minAge),
			})
		}
	}
	return hits, nil
}

func ageFallback(d backend.Dialect, table, col string, minAge int) string {
	switch d {
	case backend.DialectMySQL:
		return fmt.Sprintf(
			"SELECT COUNT(*) AS count FROM %s WHERE TIMESTAMPDIFF(YEAR, %s, CURDATE()) < %d",
			d.Quote(table), d.Quote(col), minAge)
	case backend.DialectSQLite:
		return fmt.Sprintf(
			"SELECT COUNT(*) AS count FROM %s WHERE (julianday('now') - julianday(%s)) / 365.25 < %d",
			d.Quote(table), d.Quote(col), minAge)
	}
	return ""
}

func (c *checker) geoRestriction(ctx context.Context, in checkInput) ([]types.PotentialViolation, error) {
	geoCols := columnsMatching(in.Columns, geoColumnHints)
	if len(geoCols) == 0 {
		return nil, nil
	}
	restricted := restrictedRegions(in.Rule.Text)

	var hits []types.PotentialViolation
	for _, col := range geoCols {
		vals, err := c.backend.Distinct(ctx, in.Table, col, distinctSampleLimit)
		if err != nil {
			c.log.WithError(err).Debugf("could not check geographic restriction on %s.%s", in.Table, col)
			continue
		}
		if len(vals) == 0 {
			continue
		}
		regions := make([]string, 0, 10)
		for _, v := range vals {
			if len(regions) == 10 {
				break
			}
			regions = append(regions, fmt.Sprint(v))
		}
		details := fmt.Sprintf("Geographic data found in %s. Manual review needed for compliance.", col)
		if len(restricted) > 0 {
			details = fmt.Sprintf("Geographic data found in %s (rule restricts %s). Manual review needed for compliance.",
				col, strings.Join(restricted, ", "))
		}
		// This category never self-resolves; it only surfaces data for
		// manual adjudication.
		hits = append(hits, types.PotentialViolation{
			Type:           types.RuleGeoRestrict,
			Table:          in.Table,
			Column:         col,
			RuleID:         in.Rule.ID,
			RuleText:       in.Rule.Text,
			UniqueRegions:  regions,
			Details:        details,
			RequiresReview: true,
		})
	}
	return hits, nil
}

func restrictedRegions(ruleText string) []string {
	lower := strings.ToLower(ruleText)
	var out []string
	if strings.Contains(lower, "eu") || strings.Contains(lower, "eea") {
		out = append(out, "EU/EEA")
	}
	if strings.Contains(lower, "us") {
		out = append(out, "US")
	}
	return out
}

func (c *checker) auditLogging(_ context.Context, in checkInput) ([]types.PotentialViolation, error) {
	for _, col := range in.Columns {
		if nameContainsAny(col, auditColumnNames) {
			return nil, nil
		}
	}
	return []types.PotentialViolation{{
		Type:           types.RuleAuditLogging,
		Table:          in.Table,
		RuleID:         in.Rule.ID,
		RuleText:       in.Rule.Text,
		Details:        fmt.Sprintf("Table %s lacks audit columns (created_at, updated_at, etc.)", in.Table),
		RequiresReview: true,
	}}, nil
}

func (c *checker) predicate(ctx context.Context, in checkInput) ([]types.PotentialViolation, error) {
	if in.Rule.SQLCondition == "" {
		return nil, nil
	}
	d := c.backend.Dialect()
	if !d.IsSQL() {
		return nil, nil
	}
	q := fmt.Sprintf("SELECT COUNT(*) AS count FROM %s WHERE %s",
		d.Quote(in.Table), in.Rule.SQLCondition)
	count, err := c.countQuery(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("condition check on %s: %w", in.Table, err)
	}
	if count == 0 {
		return nil, nil
	}
	return []types.PotentialViolation{{
		Type:         in.Rule.Type,
		Table:        in.Table,
		RuleID:       in.Rule.ID,
		RuleText:     in.Rule.Text,
		Count:        int(count),
		SQLCondition: in.Rule.SQLCondition,
		Details:      fmt.Sprintf("Found %d records matching violation condition", count),
	}}, nil
}

func (c *checker) countQuery(ctx context.Context, q string) (int64, error) {
	rows, err := c.backend.Query(ctx, q)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return countValue(rows[0]["count"])
}

func countValue(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case float64:
		return int64(n), nil
	case string:
		return strconv.ParseInt(n, 10, 64)
	case []byte:
		return strconv.ParseInt(string(n), 10, 64)
	case nil:
		return 0, nil
	}
	return 0, fmt.Errorf("unexpected count value %T", v)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
