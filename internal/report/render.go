package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/complyscan/complyscan/internal/types"
)

// PrintOptions controls human-readable rendering.
type PrintOptions struct {
	MaxRows int // 0 = no limit
}

// PrintTable renders violations as a bordered table followed by a
// summary footer. Violations arrive pre-sorted by risk score.
func PrintTable(w io.Writer, violations []types.Violation, opts PrintOptions) error {
	if len(violations) == 0 {
		fmt.Fprintln(w, "No violations found ✅")
		return nil
	}

	rows := violations
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		rows = rows[:opts.MaxRows]
	}

	tbl := tablewriter.NewWriter(w)
	tbl.Header([]string{"RISK", "SEVERITY", "TYPE", "TABLE", "COLUMN", "COUNT", "FRAMEWORKS"})
	for _, v := range rows {
		column := v.Column
		if column == "" && len(v.Columns) > 0 {
			column = strings.Join(v.Columns, ",")
		}
		if err := tbl.Append([]string{
			strconv.FormatFloat(v.RiskScore, 'f', 2, 64),
			string(v.Severity),
			string(v.RuleType),
			v.Table,
			column,
			strconv.Itoa(v.Count),
			strings.Join(v.Frameworks, ","),
		}); err != nil {
			return err
		}
	}
	if err := tbl.Render(); err != nil {
		return err
	}

	summary := Summarize(violations)
	fmt.Fprintf(w, "\nViolations: %d (critical: %d, high: %d, medium: %d, low: %d)\n",
		summary.TotalViolations,
		summary.BySeverity[string(types.SevCritical)],
		summary.BySeverity[string(types.SevHigh)],
		summary.BySeverity[string(types.SevMed)],
		summary.BySeverity[string(types.SevLow)])
	fmt.Fprintf(w, "Compliance score: %.0f/100\n", ComplianceScore(violations))
	return nil
}

// WriteJSON emits the full report envelope as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
