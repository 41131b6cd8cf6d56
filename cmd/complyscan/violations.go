package complyscan

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/complyscan/complyscan/internal/config"
	"github.com/complyscan/complyscan/internal/history"
	"github.com/complyscan/complyscan/internal/report"
	"github.com/complyscan/complyscan/internal/types"
	"github.com/complyscan/complyscan/internal/violation"
)

var (
	flagVScanID   string
	flagVSeverity string
	flagVMinRisk  float64
	flagVLimit    int
)

func init() {
	cmd := &cobra.Command{
		Use:   "violations",
		Short: "Show violations from recorded scans",
		Long:  "Reads the local scan history and prints the violations of the most recent scan, or of the scan selected with --scan.",
		RunE:  runViolations,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagVScanID, "scan", "", "scan id to show (default: most recent)")
	cmd.Flags().StringVar(&flagVSeverity, "severity", "", "only show this severity: low|medium|high|critical")
	cmd.Flags().Float64Var(&flagVMinRisk, "min-risk", 0, "only show violations with risk score >= value")
	cmd.Flags().IntVar(&flagVLimit, "limit", 0, "limit output rows (0 = all)")
}

func runViolations(_ *cobra.Command, _ []string) error {
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal("."); err == nil {
		lcfg = c
	}
	dir := pickString("", lcfg.HistoryDir, gcfg.HistoryDir)

	records, err := history.New(dir).Load()
	if err != nil {
		return fmt.Errorf("no scan history: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("scan history is empty")
	}

	rec := records[0]
	if flagVScanID != "" {
		found := false
		for _, r := range records {
			if r.ScanID == flagVScanID {
				rec, found = r, true
				break
			}
		}
		if !found {
			return fmt.Errorf("scan %s not found in history", flagVScanID)
		}
	}

	// Full violations are only present when the scan was recorded with
	// them; otherwise fall back to the top-entries summary.
	if len(rec.AllViolations) > 0 {
		violations := violation.Filter(rec.AllViolations, violation.FilterOptions{
			Severity:     types.Severity(flagVSeverity),
			MinRiskScore: flagVMinRisk,
		})
		if flagJSON {
			return report.WriteJSON(os.Stdout, report.New(rec.ScanID, violations))
		}
		return report.PrintTable(os.Stdout, violations, report.PrintOptions{MaxRows: flagVLimit})
	}

	entries := rec.TopViolations
	if flagVSeverity != "" || flagVMinRisk > 0 {
		var kept []history.Entry
		for _, e := range entries {
			if flagVSeverity != "" && e.Severity != flagVSeverity {
				continue
			}
			if e.Risk < flagVMinRisk {
				continue
			}
			kept = append(kept, e)
		}
		entries = kept
	}
	if flagVLimit > 0 && len(entries) > flagVLimit {
		entries = entries[:flagVLimit]
	}

	if flagJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Println("No violations recorded for scan", rec.ScanID)
		return nil
	}
	fmt.Printf("Scan %s (%s): %d violations, top entries:\n", rec.ScanID, rec.Timestamp.Format("2006-01-02 15:04"), rec.TotalViolations)
	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.Header([]string{"RISK", "SEVERITY", "TABLE", "RULE"})
	for _, e := range entries {
		if err := tbl.Append([]string{
			strconv.FormatFloat(e.Risk, 'f', 2, 64),
			e.Severity,
			e.Table,
			e.RuleID,
		}); err != nil {
			return err
		}
	}
	return tbl.Render()
}
