package complyscan

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/config"
	"github.com/complyscan/complyscan/internal/history"
	"github.com/complyscan/complyscan/internal/report"
	"github.com/complyscan/complyscan/internal/rules"
	"github.com/complyscan/complyscan/internal/scan"
	"github.com/complyscan/complyscan/internal/violation"
)

var (
	flagDBType    string
	flagHost      string
	flagPort      int
	flagDBName    string
	flagUser      string
	flagPassword  string
	flagDSN       string
	flagRulesFile string
	flagTables    []string
	flagMinRisk   float64
	flagMaxRows   int
	flagHistory   bool
	flagHistFull  bool
	flagBaseline  string
	flagUpdateBL  bool
	flagFailOn    string
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a database against compliance rules",
		RunE:  runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagDBType, "db-type", "", "database type: postgresql|mysql|sqlite|mongodb")
	cmd.Flags().StringVar(&flagHost, "host", "", "database host")
	cmd.Flags().IntVar(&flagPort, "port", 0, "database port")
	cmd.Flags().StringVar(&flagDBName, "db-name", "", "database name (file path for sqlite)")
	cmd.Flags().StringVar(&flagUser, "user", "", "database user")
	cmd.Flags().StringVar(&flagPassword, "password", "", "database password")
	cmd.Flags().StringVar(&flagDSN, "dsn", "", "full connection string (overrides host/port/name)")
	cmd.Flags().StringVarP(&flagRulesFile, "rules", "r", "", "rules file (YAML or JSON)")
	cmd.Flags().StringSliceVarP(&flagTables, "tables", "t", nil, "tables to scan (default: all)")
	cmd.Flags().Float64Var(&flagMinRisk, "min-risk", 0, "only show violations with risk score >= value")
	cmd.Flags().IntVar(&flagMaxRows, "max-rows", 0, "limit table output rows (0 = all)")
	cmd.Flags().BoolVar(&flagHistory, "history", true, "append the scan to the local history log")
	cmd.Flags().BoolVar(&flagHistFull, "history-full", false, "record every violation in the history log, not only the top ten")
	cmd.Flags().StringVar(&flagBaseline, "baseline", "", "baseline file of accepted violations to suppress")
	cmd.Flags().BoolVar(&flagUpdateBL, "update-baseline", false, "write the scan's violations to the baseline file and exit")
	cmd.Flags().StringVar(&flagFailOn, "fail-on", "", "exit non-zero when a violation at or above this severity remains: low|medium|high|critical")
}

func runScan(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	// Load configs: CLI > local > global.
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal("."); err == nil {
		lcfg = c
	}
	log := newLogger(pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor))

	bcfg := resolveBackendConfig(lcfg.Database, gcfg.Database)
	if bcfg.Type == "" {
		return fmt.Errorf("no database configured: set --db-type or a database section in .complyscan.yml")
	}

	rulesPath := pickString(flagRulesFile, lcfg.RulesFile, gcfg.RulesFile)
	if rulesPath == "" {
		return fmt.Errorf("no rules file: set --rules or rules_file in config")
	}
	ruleSet, err := rules.LoadFile(rulesPath)
	if err != nil {
		return err
	}
	for id, issues := range rules.ValidateAll(ruleSet) {
		for _, issue := range issues {
			log.Warnf("rule %s: %s", id, issue)
		}
	}

	b, err := backend.Open(ctx, bcfg)
	if err != nil {
		return err
	}
	defer b.Close()

	tables := flagTables
	if len(tables) == 0 {
		tables = pickStrings(nil, lcfg.Tables, gcfg.Tables)
	}

	scanner := scan.New(b,
		scan.WithLogger(log),
		scan.WithThreads(pickInt(flagThreads, lcfg.Threads, gcfg.Threads)),
	)
	result, err := scanner.Scan(ctx, ruleSet, tables...)
	if err != nil {
		return err
	}

	violations := violation.Score(result, ruleSet)
	if minRisk := pickFloat(flagMinRisk, lcfg.MinRisk, gcfg.MinRisk); minRisk > 0 {
		violations = violation.Filter(violations, violation.FilterOptions{MinRiskScore: minRisk})
	}

	if flagBaseline != "" {
		if flagUpdateBL {
			if err := report.SaveBaseline(flagBaseline, violations); err != nil {
				return fmt.Errorf("write baseline: %w", err)
			}
			log.Infof("baseline updated with %d violations", len(violations))
			return nil
		}
		base, err := report.LoadBaseline(flagBaseline)
		if err != nil {
			log.WithError(err).Warn("could not load baseline; showing all violations")
		} else {
			violations = report.FilterNewViolations(violations, base)
		}
	}

	// The flag defaults to on; an explicit --history always wins, otherwise
	// the config files may turn recording off.
	recordHistory := flagHistory
	if !cmd.Flags().Changed("history") && (lcfg.History != nil || gcfg.History != nil) {
		recordHistory = pickBool(false, lcfg.History, gcfg.History)
	}
	if recordHistory {
		dir := pickString("", lcfg.HistoryDir, gcfg.HistoryDir)
		if err := history.New(dir).Append(history.NewRecord(result, violations, flagHistFull)); err != nil {
			log.WithError(err).Warn("could not append scan history")
		}
	}

	if flagJSON {
		if err := report.WriteJSON(os.Stdout, report.New(result.ScanID, violations)); err != nil {
			return err
		}
	} else {
		if err := report.PrintTable(os.Stdout, violations, report.PrintOptions{MaxRows: flagMaxRows}); err != nil {
			return err
		}
		if n := len(result.Diagnostics); n > 0 {
			fmt.Fprintf(os.Stderr, "%d checks failed; re-run with --verbose for details\n", n)
		}
	}

	if flagFailOn != "" && report.ShouldFail(violations, flagFailOn) {
		return fmt.Errorf("violations at or above the %s threshold remain", flagFailOn)
	}
	return nil
}

func resolveBackendConfig(local, global *config.DatabaseConfig) backend.Config {
	var l, g config.DatabaseConfig
	if local != nil {
		l = *local
	}
	if global != nil {
		g = *global
	}
	return backend.Config{
		Type:     pickString(flagDBType, l.Type, g.Type),
		Host:     pickString(flagHost, l.Host, g.Host),
		Port:     pickInt(flagPort, l.Port, g.Port),
		Name:     pickString(flagDBName, l.Name, g.Name),
		User:     pickString(flagUser, l.User, g.User),
		Password: pickString(flagPassword, l.Password, g.Password),
		DSN:      pickString(flagDSN, l.DSN, g.DSN),
	}
}
