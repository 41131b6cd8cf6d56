package scan

import (
	"context"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/types"
)

// Scanner iterates the cross-product of tables and rules against a
// connected backend. It holds no mutable state between scans, so a single
// Scanner may run concurrent scans.
type Scanner struct {
	backend backend.Backend
	log     *logrus.Logger
	threads int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLogger overrides the default logger.
func WithLogger(log *logrus.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithThreads bounds the number of concurrent (table, rule) checks.
// Zero or negative means GOMAXPROCS.
func WithThreads(n int) Option {
	return func(s *Scanner) { s.threads = n }
}

// New creates a Scanner over the given backend.
func New(b backend.Backend, opts ...Option) *Scanner {
	s := &Scanner{backend: b, log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(s)
	}
	if s.threads <= 0 {
		s.threads = runtime.GOMAXPROCS(0)
	}
	return s
}

type pair struct {
	table   string
	columns []string
	rule    types.Rule
}

// Scan checks the given rules against the selected tables (all backend
// tables when none are given) and returns the aggregated result.
//
// Failure isolation: an error in one check becomes a diagnostic entry at
// the (table, rule) granularity; it never aborts the remaining
// cross-product. Only a missing or unreachable backend is fatal.
func (s *Scanner) Scan(ctx context.Context, rules []types.Rule, tables ...string) (types.ScanResult, error) {
	result := types.ScanResult{
		ScanID:       time.Now().UTC().Format("20060102_150405"),
		StartedAt:    time.Now().UTC(),
		RulesChecked: len(rules),
	}
	if s.backend == nil {
		return result, backend.ErrNotConnected
	}
	if err := s.backend.Ping(ctx); err != nil {
		return result, err
	}
	s.log.WithField("scan_id", result.ScanID).Info("starting database scan")

	allTables, err := s.backend.ListTables(ctx)
	if err != nil {
		return result, err
	}
	known := make(map[string]bool, len(allTables))
	for _, t := range allTables {
		known[t] = true
	}
	toScan := tables
	if len(toScan) == 0 {
		toScan = allTables
	}

	// Snapshot every schema once; downstream consumers (reports) rely on
	// the full snapshot, not just the scanned subset.
	schemas, schemaErrs := backend.FullSchema(ctx, s.backend)
	for _, err := range schemaErrs {
		s.log.WithError(err).Warn("schema introspection failed")
	}
	result.Schema = schemas

	var pairs []pair
	for _, table := range toScan {
		if !known[table] {
			s.log.WithField("table", table).Warn("table not found, skipping")
			continue
		}
		s.log.WithField("table", table).Info("scanning table")
		result.TablesScanned = append(result.TablesScanned, table)
		columns := schemas[table].ColumnNames()
		for _, rule := range rules {
			pairs = append(pairs, pair{table: table, columns: columns, rule: rule})
		}
	}

	// Checks are independent; run them with bounded parallelism and
	// reassemble in pair order so output is deterministic.
	hits := make([][]types.PotentialViolation, len(pairs))
	diags := make([]*types.ScanError, len(pairs))
	chk := &checker{backend: s.backend, log: s.log}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.threads)
	for i, p := range pairs {
		g.Go(func() error {
			found, err := chk.check(gctx, p.table, p.rule, p.columns)
			if err != nil {
				s.log.WithError(err).Warnf("error checking rule %s on table %s", p.rule.ID, p.table)
				diags[i] = &types.ScanError{Table: p.table, RuleID: p.rule.ID, Err: err.Error()}
				return nil
			}
			hits[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return result, err
	}

	for i := range pairs {
		result.Potential = append(result.Potential, hits[i]...)
		if diags[i] != nil {
			result.Diagnostics = append(result.Diagnostics, *diags[i])
		}
	}

	result.CompletedAt = time.Now().UTC()
	s.log.WithFields(logrus.Fields{
		"scan_id":    result.ScanID,
		"violations": len(result.Potential),
	}).Info("scan complete")
	return result, nil
}
