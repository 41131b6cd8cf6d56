package core

import (
	"context"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/scan"
	"github.com/complyscan/complyscan/internal/types"
	"github.com/complyscan/complyscan/internal/violation"
)

// Re-export selected internal types as a stable public API surface.
// These are type aliases so external consumers can depend on a stable path.
// We can replace these with decoupled structs later without breaking callers.
type (
	Rule       = types.Rule
	ScanResult = types.ScanResult
	Violation  = types.Violation
	Backend    = backend.Backend
)

// DatabaseConfig mirrors backend connection settings.
type DatabaseConfig = backend.Config

// Config controls a full scan-and-score run.
type Config struct {
	Database DatabaseConfig
	Rules    []Rule
	Tables   []string // empty means all tables
	Threads  int
}

// Scan is the stable entrypoint for other programs: it connects to the
// configured store, runs the rule cross-product, and returns scored
// violations sorted by risk.
func Scan(ctx context.Context, cfg Config) ([]Violation, error) {
	b, err := backend.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	defer b.Close()
	return ScanBackend(ctx, b, cfg)
}

// ScanBackend runs a scan over an already-open backend. The caller keeps
// ownership of the backend.
func ScanBackend(ctx context.Context, b Backend, cfg Config) ([]Violation, error) {
	scanner := scan.New(b, scan.WithThreads(cfg.Threads))
	result, err := scanner.Scan(ctx, cfg.Rules, cfg.Tables...)
	if err != nil {
		return nil, err
	}
	return violation.Score(result, cfg.Rules), nil
}
