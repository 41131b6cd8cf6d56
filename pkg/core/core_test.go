package core

import (
	"bytes"
	"context"
	"reflect"
	"testing"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/types"
)

// stubBackend is a canned single-table store for exercising the public
// entrypoint without a live database.
type stubBackend struct{}

func (stubBackend) Ping(context.Context) error { return nil }
func (stubBackend) Close() error               { return nil }
func (stubBackend) Dialect() backend.Dialect   { return backend.DialectSQLite }

func (stubBackend) ListTables(context.Context) ([]string, error) {
	return []string{"users"}, nil
}

func (stubBackend) Schema(_ context.Context, table string) (types.TableSchema, error) {
	return types.TableSchema{
		Name: table,
		Columns: []types.Column{
			{Name: "id", Type: "INTEGER"},
			{Name: "email", Type: "TEXT"},
		},
	}, nil
}

func (stubBackend) Query(context.Context, string, ...any) ([]map[string]any, error) {
	return []map[string]any{{"violation_count": int64(7)}}, nil
}

func (stubBackend) Sample(context.Context, string, int) ([]map[string]any, error) {
	return nil, nil
}

func (stubBackend) SampleColumn(context.Context, string, string, int) ([]any, error) {
	return []any{"alice@example.com"}, nil
}

func (stubBackend) Distinct(context.Context, string, string, int) ([]any, error) {
	return nil, nil
}

func TestScanBackend(t *testing.T) {
	rules := []Rule{
		{ID: "mask-001", Type: types.RuleMasking, Text: "emails must be masked"},
	}
	violations, err := ScanBackend(context.Background(), stubBackend{}, Config{Rules: rules})
	if err != nil {
		t.Fatalf("ScanBackend: %v", err)
	}
	if len(violations) != 1 {
		t.Fatalf("got %d violations", len(violations))
	}
	v := violations[0]
	if v.RuleID != "mask-001" || v.Table != "users" || v.Column != "email" {
		t.Fatalf("unexpected violation: %+v", v)
	}
	if v.Severity != types.SevMed {
		t.Fatalf("severity = %s", v.Severity)
	}
	if v.RiskScore <= 0 || v.RiskScore > 100 {
		t.Fatalf("risk score = %v", v.RiskScore)
	}
}

func TestScan_BadConfig(t *testing.T) {
	_, err := Scan(context.Background(), Config{Database: DatabaseConfig{Type: "oracle"}})
	if err == nil {
		t.Fatal("expected error for unknown store type")
	}
}

func TestViolationsJSONRoundTrip(t *testing.T) {
	in := []Violation{
		{ID: "v1", Table: "users", RuleID: "r1", Severity: types.SevHigh, RiskScore: 97.5, Status: types.StatusOpen},
	}
	var buf bytes.Buffer
	if err := MarshalViolations(&buf, in); err != nil {
		t.Fatal(err)
	}
	out, err := UnmarshalViolations(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || !reflect.DeepEqual(out[0], in[0]) {
		t.Fatalf("round trip mismatch: %+v", out)
	}
}
