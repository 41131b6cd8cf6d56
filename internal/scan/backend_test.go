package scan

import (
	"context"
	"fmt"
	"sync"

	"github.com/complyscan/complyscan/internal/backend"
	"github.com/complyscan/complyscan/internal/types"
)

// fakeBackend is an in-memory Backend for checker and coordinator tests.
type fakeBackend struct {
	dialect backend.Dialect
	tables  []string
	schemas map[string]types.TableSchema

	// queryFn answers count queries; nil means every query fails.
	queryFn func(q string, args ...any) ([]map[string]any, error)
	// samples and distinct are keyed "table.column".
	samples  map[string][]any
	distinct map[string][]any

	mu          sync.Mutex
	queryCalls  int
	sampleCalls int
}

func (f *fakeBackend) Ping(context.Context) error { return nil }
func (f *fakeBackend) Close() error               { return nil }

func (f *fakeBackend) Dialect() backend.Dialect {
	if f.dialect == "" {
		return backend.DialectSQLite
	}
	return f.dialect
}

func (f *fakeBackend) ListTables(context.Context) ([]string, error) {
	return f.tables, nil
}

func (f *fakeBackend) Schema(_ context.Context, table string) (types.TableSchema, error) {
	s, ok := f.schemas[table]
	if !ok {
		return types.TableSchema{}, fmt.Errorf("no such table %s", table)
	}
	return s, nil
}

func (f *fakeBackend) Query(_ context.Context, q string, args ...any) ([]map[string]any, error) {
	f.mu.Lock()
	f.queryCalls++
	f.mu.Unlock()
	if f.queryFn == nil {
		return nil, fmt.Errorf("unexpected query: %s", q)
	}
	return f.queryFn(q, args...)
}

func (f *fakeBackend) Sample(_ context.Context, table string, limit int) ([]map[string]any, error) {
	return nil, nil
}

func (f *fakeBackend) SampleColumn(_ context.Context, table, column string, limit int) ([]any, error) {
	f.mu.Lock()
	f.sampleCalls++
	f.mu.Unlock()
	vals := f.samples[table+"."+column]
	if len(vals) > limit {
		vals = vals[:limit]
	}
	return vals, nil
}

func (f *fakeBackend) Distinct(_ context.Context, table, column string, limit int) ([]any, error) {
	vals := f.distinct[table+"."+column]
	if len(vals) > limit {
		vals = vals[:limit]
	}
	return vals, nil
}

func schemaOf(name string, cols ...string) types.TableSchema {
	s := types.TableSchema{Name: name}
	for _, c := range cols {
		s.Columns = append(s.Columns, types.Column{Name: c, Type: "text", Nullable: true})
	}
	return s
}
