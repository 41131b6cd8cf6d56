package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/complyscan/complyscan/internal/types"
)

var (
	// ErrNotConnected is returned when operations run before Open succeeds.
	ErrNotConnected = errors.New("backend not connected")
	// ErrUnsupportedQuery is returned by document backends for raw SQL.
	ErrUnsupportedQuery = errors.New("raw query not supported by this backend")
	// ErrUnknownDialect is returned by Open for an unrecognized database type.
	ErrUnknownDialect = errors.New("unknown database type")
)

// Dialect identifies the concrete store behind a Backend. Checkers use it
// to choose query forms and to skip checks the store cannot express.
type Dialect string

const (
	DialectPostgres Dialect = "postgresql"
	DialectMySQL    Dialect = "mysql"
	DialectSQLite   Dialect = "sqlite"
	DialectMongo    Dialect = "mongodb"
)

// IsSQL reports whether the dialect speaks SQL.
func (d Dialect) IsSQL() bool { return d != DialectMongo }

// HasDateArithmetic reports whether age/interval computations can be
// pushed down to the store.
func (d Dialect) HasDateArithmetic() bool { return d.IsSQL() }

// Quote wraps an identifier in the dialect's quoting characters.
func (d Dialect) Quote(ident string) string {
	if d == DialectMySQL {
		return "`" + ident + "`"
	}
	return `"` + ident + `"`
}

// Backend is the uniform access port over SQL and document stores.
// Implementations must be safe for concurrent use by multiple checkers.
type Backend interface {
	// Ping verifies the connection is alive.
	Ping(ctx context.Context) error
	// Close releases the underlying connection.
	Close() error
	// Dialect identifies the store for per-checker query selection.
	Dialect() Dialect

	// ListTables enumerates tables or collections.
	ListTables(ctx context.Context) ([]string, error)
	// Schema introspects one table or collection.
	Schema(ctx context.Context, table string) (types.TableSchema, error)
	// Query runs a parametrized read query and returns ordered field maps.
	// Document backends return ErrUnsupportedQuery.
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	// Sample returns up to limit rows from a table.
	Sample(ctx context.Context, table string, limit int) ([]map[string]any, error)
	// SampleColumn returns up to limit non-null values of one column.
	SampleColumn(ctx context.Context, table, column string, limit int) ([]any, error)
	// Distinct returns up to limit distinct non-null values of one column.
	Distinct(ctx context.Context, table, column string, limit int) ([]any, error)
}

// Config holds connection settings for Open.
type Config struct {
	Type     string // postgresql, mysql, sqlite, mongodb
	Host     string
	Port     int
	Name     string // database name, or file path for sqlite
	User     string
	Password string
	DSN      string // overrides the assembled connection string when set
}

// Open creates a Backend for the configured store and verifies the
// connection. The caller owns the returned Backend and must Close it.
func Open(ctx context.Context, cfg Config) (Backend, error) {
	switch Dialect(cfg.Type) {
	case DialectPostgres, DialectMySQL, DialectSQLite:
		return openSQL(ctx, cfg)
	case DialectMongo:
		return openMongo(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownDialect, cfg.Type)
}

// FullSchema introspects every table the backend exposes. Tables whose
// introspection fails are skipped with their error recorded.
func FullSchema(ctx context.Context, b Backend) (map[string]types.TableSchema, []error) {
	tables, err := b.ListTables(ctx)
	if err != nil {
		return nil, []error{err}
	}
	schemas := make(map[string]types.TableSchema, len(tables))
	var errs []error
	for _, t := range tables {
		s, err := b.Schema(ctx, t)
		if err != nil {
			errs = append(errs, fmt.Errorf("schema for %s: %w", t, err))
			continue
		}
		schemas[t] = s
	}
	return schemas, errs
}
