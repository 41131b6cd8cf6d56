package backend

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/complyscan/complyscan/internal/types"
)

// sqlBackend serves PostgreSQL, MySQL, and SQLite through database/sql.
type sqlBackend struct {
	db      *sql.DB
	dialect Dialect
}

func openSQL(ctx context.Context, cfg Config) (*sqlBackend, error) {
	dialect := Dialect(cfg.Type)
	driver, dsn := buildDSN(cfg)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Type, err)
	}
	b := &sqlBackend{db: db, dialect: dialect}
	if err := b.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to %s: %w", cfg.Type, err)
	}
	return b, nil
}

func buildDSN(cfg Config) (driver, dsn string) {
	switch Dialect(cfg.Type) {
	case DialectPostgres:
		driver = "postgres"
		if cfg.DSN != "" {
			return driver, cfg.DSN
		}
		host, port := cfg.Host, cfg.Port
		if host == "" {
			host = "localhost"
		}
		if port == 0 {
			port = 5432
		}
		dsn = fmt.Sprintf("host=%s port=%d dbname=%s user=%s password=%s sslmode=disable",
			host, port, cfg.Name, cfg.User, cfg.Password)
	case DialectMySQL:
		driver = "mysql"
		if cfg.DSN != "" {
			return driver, cfg.DSN
		}
		host, port := cfg.Host, cfg.Port
		if host == "" {
			host = "localhost"
		}
		if port == 0 {
			port = 3306
		}
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			cfg.User, cfg.Password, host, port, cfg.Name)
	default: // sqlite
		driver = "sqlite3"
		dsn = cfg.DSN
		if dsn == "" {
			dsn = cfg.Name
		}
		if dsn == "" {
			dsn = ":memory:"
		}
	}
	return driver, dsn
}

func (b *sqlBackend) Ping(ctx context.Context) error {
	if b.db == nil {
		return ErrNotConnected
	}
	return b.db.PingContext(ctx)
}

func (b *sqlBackend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *sqlBackend) Dialect() Dialect { return b.dialect }

// placeholder renders the dialect's bind parameter for position n (1-based).
func (b *sqlBackend) placeholder(n int) string {
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

func (b *sqlBackend) ListTables(ctx context.Context) ([]string, error) {
	if b.db == nil {
		return nil, ErrNotConnected
	}
	var q string
	switch b.dialect {
	case DialectPostgres:
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	case DialectMySQL:
		q = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = DATABASE() AND table_type = 'BASE TABLE'
			ORDER BY table_name`
	default:
		q = `SELECT name FROM sqlite_master
			WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
			ORDER BY name`
	}
	rows, err := b.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()
	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

func (b *sqlBackend) Schema(ctx context.Context, table string) (types.TableSchema, error) {
	schema := types.TableSchema{Name: table}
	if b.db == nil {
		return schema, ErrNotConnected
	}
	if b.dialect == DialectSQLite {
		return b.sqliteSchema(ctx, table)
	}

	cols, err := b.Query(ctx, fmt.Sprintf(
		`SELECT column_name, data_type, is_nullable
		 FROM information_schema.columns
		 WHERE table_name = %s%s
		 ORDER BY ordinal_position`,
		b.placeholder(1), b.schemaFilter(2)), table)
	if err != nil {
		return schema, fmt.Errorf("columns for %s: %w", table, err)
	}
	for _, row := range cols {
		schema.Columns = append(schema.Columns, types.Column{
			Name:     asString(row["column_name"]),
			Type:     asString(row["data_type"]),
			Nullable: strings.EqualFold(asString(row["is_nullable"]), "YES"),
		})
	}
	schema.PrimaryKey = b.primaryKey(ctx, table)
	schema.ForeignKeys = b.foreignKeys(ctx, table)
	schema.Indexes = b.indexes(ctx, table)
	return schema, nil
}

// schemaFilter scopes information_schema lookups to the current database
// on MySQL; PostgreSQL queries are already scoped to the public schema.
func (b *sqlBackend) schemaFilter(_ int) string {
	switch b.dialect {
	case DialectMySQL:
		return " AND table_schema = DATABASE()"
	case DialectPostgres:
		return " AND table_schema = 'public'"
	}
	return ""
}

func (b *sqlBackend) primaryKey(ctx context.Context, table string) []string {
	var q string
	switch b.dialect {
	case DialectPostgres:
		q = `SELECT a.attname FROM pg_index i
			JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
			WHERE i.indrelid = $1::regclass AND i.indisprimary`
	case DialectMySQL:
		q = `SELECT column_name FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ? AND constraint_name = 'PRIMARY'
			ORDER BY ordinal_position`
	default:
		return nil
	}
	rows, err := b.Query(ctx, q, table)
	if err != nil {
		return nil
	}
	var pk []string
	for _, row := range rows {
		for _, v := range row {
			pk = append(pk, asString(v))
		}
	}
	return pk
}

func (b *sqlBackend) foreignKeys(ctx context.Context, table string) []types.ForeignKey {
	var q string
	switch b.dialect {
	case DialectPostgres:
		q = `SELECT kcu.column_name, ccu.table_name AS referred_table, ccu.column_name AS referred_column
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name
			JOIN information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name
			WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = $1`
	case DialectMySQL:
		q = `SELECT column_name, referenced_table_name AS referred_table, referenced_column_name AS referred_column
			FROM information_schema.key_column_usage
			WHERE table_schema = DATABASE() AND table_name = ? AND referenced_table_name IS NOT NULL`
	default:
		return nil
	}
	rows, err := b.Query(ctx, q, table)
	if err != nil {
		return nil
	}
	var fks []types.ForeignKey
	for _, row := range rows {
		fks = append(fks, types.ForeignKey{
			Columns:         []string{asString(row["column_name"])},
			ReferredTable:   asString(row["referred_table"]),
			ReferredColumns: []string{asString(row["referred_column"])},
		})
	}
	return fks
}

func (b *sqlBackend) indexes(ctx context.Context, table string) []types.Index {
	var q string
	switch b.dialect {
	case DialectPostgres:
		q = `SELECT i.relname AS index_name, ix.indisunique AS is_unique, a.attname AS column_name
			FROM pg_class t
			JOIN pg_index ix ON t.oid = ix.indrelid
			JOIN pg_class i ON i.oid = ix.indexrelid
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
			WHERE t.relname = $1
			ORDER BY i.relname`
	case DialectMySQL:
		q = `SELECT index_name, non_unique, column_name
			FROM information_schema.statistics
			WHERE table_schema = DATABASE() AND table_name = ?
			ORDER BY index_name, seq_in_index`
	default:
		return nil
	}
	rows, err := b.Query(ctx, q, table)
	if err != nil {
		return nil
	}
	byName := map[string]*types.Index{}
	var order []string
	for _, row := range rows {
		name := asString(row["index_name"])
		idx, ok := byName[name]
		if !ok {
			unique := false
			switch b.dialect {
			case DialectPostgres:
				unique = asBool(row["is_unique"])
			case DialectMySQL:
				unique = asString(row["non_unique"]) == "0"
			}
			idx = &types.Index{Name: name, Unique: unique}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, asString(row["column_name"]))
	}
	out := make([]types.Index, 0, len(order))
	for _, name := range order {
		out = append(out, *byName[name])
	}
	return out
}

func (b *sqlBackend) sqliteSchema(ctx context.Context, table string) (types.TableSchema, error) {
	schema := types.TableSchema{Name: table}
	rows, err := b.Query(ctx, fmt.Sprintf("PRAGMA table_info(%s)", b.dialect.Quote(table)))
	if err != nil {
		return schema, fmt.Errorf("table_info for %s: %w", table, err)
	}
	for _, row := range rows {
		schema.Columns = append(schema.Columns, types.Column{
			Name:     asString(row["name"]),
			Type:     asString(row["type"]),
			Nullable: asString(row["notnull"]) == "0",
		})
		if asString(row["pk"]) != "0" && asString(row["pk"]) != "" {
			schema.PrimaryKey = append(schema.PrimaryKey, asString(row["name"]))
		}
	}
	if fkRows, err := b.Query(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", b.dialect.Quote(table))); err == nil {
		for _, row := range fkRows {
			schema.ForeignKeys = append(schema.ForeignKeys, types.ForeignKey{
				Columns:         []string{asString(row["from"])},
				ReferredTable:   asString(row["table"]),
				ReferredColumns: []string{asString(row["to"])},
			})
		}
	}
	if idxRows, err := b.Query(ctx, fmt.Sprintf("PRAGMA index_list(%s)", b.dialect.Quote(table))); err == nil {
		for _, row := range idxRows {
			idx := types.Index{
				Name:   asString(row["name"]),
				Unique: asString(row["unique"]) == "1",
			}
			if info, err := b.Query(ctx, fmt.Sprintf("PRAGMA index_info(%s)", b.dialect.Quote(idx.Name))); err == nil {
				for _, col := range info {
					idx.Columns = append(idx.Columns, asString(col["name"]))
				}
			}
			schema.Indexes = append(schema.Indexes, idx)
		}
	}
	return schema, nil
}

func (b *sqlBackend) Query(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	if b.db == nil {
		return nil, ErrNotConnected
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			if bs, ok := vals[i].([]byte); ok {
				row[c] = string(bs)
			} else {
				row[c] = vals[i]
			}
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (b *sqlBackend) Sample(ctx context.Context, table string, limit int) ([]map[string]any, error) {
	q := fmt.Sprintf("SELECT * FROM %s LIMIT %d", b.dialect.Quote(table), limit)
	return b.Query(ctx, q)
}

func (b *sqlBackend) SampleColumn(ctx context.Context, table, column string, limit int) ([]any, error) {
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
		b.dialect.Quote(column), b.dialect.Quote(table), b.dialect.Quote(column), limit)
	rows, err := b.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return columnValues(rows, column), nil
}

func (b *sqlBackend) Distinct(ctx context.Context, table, column string, limit int) ([]any, error) {
	q := fmt.Sprintf("SELECT DISTINCT %s FROM %s WHERE %s IS NOT NULL LIMIT %d",
		b.dialect.Quote(column), b.dialect.Quote(table), b.dialect.Quote(column), limit)
	rows, err := b.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return columnValues(rows, column), nil
}

func columnValues(rows []map[string]any, column string) []any {
	vals := make([]any, 0, len(rows))
	for _, row := range rows {
		vals = append(vals, row[column])
	}
	return vals
}

func asString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	}
	return fmt.Sprint(v)
}

func asBool(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		return b == "t" || b == "true" || b == "1"
	case int64:
		return b != 0
	}
	return false
}
