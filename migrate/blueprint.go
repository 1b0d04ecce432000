package migrate

import (
	"context"
	"fmt"
)

// Blueprint is the read-only schema-introspection surface (spec.md §4.4).
// Missing tables return empty lists, never an error; failure to read the
// catalog itself is a typed error.
type Blueprint interface {
	HasTable(ctx context.Context, table string) (bool, error)
	HasColumn(ctx context.Context, table, column string) (bool, error)
	ListTables(ctx context.Context) ([]string, error)
	GetColumns(ctx context.Context, table string) ([]ColumnInfo, error)
	GetIndexes(ctx context.Context, table string) ([]NeutralIndex, error)
	HasIndex(ctx context.Context, table, name string) (bool, error)
}

// ColumnInfo is the neutral shape GetColumns returns.
type ColumnInfo struct {
	Name     string
	SQLType  string
	Nullable bool
	Default  *string
}

// PostgresBlueprint introspects information_schema and pg_catalog.
type PostgresBlueprint struct {
	Exec Executor
}

// NewPostgresBlueprint returns a Blueprint querying exec's catalog.
func NewPostgresBlueprint(exec Executor) *PostgresBlueprint {
	return &PostgresBlueprint{Exec: exec}
}

func (bp *PostgresBlueprint) HasTable(ctx context.Context, table string) (bool, error) {
	rows, err := bp.Exec.Query(ctx, fmt.Sprintf(
		`SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = '%s'`,
		escapeLiteral(table)))
	if err != nil {
		return false, wrapMigrationErr(err, "hasTable")
	}
	return len(rows) > 0, nil
}

func (bp *PostgresBlueprint) HasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := bp.Exec.Query(ctx, fmt.Sprintf(
		`SELECT 1 FROM information_schema.columns WHERE table_schema = 'public' AND table_name = '%s' AND column_name = '%s'`,
		escapeLiteral(table), escapeLiteral(column)))
	if err != nil {
		return false, wrapMigrationErr(err, "hasColumn")
	}
	return len(rows) > 0, nil
}

func (bp *PostgresBlueprint) ListTables(ctx context.Context) ([]string, error) {
	rows, err := bp.Exec.Query(ctx, `SELECT table_name FROM information_schema.tables WHERE table_schema = 'public' ORDER BY table_name`)
	if err != nil {
		return nil, wrapMigrationErr(err, "listTables")
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		if name, ok := r["table_name"].(string); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

func (bp *PostgresBlueprint) GetColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	rows, err := bp.Exec.Query(ctx, fmt.Sprintf(
		`SELECT column_name, data_type, is_nullable, column_default
		 FROM information_schema.columns
		 WHERE table_schema = 'public' AND table_name = '%s'
		 ORDER BY ordinal_position`, escapeLiteral(table)))
	if err != nil {
		return nil, wrapMigrationErr(err, "getColumns")
	}
	out := make([]ColumnInfo, 0, len(rows))
	for _, r := range rows {
		col := ColumnInfo{
			Name:     asString(r["column_name"]),
			SQLType:  asString(r["data_type"]),
			Nullable: asString(r["is_nullable"]) == "YES",
		}
		if d, ok := r["column_default"].(string); ok {
			col.Default = &d
		}
		out = append(out, col)
	}
	return out, nil
}

func (bp *PostgresBlueprint) GetIndexes(ctx context.Context, table string) ([]NeutralIndex, error) {
	rows, err := bp.Exec.Query(ctx, fmt.Sprintf(
		`SELECT indexname, indexdef FROM pg_indexes WHERE schemaname = 'public' AND tablename = '%s'`,
		escapeLiteral(table)))
	if err != nil {
		return nil, wrapMigrationErr(err, "getIndexes")
	}
	out := make([]NeutralIndex, 0, len(rows))
	for _, r := range rows {
		def := asString(r["indexdef"])
		out = append(out, NeutralIndex{
			Name:    asString(r["indexname"]),
			Type:    "btree",
			Unique:  containsWord(def, "UNIQUE"),
			Partial: containsWord(def, "WHERE"),
			Options: map[string]any{"definition": def},
		})
	}
	return out, nil
}

func (bp *PostgresBlueprint) HasIndex(ctx context.Context, table, name string) (bool, error) {
	indexes, err := bp.GetIndexes(ctx, table)
	if err != nil {
		return false, err
	}
	for _, idx := range indexes {
		if idx.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func containsWord(haystack, word string) bool {
	for i := 0; i+len(word) <= len(haystack); i++ {
		if haystack[i:i+len(word)] == word {
			return true
		}
	}
	return false
}
