package migrate

import "context"

// Executor is the raw SQL/DDL execution seam a MigrationDriver and
// Blueprint run against — deliberately narrower than query.SQLExecutor
// since DDL statements carry no bind params in this dialect (identifiers
// and literals are rendered inline by the migration driver itself).
type Executor interface {
	Exec(ctx context.Context, sqlText string) error
	Query(ctx context.Context, sqlText string) ([]map[string]any, error)
}
