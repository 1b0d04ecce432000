package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/warlockjs/cascade/dialect"
)

// TxHandle is an Executor bound to a single DDL transaction.
type TxHandle interface {
	Executor
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Transactor is the optional capability an Executor may implement to
// support transactional DDL (spec.md §4.5 "transactions (begin/commit/
// rollback, supportsTransactions())"). Executors that don't implement it
// make SupportsTransactions() report false.
type Transactor interface {
	Begin(ctx context.Context) (TxHandle, error)
}

// MigrationDriver is the atom-level DDL contract (spec.md §4.5): a closed
// set of table/column/index/constraint/schema-validation/transaction
// operations a Migration's fluent DSL compiles down to.
type MigrationDriver interface {
	CreateTable(ctx context.Context, table string, columns []ColumnDefinition) error
	CreateTableIfNotExists(ctx context.Context, table string, columns []ColumnDefinition) error
	DropTable(ctx context.Context, table string) error
	DropTableIfExists(ctx context.Context, table string) error
	RenameTable(ctx context.Context, from, to string) error
	TruncateTable(ctx context.Context, table string) error
	TableExists(ctx context.Context, table string) (bool, error)
	ListColumns(ctx context.Context, table string) ([]ColumnInfo, error)
	ListTables(ctx context.Context) ([]string, error)
	EnsureMigrationsTable(ctx context.Context, tableName string) error

	AddColumn(ctx context.Context, table string, col ColumnDefinition) error
	DropColumn(ctx context.Context, table, column string) error
	DropColumns(ctx context.Context, table string, columns []string) error
	RenameColumn(ctx context.Context, table, from, to string) error
	ModifyColumn(ctx context.Context, table string, col ColumnDefinition) error
	CreateTimestamps(ctx context.Context, table string) error

	CreateIndex(ctx context.Context, idx IndexDefinition) error
	DropIndex(ctx context.Context, table, name string) error
	CreateUniqueIndex(ctx context.Context, idx IndexDefinition) error
	DropUniqueIndex(ctx context.Context, table, name string) error

	CreateFullTextIndex(ctx context.Context, idx IndexDefinition) error
	DropFullTextIndex(ctx context.Context, table, name string) error
	CreateGeoIndex(ctx context.Context, idx IndexDefinition) error
	DropGeoIndex(ctx context.Context, table, name string) error
	CreateVectorIndex(ctx context.Context, idx IndexDefinition) error
	DropVectorIndex(ctx context.Context, table, name string) error
	CreateTTLIndex(ctx context.Context, idx IndexDefinition) error
	DropTTLIndex(ctx context.Context, table, name string) error

	AddForeignKey(ctx context.Context, table string, fk ForeignKeyDefinition) error
	DropForeignKey(ctx context.Context, table, name string) error
	AddPrimaryKey(ctx context.Context, table string, columns []string) error
	DropPrimaryKey(ctx context.Context, table string) error
	AddCheck(ctx context.Context, table string, chk CheckDefinition) error
	DropCheck(ctx context.Context, table, name string) error

	SetSchemaValidation(ctx context.Context, table string, schema map[string]any) error
	RemoveSchemaValidation(ctx context.Context, table string) error

	SupportsTransactions() bool
	BeginTx(ctx context.Context) (TxHandle, error)

	Raw(ctx context.Context, sqlText string) error
}

// PostgresMigrationDriver renders spec.md §4.5's atoms as Postgres DDL and
// runs them through an Executor.
type PostgresMigrationDriver struct {
	Dialect dialect.Dialect
	Exec    Executor
}

// NewPostgresMigrationDriver returns a driver rendering DDL for d and
// running it through exec.
func NewPostgresMigrationDriver(d dialect.Dialect, exec Executor) *PostgresMigrationDriver {
	return &PostgresMigrationDriver{Dialect: d, Exec: exec}
}

func (d *PostgresMigrationDriver) quote(name string) string { return d.Dialect.QuoteIdentifier(name) }

func (d *PostgresMigrationDriver) renderColumn(col ColumnDefinition) string {
	var b strings.Builder
	b.WriteString(d.quote(col.Name))
	b.WriteByte(' ')

	isInt := col.Type == dialect.Integer || col.Type == dialect.BigInt
	if col.AutoIncrement && isInt {
		if col.Type == dialect.BigInt {
			b.WriteString("BIGSERIAL")
		} else {
			b.WriteString("SERIAL")
		}
	} else {
		b.WriteString(d.Dialect.GetSQLType(col.Type, col.Options))
	}

	if col.NotNull && !(col.AutoIncrement && isInt) {
		b.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(renderDefault(col.Default, col.IsRawDefault))
	}
	if col.Unique {
		b.WriteString(" UNIQUE")
	}
	return b.String()
}

// renderDefault renders a column's DEFAULT expression. The sentinel string
// "CURRENT_TIMESTAMP" always renders as NOW() regardless of IsRawDefault
// (spec.md §4.5 "a sentinel CURRENT_TIMESTAMP marker renders as NOW()");
// other raw defaults pass through verbatim, booleans/numbers render inline,
// and plain strings are quoted and escaped.
func renderDefault(value any, isRaw bool) string {
	if s, ok := value.(string); ok && s == "CURRENT_TIMESTAMP" {
		return "NOW()"
	}
	if isRaw {
		if s, ok := value.(string); ok {
			return s
		}
	}
	switch v := value.(type) {
	case bool:
		if v {
			return "TRUE"
		}
		return "FALSE"
	case string:
		return "'" + escapeLiteral(v) + "'"
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (d *PostgresMigrationDriver) CreateTable(ctx context.Context, table string, columns []ColumnDefinition) error {
	return d.createTable(ctx, table, columns, false)
}

func (d *PostgresMigrationDriver) CreateTableIfNotExists(ctx context.Context, table string, columns []ColumnDefinition) error {
	return d.createTable(ctx, table, columns, true)
}

func (d *PostgresMigrationDriver) createTable(ctx context.Context, table string, columns []ColumnDefinition, ifNotExists bool) error {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = d.renderColumn(c)
	}
	verb := "CREATE TABLE "
	if ifNotExists {
		verb += "IF NOT EXISTS "
	}
	sqlText := fmt.Sprintf("%s%s (%s)", verb, d.quote(table), strings.Join(defs, ", "))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "createTable")
}

func (d *PostgresMigrationDriver) DropTable(ctx context.Context, table string) error {
	return wrapMigrationErr(d.Exec.Exec(ctx, "DROP TABLE "+d.quote(table)), "dropTable")
}

func (d *PostgresMigrationDriver) DropTableIfExists(ctx context.Context, table string) error {
	return wrapMigrationErr(d.Exec.Exec(ctx, "DROP TABLE IF EXISTS "+d.quote(table)), "dropTableIfExists")
}

func (d *PostgresMigrationDriver) RenameTable(ctx context.Context, from, to string) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.quote(from), d.quote(to))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "renameTable")
}

func (d *PostgresMigrationDriver) TruncateTable(ctx context.Context, table string) error {
	return wrapMigrationErr(d.Exec.Exec(ctx, "TRUNCATE TABLE "+d.quote(table)), "truncateTable")
}

func (d *PostgresMigrationDriver) TableExists(ctx context.Context, table string) (bool, error) {
	bp := NewPostgresBlueprint(d.Exec)
	return bp.HasTable(ctx, table)
}

func (d *PostgresMigrationDriver) ListColumns(ctx context.Context, table string) ([]ColumnInfo, error) {
	bp := NewPostgresBlueprint(d.Exec)
	return bp.GetColumns(ctx, table)
}

func (d *PostgresMigrationDriver) ListTables(ctx context.Context) ([]string, error) {
	bp := NewPostgresBlueprint(d.Exec)
	return bp.ListTables(ctx)
}

func (d *PostgresMigrationDriver) EnsureMigrationsTable(ctx context.Context, tableName string) error {
	return d.CreateTableIfNotExists(ctx, tableName, []ColumnDefinition{
		{Name: "id", Type: dialect.Integer, AutoIncrement: true, NotNull: true},
		{Name: "name", Type: dialect.String, Options: dialect.TypeOptions{Length: 255}, NotNull: true, Unique: true},
		{Name: "batch", Type: dialect.Integer, NotNull: true},
		{Name: "executedAt", Type: dialect.Timestamp, NotNull: true, Default: "CURRENT_TIMESTAMP"},
		{Name: "createdAt", Type: dialect.Timestamp},
	})
}

func (d *PostgresMigrationDriver) AddColumn(ctx context.Context, table string, col ColumnDefinition) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.quote(table), d.renderColumn(col))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "addColumn")
}

func (d *PostgresMigrationDriver) DropColumn(ctx context.Context, table, column string) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", d.quote(table), d.quote(column))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "dropColumn")
}

func (d *PostgresMigrationDriver) DropColumns(ctx context.Context, table string, columns []string) error {
	for _, c := range columns {
		if err := d.DropColumn(ctx, table, c); err != nil {
			return err
		}
	}
	return nil
}

func (d *PostgresMigrationDriver) RenameColumn(ctx context.Context, table, from, to string) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s RENAME COLUMN %s TO %s", d.quote(table), d.quote(from), d.quote(to))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "renameColumn")
}

// ModifyColumn splits into up to three ALTERs — TYPE, SET/DROP NOT NULL,
// SET DEFAULT — per spec.md §4.5.
func (d *PostgresMigrationDriver) ModifyColumn(ctx context.Context, table string, col ColumnDefinition) error {
	base := fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s", d.quote(table), d.quote(col.Name))
	typeSQL := fmt.Sprintf("%s TYPE %s USING %s::%s", base, d.Dialect.GetSQLType(col.Type, col.Options), d.quote(col.Name), d.Dialect.GetSQLType(col.Type, col.Options))
	if err := d.Exec.Exec(ctx, typeSQL); err != nil {
		return wrapMigrationErr(err, "modifyColumn:type")
	}
	nullSQL := base + " DROP NOT NULL"
	if col.NotNull {
		nullSQL = base + " SET NOT NULL"
	}
	if err := d.Exec.Exec(ctx, nullSQL); err != nil {
		return wrapMigrationErr(err, "modifyColumn:notNull")
	}
	if col.Default != nil {
		defSQL := base + " SET DEFAULT " + renderDefault(col.Default, col.IsRawDefault)
		if err := d.Exec.Exec(ctx, defSQL); err != nil {
			return wrapMigrationErr(err, "modifyColumn:default")
		}
	}
	return nil
}

func (d *PostgresMigrationDriver) CreateTimestamps(ctx context.Context, table string) error {
	for _, name := range []string{"createdAt", "updatedAt"} {
		col := ColumnDefinition{Name: name, Type: dialect.Timestamp, Default: "CURRENT_TIMESTAMP"}
		if err := d.AddColumn(ctx, table, col); err != nil {
			return err
		}
	}
	return nil
}

// CreateIndex supports expression-based, partial, covering, and
// CONCURRENTLY index creation (spec.md §4.5).
func (d *PostgresMigrationDriver) CreateIndex(ctx context.Context, idx IndexDefinition) error {
	return wrapMigrationErr(d.Exec.Exec(ctx, d.renderCreateIndex(idx, false)), "createIndex")
}

func (d *PostgresMigrationDriver) CreateUniqueIndex(ctx context.Context, idx IndexDefinition) error {
	idx.Unique = true
	return wrapMigrationErr(d.Exec.Exec(ctx, d.renderCreateIndex(idx, false)), "createUniqueIndex")
}

func (d *PostgresMigrationDriver) renderCreateIndex(idx IndexDefinition, forceExpr bool) string {
	var b strings.Builder
	b.WriteString("CREATE ")
	if idx.Unique {
		b.WriteString("UNIQUE ")
	}
	b.WriteString("INDEX ")
	if idx.Concurrent {
		b.WriteString("CONCURRENTLY ")
	}
	b.WriteString(d.quote(idx.Name))
	b.WriteString(" ON ")
	b.WriteString(d.quote(idx.Table))
	b.WriteString(" (")
	cols := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		if idx.Expression || forceExpr {
			cols[i] = "(" + c + ")"
		} else {
			cols[i] = d.quote(c)
		}
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteByte(')')
	if len(idx.Include) > 0 {
		quoted := make([]string, len(idx.Include))
		for i, c := range idx.Include {
			quoted[i] = d.quote(c)
		}
		b.WriteString(" INCLUDE (")
		b.WriteString(strings.Join(quoted, ", "))
		b.WriteByte(')')
	}
	if idx.Where != "" {
		b.WriteString(" WHERE ")
		b.WriteString(idx.Where)
	}
	return b.String()
}

func (d *PostgresMigrationDriver) DropIndex(ctx context.Context, table, name string) error {
	return wrapMigrationErr(d.Exec.Exec(ctx, "DROP INDEX "+d.quote(name)), "dropIndex")
}

func (d *PostgresMigrationDriver) DropUniqueIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

// CreateFullTextIndex creates a GIN index over to_tsvector expressions.
func (d *PostgresMigrationDriver) CreateFullTextIndex(ctx context.Context, idx IndexDefinition) error {
	exprs := make([]string, len(idx.Columns))
	for i, c := range idx.Columns {
		exprs[i] = fmt.Sprintf("to_tsvector('english', %s)", d.quote(c))
	}
	sqlText := fmt.Sprintf("CREATE INDEX %s ON %s USING GIN ((%s))", d.quote(idx.Name), d.quote(idx.Table), strings.Join(exprs, " || ' ' || "))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "createFullTextIndex")
}

func (d *PostgresMigrationDriver) DropFullTextIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

// CreateGeoIndex creates a GiST index, the standard Postgres index type for
// geometric columns.
func (d *PostgresMigrationDriver) CreateGeoIndex(ctx context.Context, idx IndexDefinition) error {
	col := d.quote(idx.Columns[0])
	sqlText := fmt.Sprintf("CREATE INDEX %s ON %s USING GIST (%s)", d.quote(idx.Name), d.quote(idx.Table), col)
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "createGeoIndex")
}

func (d *PostgresMigrationDriver) DropGeoIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

// CreateVectorIndex maps similarity to an ivfflat operator class and
// defaults lists=100 (spec.md §4.5).
func (d *PostgresMigrationDriver) CreateVectorIndex(ctx context.Context, idx IndexDefinition) error {
	opClass := map[VectorSimilarity]string{
		SimilarityCosine:     "cosine_ops",
		SimilarityEuclidean:  "l2_ops",
		SimilarityDotProduct: "ip_ops",
	}[idx.Similarity]
	if opClass == "" {
		opClass = "cosine_ops"
	}
	lists := idx.Lists
	if lists <= 0 {
		lists = 100
	}
	col := d.quote(idx.Columns[0])
	sqlText := fmt.Sprintf("CREATE INDEX %s ON %s USING ivfflat (%s vector_%s) WITH (lists = %d)",
		d.quote(idx.Name), d.quote(idx.Table), col, opClass, lists)
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "createVectorIndex")
}

func (d *PostgresMigrationDriver) DropVectorIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

// CreateTTLIndex on the relational engine is a partial B-tree index; actual
// expiration must be performed by an external scheduled job (spec.md §4.5).
func (d *PostgresMigrationDriver) CreateTTLIndex(ctx context.Context, idx IndexDefinition) error {
	idx.Where = fmt.Sprintf("%s IS NOT NULL", d.quote(idx.Columns[0]))
	return wrapMigrationErr(d.Exec.Exec(ctx, d.renderCreateIndex(idx, false)), "createTTLIndex")
}

func (d *PostgresMigrationDriver) DropTTLIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

func foreignKeyVerb(a ForeignKeyAction) string {
	switch a {
	case ActionCascade:
		return "CASCADE"
	case ActionRestrict:
		return "RESTRICT"
	case ActionSetNull:
		return "SET NULL"
	default:
		return "NO ACTION"
	}
}

func (d *PostgresMigrationDriver) AddForeignKey(ctx context.Context, table string, fk ForeignKeyDefinition) error {
	onDelete := foreignKeyVerb(fk.OnDelete)
	onUpdate := foreignKeyVerb(fk.OnUpdate)
	sqlText := fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON DELETE %s ON UPDATE %s",
		d.quote(table), d.quote(fk.Name), d.quote(fk.Column), d.quote(fk.RefTable), d.quote(fk.RefColumn), onDelete, onUpdate)
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "addForeignKey")
}

func (d *PostgresMigrationDriver) DropForeignKey(ctx context.Context, table, name string) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.quote(table), d.quote(name))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "dropForeignKey")
}

func (d *PostgresMigrationDriver) AddPrimaryKey(ctx context.Context, table string, columns []string) error {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.quote(c)
	}
	sqlText := fmt.Sprintf("ALTER TABLE %s ADD PRIMARY KEY (%s)", d.quote(table), strings.Join(quoted, ", "))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "addPrimaryKey")
}

func (d *PostgresMigrationDriver) DropPrimaryKey(ctx context.Context, table string) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s_pkey", d.quote(table), table)
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "dropPrimaryKey")
}

func (d *PostgresMigrationDriver) AddCheck(ctx context.Context, table string, chk CheckDefinition) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s CHECK (%s)", d.quote(table), d.quote(chk.Name), chk.Expression)
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "addCheck")
}

func (d *PostgresMigrationDriver) DropCheck(ctx context.Context, table, name string) error {
	sqlText := fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", d.quote(table), d.quote(name))
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "dropCheck")
}

// SetSchemaValidation/RemoveSchemaValidation are no-ops on the relational
// engine: Postgres has no native JSON-schema validator the way the
// document engine does (spec.md §4.5 "no-op on engines without it").
func (d *PostgresMigrationDriver) SetSchemaValidation(ctx context.Context, table string, schema map[string]any) error {
	return nil
}

func (d *PostgresMigrationDriver) RemoveSchemaValidation(ctx context.Context, table string) error {
	return nil
}

func (d *PostgresMigrationDriver) SupportsTransactions() bool {
	_, ok := d.Exec.(Transactor)
	return ok
}

func (d *PostgresMigrationDriver) BeginTx(ctx context.Context) (TxHandle, error) {
	tx, ok := d.Exec.(Transactor)
	if !ok {
		return nil, wrapMigrationErr(fmt.Errorf("executor does not support transactional DDL"), "beginTx")
	}
	handle, err := tx.Begin(ctx)
	return handle, wrapMigrationErr(err, "beginTx")
}

func (d *PostgresMigrationDriver) Raw(ctx context.Context, sqlText string) error {
	return wrapMigrationErr(d.Exec.Exec(ctx, sqlText), "raw")
}
