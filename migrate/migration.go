package migrate

import (
	"context"

	"github.com/warlockjs/cascade/dialect"
)

// Migratable is the entity a migration author implements: table name,
// optional data source and ordering hint, and the Up/Down hooks that
// populate a Migration's pending operation queue (spec.md §4.6).
type Migratable interface {
	Name() string
	Table() string
	DataSource() string // empty selects the default data source
	CreatedAt() string  // RFC3339 date used for ordering; empty sorts after every dated migration
	Transactional() bool
	Up(m *Migration) error
	Down(m *Migration) error
}

// Migration is the fluent DSL bound to one driver/table pair. Its builder
// methods queue pending operations in call order; Execute flushes them
// after Up or Down returns (spec.md §4.6).
type Migration struct {
	driver          MigrationDriver
	blueprint       Blueprint
	table           string
	dataSource      string
	migrationsTable string

	pending []func(ctx context.Context) error
}

// NewMigration binds a Migration DSL instance to driver/blueprint for
// table, the shape MigrationRunner hands to each Migratable's Up/Down.
func NewMigration(driver MigrationDriver, bp Blueprint, table, dataSource string) *Migration {
	return &Migration{driver: driver, blueprint: bp, table: table, dataSource: dataSource}
}

func (m *Migration) Table() string      { return m.table }
func (m *Migration) DataSource() string { return m.dataSource }

func (m *Migration) queue(fn func(ctx context.Context) error) {
	m.pending = append(m.pending, fn)
}

// Execute runs every queued operation in order, stopping at the first
// error. Called by MigrationRunner after Up()/Down() returns.
func (m *Migration) Execute(ctx context.Context) error {
	for _, fn := range m.pending {
		if err := fn(ctx); err != nil {
			return err
		}
	}
	m.pending = nil
	return nil
}

// --- introspection helpers (delegate to Blueprint/MigrationDriver) ---------

func (m *Migration) HasTable(ctx context.Context) (bool, error) {
	return m.blueprint.HasTable(ctx, m.table)
}

func (m *Migration) HasColumn(ctx context.Context, column string) (bool, error) {
	return m.blueprint.HasColumn(ctx, m.table, column)
}

func (m *Migration) ListTables(ctx context.Context) ([]string, error) {
	return m.blueprint.ListTables(ctx)
}

func (m *Migration) GetColumns(ctx context.Context) ([]ColumnInfo, error) {
	return m.blueprint.GetColumns(ctx, m.table)
}

func (m *Migration) GetIndexes(ctx context.Context) ([]NeutralIndex, error) {
	return m.blueprint.GetIndexes(ctx, m.table)
}

func (m *Migration) HasIndex(ctx context.Context, name string) (bool, error) {
	return m.blueprint.HasIndex(ctx, m.table, name)
}

// --- table-level builders ----------------------------------------------------

// TableBuilder accumulates columns for a single CreateTable call.
type TableBuilder struct {
	m       *Migration
	columns []*ColumnDefinition
}

// CreateTable queues a single CreateTable operation built by populate,
// reserving its position in the queue before populate runs so that any
// column modifier which registers its own operation (Unique, Index,
// References) is queued strictly after the table itself exists.
func (m *Migration) CreateTable(populate func(t *TableBuilder)) *Migration {
	slot := len(m.pending)
	m.pending = append(m.pending, nil)
	tb := &TableBuilder{m: m}
	populate(tb)
	cols := tb.columns
	m.pending[slot] = func(ctx context.Context) error {
		flat := make([]ColumnDefinition, len(cols))
		for i, c := range cols {
			flat[i] = *c
		}
		return m.driver.CreateTable(ctx, m.table, flat)
	}
	return m
}

// CreateTableIfNotExists is CreateTable using CreateTableIfNotExists.
func (m *Migration) CreateTableIfNotExists(populate func(t *TableBuilder)) *Migration {
	slot := len(m.pending)
	m.pending = append(m.pending, nil)
	tb := &TableBuilder{m: m}
	populate(tb)
	cols := tb.columns
	m.pending[slot] = func(ctx context.Context) error {
		flat := make([]ColumnDefinition, len(cols))
		for i, c := range cols {
			flat[i] = *c
		}
		return m.driver.CreateTableIfNotExists(ctx, m.table, flat)
	}
	return m
}

func (tb *TableBuilder) Column(name string, t dialect.ColumnType) *ColumnBuilder {
	col := &ColumnDefinition{Name: name, Type: t}
	tb.columns = append(tb.columns, col)
	return &ColumnBuilder{m: tb.m, col: col}
}

// Timestamps adds createdAt/updatedAt columns defaulting to NOW().
func (tb *TableBuilder) Timestamps() *TableBuilder {
	tb.columns = append(tb.columns,
		&ColumnDefinition{Name: "createdAt", Type: dialect.Timestamp, Default: "CURRENT_TIMESTAMP"},
		&ColumnDefinition{Name: "updatedAt", Type: dialect.Timestamp, Default: "CURRENT_TIMESTAMP"},
	)
	return tb
}

func (m *Migration) DropTable() *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropTable(ctx, m.table) })
	return m
}

func (m *Migration) DropTableIfExists() *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropTableIfExists(ctx, m.table) })
	return m
}

func (m *Migration) RenameTable(to string) *Migration {
	from := m.table
	m.queue(func(ctx context.Context) error { return m.driver.RenameTable(ctx, from, to) })
	m.table = to
	return m
}

func (m *Migration) Truncate() *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.TruncateTable(ctx, m.table) })
	return m
}

// --- column-level builders ---------------------------------------------------

// ColumnBuilder is returned by AddColumn/ModifyColumn and TableBuilder's
// Column. Its modifiers mutate the ColumnDefinition pointer in place, which
// the operation queued at construction time reads when Execute flushes the
// queue — so modifiers may run in any order before Execute, except that
// OnDeleteAction and OnUpdateAction only take effect after References.
type ColumnBuilder struct {
	m   *Migration
	col *ColumnDefinition
	fk  *ForeignKeyDefinition
}

func (m *Migration) AddColumn(name string, t dialect.ColumnType) *ColumnBuilder {
	col := &ColumnDefinition{Name: name, Type: t}
	cb := &ColumnBuilder{m: m, col: col}
	m.queue(func(ctx context.Context) error { return m.driver.AddColumn(ctx, m.table, *col) })
	return cb
}

func (m *Migration) ModifyColumn(name string, t dialect.ColumnType) *ColumnBuilder {
	col := &ColumnDefinition{Name: name, Type: t}
	cb := &ColumnBuilder{m: m, col: col}
	m.queue(func(ctx context.Context) error { return m.driver.ModifyColumn(ctx, m.table, *col) })
	return cb
}

func (m *Migration) DropColumn(name string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropColumn(ctx, m.table, name) })
	return m
}

func (m *Migration) DropColumns(names ...string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropColumns(ctx, m.table, names) })
	return m
}

func (m *Migration) RenameColumn(from, to string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.RenameColumn(ctx, m.table, from, to) })
	return m
}

func (m *Migration) CreateTimestamps() *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.CreateTimestamps(ctx, m.table) })
	return m
}

func (cb *ColumnBuilder) NotNull() *ColumnBuilder { cb.col.NotNull = true; return cb }
func (cb *ColumnBuilder) Nullable() *ColumnBuilder { cb.col.NotNull = false; return cb }
func (cb *ColumnBuilder) Default(v any) *ColumnBuilder { cb.col.Default = v; return cb }
func (cb *ColumnBuilder) RawDefault(expr string) *ColumnBuilder {
	cb.col.Default = expr
	cb.col.IsRawDefault = true
	return cb
}
func (cb *ColumnBuilder) AutoIncrement() *ColumnBuilder { cb.col.AutoIncrement = true; return cb }
func (cb *ColumnBuilder) Length(n int) *ColumnBuilder    { cb.col.Options.Length = n; return cb }
func (cb *ColumnBuilder) Precision(p, s int) *ColumnBuilder {
	cb.col.Options.Precision = p
	cb.col.Options.Scale = s
	return cb
}
func (cb *ColumnBuilder) Values(values ...string) *ColumnBuilder {
	cb.col.Options.Values = values
	return cb
}
func (cb *ColumnBuilder) Dimensions(n int) *ColumnBuilder { cb.col.Options.Dimensions = n; return cb }
func (cb *ColumnBuilder) Comment(s string) *ColumnBuilder { cb.col.Comment = s; return cb }

// Unique registers a unique index on this column, queued immediately after
// whatever operation this builder itself queued (spec.md §4.6 "column and
// foreign-key fluent builders call back into the migration to register
// indexes/constraints at the moment the chained modifier is invoked").
func (cb *ColumnBuilder) Unique() *ColumnBuilder {
	cb.col.Unique = true
	name := cb.m.table + "_" + cb.col.Name + "_unique"
	column := cb.col.Name
	table := cb.m.table
	cb.m.queue(func(ctx context.Context) error {
		return cb.m.driver.CreateUniqueIndex(ctx, IndexDefinition{Name: name, Table: table, Columns: []string{column}})
	})
	return cb
}

// Index registers a plain B-tree index on this column.
func (cb *ColumnBuilder) Index() *ColumnBuilder {
	name := cb.m.table + "_" + cb.col.Name + "_idx"
	column := cb.col.Name
	table := cb.m.table
	cb.m.queue(func(ctx context.Context) error {
		return cb.m.driver.CreateIndex(ctx, IndexDefinition{Name: name, Table: table, Columns: []string{column}})
	})
	return cb
}

// References queues a foreign key from this column to refTable(refColumn),
// defaulting both actions to NO ACTION until OnDeleteAction/OnUpdateAction
// override them.
func (cb *ColumnBuilder) References(refTable, refColumn string) *ColumnBuilder {
	fk := &ForeignKeyDefinition{
		Name:      cb.m.table + "_" + cb.col.Name + "_fkey",
		Column:    cb.col.Name,
		RefTable:  refTable,
		RefColumn: refColumn,
		OnDelete:  ActionNoAction,
		OnUpdate:  ActionNoAction,
	}
	cb.fk = fk
	table := cb.m.table
	cb.m.queue(func(ctx context.Context) error { return cb.m.driver.AddForeignKey(ctx, table, *fk) })
	return cb
}

func (cb *ColumnBuilder) OnDeleteAction(a ForeignKeyAction) *ColumnBuilder {
	if cb.fk != nil {
		cb.fk.OnDelete = a
	}
	return cb
}

func (cb *ColumnBuilder) OnUpdateAction(a ForeignKeyAction) *ColumnBuilder {
	if cb.fk != nil {
		cb.fk.OnUpdate = a
	}
	return cb
}

// --- direct index / constraint / transaction methods ------------------------

func (m *Migration) CreateIndex(name string, columns ...string) *Migration {
	table := m.table
	m.queue(func(ctx context.Context) error {
		return m.driver.CreateIndex(ctx, IndexDefinition{Name: name, Table: table, Columns: columns})
	})
	return m
}

func (m *Migration) DropIndex(name string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropIndex(ctx, m.table, name) })
	return m
}

func (m *Migration) CreateFullTextIndex(name string, columns ...string) *Migration {
	table := m.table
	m.queue(func(ctx context.Context) error {
		return m.driver.CreateFullTextIndex(ctx, IndexDefinition{Name: name, Table: table, Columns: columns, Kind: IndexFullText})
	})
	return m
}

func (m *Migration) CreateVectorIndex(name, column string, similarity VectorSimilarity, lists int) *Migration {
	table := m.table
	m.queue(func(ctx context.Context) error {
		return m.driver.CreateVectorIndex(ctx, IndexDefinition{
			Name: name, Table: table, Columns: []string{column}, Kind: IndexVector, Similarity: similarity, Lists: lists,
		})
	})
	return m
}

func (m *Migration) CreateTTLIndex(name, column string, seconds int) *Migration {
	table := m.table
	m.queue(func(ctx context.Context) error {
		return m.driver.CreateTTLIndex(ctx, IndexDefinition{Name: name, Table: table, Columns: []string{column}, Kind: IndexTTL, TTLSeconds: seconds})
	})
	return m
}

func (m *Migration) AddCheck(name, expression string) *Migration {
	m.queue(func(ctx context.Context) error {
		return m.driver.AddCheck(ctx, m.table, CheckDefinition{Name: name, Expression: expression})
	})
	return m
}

func (m *Migration) DropCheck(name string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropCheck(ctx, m.table, name) })
	return m
}

func (m *Migration) AddPrimaryKey(columns ...string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.AddPrimaryKey(ctx, m.table, columns) })
	return m
}

func (m *Migration) DropPrimaryKey() *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.DropPrimaryKey(ctx, m.table) })
	return m
}

func (m *Migration) Raw(sqlText string) *Migration {
	m.queue(func(ctx context.Context) error { return m.driver.Raw(ctx, sqlText) })
	return m
}
