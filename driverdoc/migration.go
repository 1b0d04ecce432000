package driverdoc

import (
	"context"
	"fmt"

	"github.com/warlockjs/cascade/migrate"
)

// DocumentMigrationDriver renders spec.md §4.5's DDL atoms as collection/
// index/validator operations against a NativeClient. Columns are dynamic
// in this engine, so the column-shaped atoms either translate into a
// schema-validator update or are no-ops where the operation has no
// collection-level meaning; each case says which.
type DocumentMigrationDriver struct {
	client NativeClient
}

// NewDocumentMigrationDriver returns a MigrationDriver rendering atoms
// against client.
func NewDocumentMigrationDriver(client NativeClient) *DocumentMigrationDriver {
	return &DocumentMigrationDriver{client: client}
}

func (d *DocumentMigrationDriver) CreateTable(ctx context.Context, table string, columns []migrate.ColumnDefinition) error {
	return wrap(d.client.CreateCollection(ctx, table, validatorFromColumns(columns)), "createTable")
}

func (d *DocumentMigrationDriver) CreateTableIfNotExists(ctx context.Context, table string, columns []migrate.ColumnDefinition) error {
	exists, err := d.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return d.CreateTable(ctx, table, columns)
}

func (d *DocumentMigrationDriver) DropTable(ctx context.Context, table string) error {
	return wrap(d.client.DropCollection(ctx, table), "dropTable")
}

func (d *DocumentMigrationDriver) DropTableIfExists(ctx context.Context, table string) error {
	exists, err := d.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	return d.DropTable(ctx, table)
}

func (d *DocumentMigrationDriver) RenameTable(ctx context.Context, from, to string) error {
	return wrap(d.client.RenameCollection(ctx, from, to), "renameTable")
}

func (d *DocumentMigrationDriver) TruncateTable(ctx context.Context, table string) error {
	_, err := d.client.DeleteMany(ctx, table, map[string]any{})
	return wrap(err, "truncateTable")
}

func (d *DocumentMigrationDriver) TableExists(ctx context.Context, table string) (bool, error) {
	names, err := d.client.ListCollections(ctx)
	if err != nil {
		return false, wrap(err, "tableExists")
	}
	for _, n := range names {
		if n == table {
			return true, nil
		}
	}
	return false, nil
}

func (d *DocumentMigrationDriver) ListColumns(ctx context.Context, table string) ([]migrate.ColumnInfo, error) {
	bp := NewDocumentBlueprint(d.client)
	return bp.GetColumns(ctx, table)
}

func (d *DocumentMigrationDriver) ListTables(ctx context.Context) ([]string, error) {
	names, err := d.client.ListCollections(ctx)
	return names, wrap(err, "listTables")
}

// EnsureMigrationsTable creates the migrations collection with a unique
// index on name, the document engine's equivalent of the relational
// migrations table (spec.md §6).
func (d *DocumentMigrationDriver) EnsureMigrationsTable(ctx context.Context, tableName string) error {
	exists, err := d.TableExists(ctx, tableName)
	if err != nil {
		return err
	}
	if !exists {
		if err := d.client.CreateCollection(ctx, tableName, nil); err != nil {
			return wrap(err, "ensureMigrationsTable")
		}
	}
	return wrap(d.client.CreateIndex(ctx, tableName, NativeIndexSpec{
		Name:   tableName + "_name_unique",
		Keys:   map[string]int{"name": 1},
		Unique: true,
	}), "ensureMigrationsTable")
}

// AddColumn is a no-op: document fields are dynamic and a future write
// simply carries the new field (spec.md §4.5's column atoms only have
// teeth on the relational engine).
func (d *DocumentMigrationDriver) AddColumn(ctx context.Context, table string, col migrate.ColumnDefinition) error {
	return nil
}

// DropColumn strips the field from every existing document via $unset,
// the one column atom with a real document-engine effect.
func (d *DocumentMigrationDriver) DropColumn(ctx context.Context, table, column string) error {
	_, _, err := d.client.UpdateMany(ctx, table, map[string]any{}, map[string]any{"$unset": map[string]any{column: ""}})
	return wrap(err, "dropColumn")
}

func (d *DocumentMigrationDriver) DropColumns(ctx context.Context, table string, columns []string) error {
	unset := map[string]any{}
	for _, c := range columns {
		unset[c] = ""
	}
	_, _, err := d.client.UpdateMany(ctx, table, map[string]any{}, map[string]any{"$unset": unset})
	return wrap(err, "dropColumns")
}

func (d *DocumentMigrationDriver) RenameColumn(ctx context.Context, table, from, to string) error {
	_, _, err := d.client.UpdateMany(ctx, table, map[string]any{}, map[string]any{"$rename": map[string]any{from: to}})
	return wrap(err, "renameColumn")
}

// ModifyColumn is a no-op: there is no static type to alter. If the
// collection carries a validator, callers should reissue
// SetSchemaValidation instead.
func (d *DocumentMigrationDriver) ModifyColumn(ctx context.Context, table string, col migrate.ColumnDefinition) error {
	return nil
}

// CreateTimestamps is a no-op: createdAt/updatedAt are set by the model
// layer at write time, not declared at the schema level, on this engine.
func (d *DocumentMigrationDriver) CreateTimestamps(ctx context.Context, table string) error {
	return nil
}

func (d *DocumentMigrationDriver) CreateIndex(ctx context.Context, idx migrate.IndexDefinition) error {
	return wrap(d.client.CreateIndex(ctx, idx.Table, toNativeIndex(idx)), "createIndex")
}

func (d *DocumentMigrationDriver) DropIndex(ctx context.Context, table, name string) error {
	return wrap(d.client.DropIndex(ctx, table, name), "dropIndex")
}

func (d *DocumentMigrationDriver) CreateUniqueIndex(ctx context.Context, idx migrate.IndexDefinition) error {
	idx.Unique = true
	return d.CreateIndex(ctx, idx)
}

func (d *DocumentMigrationDriver) DropUniqueIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

func (d *DocumentMigrationDriver) CreateFullTextIndex(ctx context.Context, idx migrate.IndexDefinition) error {
	spec := toNativeIndex(idx)
	spec.Text = true
	return wrap(d.client.CreateIndex(ctx, idx.Table, spec), "createFullTextIndex")
}

func (d *DocumentMigrationDriver) DropFullTextIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

func (d *DocumentMigrationDriver) CreateGeoIndex(ctx context.Context, idx migrate.IndexDefinition) error {
	spec := toNativeIndex(idx)
	spec.Geo = true
	return wrap(d.client.CreateIndex(ctx, idx.Table, spec), "createGeoIndex")
}

func (d *DocumentMigrationDriver) DropGeoIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

func (d *DocumentMigrationDriver) CreateVectorIndex(ctx context.Context, idx migrate.IndexDefinition) error {
	spec := toNativeIndex(idx)
	spec.Vector = true
	spec.VectorSimilarity = string(idx.Similarity)
	return wrap(d.client.CreateIndex(ctx, idx.Table, spec), "createVectorIndex")
}

func (d *DocumentMigrationDriver) DropVectorIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

// CreateTTLIndex creates a native TTL index: the document itself expires,
// unlike the relational engine's partial-index approximation that still
// needs an external sweep job (spec.md §4.5).
func (d *DocumentMigrationDriver) CreateTTLIndex(ctx context.Context, idx migrate.IndexDefinition) error {
	spec := toNativeIndex(idx)
	spec.TTLSeconds = idx.TTLSeconds
	return wrap(d.client.CreateIndex(ctx, idx.Table, spec), "createTTLIndex")
}

func (d *DocumentMigrationDriver) DropTTLIndex(ctx context.Context, table, name string) error {
	return d.DropIndex(ctx, table, name)
}

// AddForeignKey/DropForeignKey/AddPrimaryKey/DropPrimaryKey are no-ops:
// this engine has no native referential-integrity or composite-key
// constraint, the standard MongoDB limitation; enforcement belongs to the
// model layer above the driver.
func (d *DocumentMigrationDriver) AddForeignKey(ctx context.Context, table string, fk migrate.ForeignKeyDefinition) error {
	return nil
}

func (d *DocumentMigrationDriver) DropForeignKey(ctx context.Context, table, name string) error {
	return nil
}

func (d *DocumentMigrationDriver) AddPrimaryKey(ctx context.Context, table string, columns []string) error {
	return nil
}

func (d *DocumentMigrationDriver) DropPrimaryKey(ctx context.Context, table string) error {
	return nil
}

// AddCheck/DropCheck are no-ops: arbitrary boolean CHECK expressions have
// no native document-engine equivalent short of a full schema-validation
// DSL, which spec.md §1 explicitly excludes.
func (d *DocumentMigrationDriver) AddCheck(ctx context.Context, table string, chk migrate.CheckDefinition) error {
	return nil
}

func (d *DocumentMigrationDriver) DropCheck(ctx context.Context, table, name string) error {
	return nil
}

func (d *DocumentMigrationDriver) SetSchemaValidation(ctx context.Context, table string, schema map[string]any) error {
	return wrap(d.client.SetValidator(ctx, table, schema), "setSchemaValidation")
}

func (d *DocumentMigrationDriver) RemoveSchemaValidation(ctx context.Context, table string) error {
	return wrap(d.client.RemoveValidator(ctx, table), "removeSchemaValidation")
}

// SupportsTransactions reports false: this implementation's NativeSession
// is scoped to CRUD, not transactional DDL, so migrations on this engine
// always run outside a transaction.
func (d *DocumentMigrationDriver) SupportsTransactions() bool { return false }

func (d *DocumentMigrationDriver) BeginTx(ctx context.Context) (migrate.TxHandle, error) {
	return nil, wrap(fmt.Errorf("document migration driver does not support transactional DDL"), "beginTx")
}

// Raw has no SQL-text meaning on this engine; callers that need an escape
// hatch should reach for NativeClient directly.
func (d *DocumentMigrationDriver) Raw(ctx context.Context, sqlText string) error {
	return wrap(fmt.Errorf("raw DDL text has no document-engine translation"), "raw")
}

func toNativeIndex(idx migrate.IndexDefinition) NativeIndexSpec {
	keys := make(map[string]int, len(idx.Columns))
	for _, c := range idx.Columns {
		keys[c] = 1
	}
	return NativeIndexSpec{
		Name:   idx.Name,
		Keys:   keys,
		Unique: idx.Unique,
	}
}

// validatorFromColumns synthesizes a minimal $jsonSchema validator from a
// migration's column list, giving CreateTable a concrete effect beyond
// just creating the collection: required fields are enforced even though
// types remain dynamic otherwise.
func validatorFromColumns(columns []migrate.ColumnDefinition) map[string]any {
	var required []string
	for _, c := range columns {
		if c.NotNull {
			required = append(required, c.Name)
		}
	}
	if len(required) == 0 {
		return nil
	}
	return map[string]any{
		"$jsonSchema": map[string]any{
			"required": required,
		},
	}
}

func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	return migrate.WrapDriverError(err, op)
}
