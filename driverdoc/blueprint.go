package driverdoc

import (
	"context"

	"github.com/warlockjs/cascade/migrate"
)

// DocumentBlueprint introspects collections and native indexes (spec.md
// §4.4: "for the document engine, enumerates collections and parses
// native index metadata into the neutral shape").
type DocumentBlueprint struct {
	client NativeClient
}

// NewDocumentBlueprint returns a Blueprint reading client's catalog.
func NewDocumentBlueprint(client NativeClient) *DocumentBlueprint {
	return &DocumentBlueprint{client: client}
}

func (bp *DocumentBlueprint) HasTable(ctx context.Context, table string) (bool, error) {
	names, err := bp.client.ListCollections(ctx)
	if err != nil {
		return false, wrap(err, "hasTable")
	}
	for _, n := range names {
		if n == table {
			return true, nil
		}
	}
	return false, nil
}

// HasColumn reports whether the one sampled document carries the field,
// since fields are dynamic rather than declared; a collection with no
// documents reports false for every column.
func (bp *DocumentBlueprint) HasColumn(ctx context.Context, table, column string) (bool, error) {
	cols, err := bp.GetColumns(ctx, table)
	if err != nil {
		return false, err
	}
	for _, c := range cols {
		if c.Name == column {
			return true, nil
		}
	}
	return false, nil
}

func (bp *DocumentBlueprint) ListTables(ctx context.Context) ([]string, error) {
	names, err := bp.client.ListCollections(ctx)
	return names, wrap(err, "listTables")
}

// GetColumns derives its answer from one sampled document's keys, since
// this engine has no catalog of declared columns the way
// information_schema does. A $jsonSchema validator's required fields are
// not read.
func (bp *DocumentBlueprint) GetColumns(ctx context.Context, table string) ([]migrate.ColumnInfo, error) {
	doc, err := bp.client.FindOne(ctx, table, map[string]any{})
	if err != nil {
		return nil, wrap(err, "getColumns")
	}
	out := make([]migrate.ColumnInfo, 0, len(doc))
	for k := range doc {
		out = append(out, migrate.ColumnInfo{Name: k, SQLType: "dynamic", Nullable: true})
	}
	return out, nil
}

func (bp *DocumentBlueprint) GetIndexes(ctx context.Context, table string) ([]migrate.NeutralIndex, error) {
	specs, err := bp.client.ListIndexes(ctx, table)
	if err != nil {
		return nil, wrap(err, "getIndexes")
	}
	out := make([]migrate.NeutralIndex, 0, len(specs))
	for _, s := range specs {
		cols := make([]string, 0, len(s.Keys))
		for k := range s.Keys {
			cols = append(cols, k)
		}
		kind := "btree"
		switch {
		case s.Text:
			kind = "text"
		case s.Geo:
			kind = "2dsphere"
		case s.Vector:
			kind = "vector"
		case s.TTLSeconds > 0:
			kind = "ttl"
		}
		out = append(out, migrate.NeutralIndex{
			Name:    s.Name,
			Columns: cols,
			Type:    kind,
			Unique:  s.Unique,
			Options: map[string]any{"ttlSeconds": s.TTLSeconds},
		})
	}
	return out, nil
}

func (bp *DocumentBlueprint) HasIndex(ctx context.Context, table, name string) (bool, error) {
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
