package cascade_test

import (
	"context"

	"github.com/warlockjs/cascade"
	"github.com/warlockjs/cascade/migrate"
	"github.com/warlockjs/cascade/query"
)

// stubDriver is a minimal cascade.Driver used by registry/model/transaction
// tests that only need a Driver identity, not real CRUD behavior.
type stubDriver struct {
	connected bool
	events    *cascade.EventBus

	insertDoc map[string]any
	insertErr error

	updateAffected int64
	updateErr      error

	deleteAffected int64
	deleteErr      error
}

func (d *stubDriver) bus() *cascade.EventBus {
	if d.events == nil {
		d.events = cascade.NewEventBus()
	}
	return d.events
}

func (d *stubDriver) Connect(ctx context.Context) error    { d.connected = true; return nil }
func (d *stubDriver) Disconnect(ctx context.Context) error { d.connected = false; return nil }
func (d *stubDriver) IsConnected() bool                    { return d.connected }

func (d *stubDriver) Insert(ctx context.Context, table string, doc map[string]any) (map[string]any, error) {
	if d.insertErr != nil {
		return nil, d.insertErr
	}
	if d.insertDoc != nil {
		return d.insertDoc, nil
	}
	return doc, nil
}

func (d *stubDriver) InsertMany(ctx context.Context, table string, docs []map[string]any) ([]map[string]any, error) {
	return docs, nil
}

func (d *stubDriver) Update(ctx context.Context, table string, filter, update map[string]any) (int64, error) {
	return d.updateAffected, d.updateErr
}

func (d *stubDriver) UpdateMany(ctx context.Context, table string, filter, update map[string]any) (int64, error) {
	return d.updateAffected, d.updateErr
}

func (d *stubDriver) Upsert(ctx context.Context, table string, filter, doc map[string]any) (map[string]any, error) {
	return doc, nil
}

func (d *stubDriver) FindOneAndUpdate(ctx context.Context, table string, filter, update map[string]any) (map[string]any, error) {
	return nil, nil
}

func (d *stubDriver) FindOneAndDelete(ctx context.Context, table string, filter map[string]any) (map[string]any, error) {
	return nil, nil
}

func (d *stubDriver) Delete(ctx context.Context, table string, filter map[string]any) (int64, error) {
	return d.deleteAffected, d.deleteErr
}

func (d *stubDriver) DeleteMany(ctx context.Context, table string, filter map[string]any) (int64, error) {
	return d.deleteAffected, d.deleteErr
}

func (d *stubDriver) TruncateTable(ctx context.Context, table string) error { return nil }

func (d *stubDriver) BeginTransaction(ctx context.Context, opts cascade.TxOptions) (cascade.Transaction, error) {
	return &stubTransaction{}, nil
}

func (d *stubDriver) QueryBuilder(table string) *query.Builder {
	return query.New(query.RootSpec{Table: table}, nil)
}

func (d *stubDriver) MigrationDriver() migrate.MigrationDriver { return nil }
func (d *stubDriver) Blueprint() migrate.Blueprint             { return nil }
func (d *stubDriver) RecordStore() migrate.RecordStore         { return nil }
func (d *stubDriver) Events() *cascade.EventBus                { return d.bus() }

type stubTransaction struct {
	committed bool
	rolledBack bool
}

func (t *stubTransaction) Commit(ctx context.Context) error   { t.committed = true; return nil }
func (t *stubTransaction) Rollback(ctx context.Context) error { t.rolledBack = true; return nil }
