package cascade

import (
	"context"

	"github.com/warlockjs/cascade/migrate"
	"github.com/warlockjs/cascade/query"
)

// TxOptions configures BeginTransaction (spec.md §4.8).
type TxOptions struct {
	IsolationLevel string // "", "read committed", "repeatable read", "serializable"
	ReadOnly       bool
	Deferrable     bool
}

// Transaction is the handle BeginTransaction returns: Commit/Rollback each
// issue the matching verb and release the underlying client (spec.md
// §4.8).
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Driver is the polymorphic handle every data source vends, over the
// capability set spec.md §3 enumerates: connection lifecycle, CRUD,
// transactions, a query builder factory, and the migration/introspection
// surface. Two concrete shapes exist — relational (driverpg) and document
// (driverdoc) — both satisfying this one contract so the rest of the
// package never branches on engine kind.
type Driver interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	Insert(ctx context.Context, table string, doc map[string]any) (map[string]any, error)
	InsertMany(ctx context.Context, table string, docs []map[string]any) ([]map[string]any, error)
	Update(ctx context.Context, table string, filter map[string]any, update map[string]any) (int64, error)
	UpdateMany(ctx context.Context, table string, filter map[string]any, update map[string]any) (int64, error)
	Upsert(ctx context.Context, table string, filter, doc map[string]any) (map[string]any, error)
	FindOneAndUpdate(ctx context.Context, table string, filter, update map[string]any) (map[string]any, error)
	FindOneAndDelete(ctx context.Context, table string, filter map[string]any) (map[string]any, error)
	Delete(ctx context.Context, table string, filter map[string]any) (int64, error)
	DeleteMany(ctx context.Context, table string, filter map[string]any) (int64, error)
	TruncateTable(ctx context.Context, table string) error

	BeginTransaction(ctx context.Context, opts TxOptions) (Transaction, error)

	// QueryBuilder returns a fresh Builder dispatching through this
	// driver, rooted at table.
	QueryBuilder(table string) *query.Builder

	MigrationDriver() migrate.MigrationDriver
	Blueprint() migrate.Blueprint
	RecordStore() migrate.RecordStore

	Events() *EventBus
}
