// Package cascade is a database access layer sitting between application
// code and heterogeneous storage engines: a relational engine (Postgres
// semantics) and a document engine (Mongo-like). It presents one
// engine-neutral programming surface — a fluent query builder, a
// schema-migration engine, and a model/persistence layer — translating
// each into the native idiom of whichever engine a data source configures.
package cascade

import (
	"context"

	"github.com/warlockjs/cascade/migrate"
)

// RegisterDataSource binds driver under opts.Name in the process-wide
// registry, electing it default per withDefaults/Options.Default rules,
// and returns the registered DataSource (spec.md §6 "registerDataSource").
func RegisterDataSource(driver Driver, opts DataSourceOptions) (*DataSource, error) {
	opts = opts.withDefaults()
	ds := &DataSource{Name: opts.Name, Options: opts, Driver: driver}
	if err := defaultRegistry.Register(ds); err != nil {
		return nil, err
	}
	return ds, nil
}

// GetDataSource returns the named data source, or the process default when
// name is empty.
func GetDataSource(name string) (*DataSource, error) {
	return defaultRegistry.Get(name)
}

// ClearDataSources removes every registered data source and migration
// runner. Intended for test teardown.
func ClearDataSources() {
	defaultRegistry.Clear()
}

// Events returns the process-wide registry's event bus
// (registered/default-registered/connected/disconnected).
func Events() *EventBus {
	return defaultRegistry.Events()
}

// RegisterMigration registers m on the runner for its own DataSource()
// (the process default when empty).
func RegisterMigration(m migrate.Migratable) error {
	runner, err := defaultRegistry.RunnerFor(m.DataSource())
	if err != nil {
		return err
	}
	return runner.Register(m)
}

// RegisterMigrations registers every entry in ms, stopping at the first
// error. Entries may target different data sources; each is routed to its
// own runner.
func RegisterMigrations(ms []migrate.Migratable) error {
	for _, m := range ms {
		if err := RegisterMigration(m); err != nil {
			return err
		}
	}
	return nil
}

// RunAll runs every pending migration registered against dataSource (the
// process default when empty), per spec.md §4.7's batch semantics.
func RunAll(ctx context.Context, dataSource string, dryRun bool) ([]migrate.RunResult, error) {
	runner, err := defaultRegistry.RunnerFor(dataSource)
	if err != nil {
		return nil, err
	}
	return runner.RunAll(ctx, dryRun)
}

// RollbackLast reverses the most recently applied batch on dataSource.
func RollbackLast(ctx context.Context, dataSource string, dryRun bool) ([]migrate.RunResult, error) {
	runner, err := defaultRegistry.RunnerFor(dataSource)
	if err != nil {
		return nil, err
	}
	return runner.RollbackLast(ctx, dryRun)
}

// RollbackBatches reverses the last n batches on dataSource.
func RollbackBatches(ctx context.Context, dataSource string, n int, dryRun bool) ([]migrate.RunResult, error) {
	runner, err := defaultRegistry.RunnerFor(dataSource)
	if err != nil {
		return nil, err
	}
	return runner.RollbackBatches(ctx, n, dryRun)
}

// RollbackAll reverses every recorded migration on dataSource.
func RollbackAll(ctx context.Context, dataSource string, dryRun bool) ([]migrate.RunResult, error) {
	runner, err := defaultRegistry.RunnerFor(dataSource)
	if err != nil {
		return nil, err
	}
	return runner.RollbackAll(ctx, dryRun)
}

// Fresh rolls back every migration on dataSource, then runs them all again.
func Fresh(ctx context.Context, dataSource string) ([]migrate.RunResult, error) {
	runner, err := defaultRegistry.RunnerFor(dataSource)
	if err != nil {
		return nil, err
	}
	return runner.Fresh(ctx)
}

// Status reports every migration registered against dataSource joined with
// its recorded state.
func Status(ctx context.Context, dataSource string) ([]migrate.StatusEntry, error) {
	runner, err := defaultRegistry.RunnerFor(dataSource)
	if err != nil {
		return nil, err
	}
	return runner.Status(ctx)
}
