package driverdoc

import (
	"context"
	"sync"

	"github.com/warlockjs/cascade"
	"github.com/warlockjs/cascade/migrate"
	"github.com/warlockjs/cascade/query"
)

// Config is the subset of cascade.DataSourceOptions driverdoc consumes.
// DryRun/Logger mirror driverpg.Config so both engines honor the same
// Supplemented-Feature surface (spec.md Supplemented Features §C.2/C.3).
type Config struct {
	DryRun bool
	Logger cascade.Logger
}

// Driver is the NativeClient-backed document cascade.Driver. It owns no
// connection state of its own beyond what Client already manages; Connect/
// Disconnect simply ping/close Client, matching spec.md §3's "Driver
// exclusively owns its connection" for the document engine's thin-client
// shape.
type Driver struct {
	cfg    Config
	client NativeClient

	mu        sync.RWMutex
	connected bool

	events *cascade.EventBus
	logger cascade.Logger
}

// New returns a Driver wrapping client. Connect must be called before any
// CRUD method.
func New(client NativeClient, cfg Config) *Driver {
	logger := cfg.Logger
	if logger == nil {
		logger = cascade.NewDefaultLogger()
	}
	return &Driver{
		cfg:    cfg,
		client: client,
		events: cascade.NewEventBus(),
		logger: logger,
	}
}

func (d *Driver) Connect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.connected {
		return nil
	}
	if err := d.client.Ping(ctx); err != nil {
		return cascade.ConnectionError(cascade.KindConnectionConnectFailed, "failed to ping native client", err)
	}
	d.connected = true
	d.events.Emit("connected", d)
	return nil
}

func (d *Driver) Disconnect(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.connected {
		return nil
	}
	err := d.client.Close(ctx)
	d.connected = false
	d.events.Emit("disconnected", d)
	if err != nil {
		return cascade.ConnectionError(cascade.KindConnectionDisconnectFail, "failed to close native client", err)
	}
	return nil
}

func (d *Driver) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Driver) Events() *cascade.EventBus { return d.events }

func (d *Driver) requireConnected() error {
	if !d.IsConnected() {
		return cascade.NotConnectedError()
	}
	return nil
}

// QueryBuilder returns a fresh query.Builder dispatching aggregation
// pipelines through this driver, rooted at collection.
func (d *Driver) QueryBuilder(collection string) *query.Builder {
	parser := query.NewDocumentParser()
	dispatcher := query.NewDocumentDispatcher(parser, d)
	return query.New(query.RootSpec{Table: collection}, dispatcher)
}

// Aggregate implements query.PipelineExecutor.
func (d *Driver) Aggregate(ctx context.Context, collection string, pipeline []map[string]any) ([]query.Row, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	ctx, end := cascade.StartDriverSpan(ctx, "aggregate", cascade.SQLSpanAttrs("", len(pipeline), collection)...)
	docs, err := d.client.Aggregate(ctx, collection, pipeline)
	end(err)
	if d.logger != nil {
		d.logger.Debug("cascade.aggregate", "collection", collection, "stages", len(pipeline))
	}
	if err != nil {
		return nil, cascade.QueryError(err, "", nil)
	}
	out := make([]query.Row, len(docs))
	for i, doc := range docs {
		out[i] = query.Row(doc)
	}
	return out, nil
}

// UpdateMany implements query.PipelineExecutor.
func (d *Driver) UpdateMany(ctx context.Context, collection string, filter, update map[string]any) (int64, error) {
	if err := d.requireConnected(); err != nil {
		return 0, err
	}
	if d.cfg.DryRun {
		if d.logger != nil {
			d.logger.Info("cascade.updateMany.dryrun", "collection", collection, "filter", filter, "update", update)
		}
		return 0, nil
	}
	_, modified, err := d.client.UpdateMany(ctx, collection, filter, update)
	if err != nil {
		return 0, cascade.QueryError(err, "", nil)
	}
	return modified, nil
}

// DeleteMany implements query.PipelineExecutor.
func (d *Driver) DeleteMany(ctx context.Context, collection string, filter map[string]any) (int64, error) {
	if err := d.requireConnected(); err != nil {
		return 0, err
	}
	if d.cfg.DryRun {
		if d.logger != nil {
			d.logger.Info("cascade.deleteMany.dryrun", "collection", collection, "filter", filter)
		}
		return 0, nil
	}
	n, err := d.client.DeleteMany(ctx, collection, filter)
	if err != nil {
		return 0, cascade.QueryError(err, "", nil)
	}
	return n, nil
}

func (d *Driver) MigrationDriver() migrate.MigrationDriver { return &DocumentMigrationDriver{client: d.client} }
func (d *Driver) Blueprint() migrate.Blueprint             { return &DocumentBlueprint{client: d.client} }
func (d *Driver) RecordStore() migrate.RecordStore {
	return NewDocumentRecordStore(d.client, "_migrations")
}
