package driverdoc_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade"
	"github.com/warlockjs/cascade/driverdoc"
)

// fakeClient is a driverdoc.NativeClient recording the last call made to
// each method and serving canned responses, standing in for a real
// document-store client (spec.md §1's explicit non-goal of vendoring one).
type fakeClient struct {
	pingErr error

	insertOneDoc map[string]any
	insertOneErr error
	lastInsert   map[string]any

	findOneDoc map[string]any
	findOneErr error

	updateOneMatched, updateOneModified int64
	updateOneErr                       error
	lastUpdateFilter, lastUpdateDoc    map[string]any
	lastUpdateUpsert                   bool

	deleteOneN int64
	deleteOneErr error
	lastDeleteFilter map[string]any

	findOneAndUpdateDoc map[string]any
	findOneAndUpdateErr error

	findOneAndDeleteDoc map[string]any

	aggregateRows []map[string]any
	aggregateErr  error
	lastPipeline  []map[string]any

	updateManyMatched, updateManyModified int64
	deleteManyN                           int64
}

func (f *fakeClient) Ping(ctx context.Context) error  { return f.pingErr }
func (f *fakeClient) Close(ctx context.Context) error { return nil }

func (f *fakeClient) InsertOne(ctx context.Context, collection string, doc map[string]any) (map[string]any, error) {
	f.lastInsert = doc
	if f.insertOneErr != nil {
		return nil, f.insertOneErr
	}
	if f.insertOneDoc != nil {
		return f.insertOneDoc, nil
	}
	return doc, nil
}

func (f *fakeClient) InsertMany(ctx context.Context, collection string, docs []map[string]any) ([]map[string]any, error) {
	return docs, nil
}

func (f *fakeClient) FindOne(ctx context.Context, collection string, filter map[string]any) (map[string]any, error) {
	return f.findOneDoc, f.findOneErr
}

func (f *fakeClient) Aggregate(ctx context.Context, collection string, pipeline []map[string]any) ([]map[string]any, error) {
	f.lastPipeline = pipeline
	return f.aggregateRows, f.aggregateErr
}

func (f *fakeClient) UpdateOne(ctx context.Context, collection string, filter, update map[string]any, upsert bool) (int64, int64, error) {
	f.lastUpdateFilter, f.lastUpdateDoc, f.lastUpdateUpsert = filter, update, upsert
	return f.updateOneMatched, f.updateOneModified, f.updateOneErr
}

func (f *fakeClient) UpdateMany(ctx context.Context, collection string, filter, update map[string]any) (int64, int64, error) {
	return f.updateManyMatched, f.updateManyModified, nil
}

func (f *fakeClient) DeleteOne(ctx context.Context, collection string, filter map[string]any) (int64, error) {
	f.lastDeleteFilter = filter
	return f.deleteOneN, f.deleteOneErr
}

func (f *fakeClient) DeleteMany(ctx context.Context, collection string, filter map[string]any) (int64, error) {
	return f.deleteManyN, nil
}

func (f *fakeClient) FindOneAndUpdate(ctx context.Context, collection string, filter, update map[string]any, upsert bool) (map[string]any, error) {
	f.lastUpdateFilter, f.lastUpdateDoc, f.lastUpdateUpsert = filter, update, upsert
	return f.findOneAndUpdateDoc, f.findOneAndUpdateErr
}

func (f *fakeClient) FindOneAndDelete(ctx context.Context, collection string, filter map[string]any) (map[string]any, error) {
	f.lastDeleteFilter = filter
	return f.findOneAndDeleteDoc, nil
}

func (f *fakeClient) ListCollections(ctx context.Context) ([]string, error) { return nil, nil }
func (f *fakeClient) CreateCollection(ctx context.Context, name string, validator map[string]any) error {
	return nil
}
func (f *fakeClient) DropCollection(ctx context.Context, name string) error      { return nil }
func (f *fakeClient) RenameCollection(ctx context.Context, from, to string) error { return nil }

func (f *fakeClient) CreateIndex(ctx context.Context, collection string, idx driverdoc.NativeIndexSpec) error {
	return nil
}
func (f *fakeClient) DropIndex(ctx context.Context, collection, name string) error { return nil }
func (f *fakeClient) ListIndexes(ctx context.Context, collection string) ([]driverdoc.NativeIndexSpec, error) {
	return nil, nil
}

func (f *fakeClient) SetValidator(ctx context.Context, collection string, schema map[string]any) error {
	return nil
}
func (f *fakeClient) RemoveValidator(ctx context.Context, collection string) error { return nil }

func (f *fakeClient) StartSession(ctx context.Context) (driverdoc.NativeSession, error) {
	return nil, errors.New("sessions not supported by fakeClient")
}

func connectedDriver(t *testing.T, client *fakeClient) *driverdoc.Driver {
	t.Helper()
	d := driverdoc.New(client, driverdoc.Config{})
	require.NoError(t, d.Connect(context.Background()))
	return d
}

func TestDriverInsertDropsNilID(t *testing.T) {
	client := &fakeClient{}
	d := connectedDriver(t, client)

	_, err := d.Insert(context.Background(), "users", map[string]any{"id": nil, "name": "Ada"})
	require.NoError(t, err)
	assert.NotContains(t, client.lastInsert, "id")
	assert.Equal(t, "Ada", client.lastInsert["name"])
}

func TestDriverInsertDryRunNeverCallsClient(t *testing.T) {
	client := &fakeClient{}
	d := driverdoc.New(client, driverdoc.Config{DryRun: true})
	require.NoError(t, d.Connect(context.Background()))

	got, err := d.Insert(context.Background(), "users", map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
	assert.Nil(t, client.lastInsert, "dry-run must not reach the native client")
}

func TestDriverRequiresConnectionBeforeCRUD(t *testing.T) {
	d := driverdoc.New(&fakeClient{}, driverdoc.Config{})

	_, err := d.Insert(context.Background(), "users", map[string]any{"name": "Ada"})
	require.Error(t, err)
	assert.True(t, cascade.Is(err, cascade.KindConnectionNotConnected))
}

func TestDriverUpsertUsesFindOneAndUpdateWithUpsertTrue(t *testing.T) {
	client := &fakeClient{findOneAndUpdateDoc: map[string]any{"id": "1", "name": "Ada"}}
	d := connectedDriver(t, client)

	got, err := d.Upsert(context.Background(), "users",
		map[string]any{"email": "ada@example.com"}, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
	assert.True(t, client.lastUpdateUpsert)
	assert.Equal(t, map[string]any{"name": "Ada"}, client.lastUpdateDoc["$set"])
}

func TestDriverUpdateReturnsModifiedCount(t *testing.T) {
	client := &fakeClient{updateOneMatched: 1, updateOneModified: 1}
	d := connectedDriver(t, client)

	n, err := d.Update(context.Background(), "users", map[string]any{"id": "1"}, map[string]any{"$set": map[string]any{"name": "Grace"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestDriverTruncateTableDeletesEveryDocument(t *testing.T) {
	client := &fakeClient{deleteOneN: 0}
	d := connectedDriver(t, client)

	require.NoError(t, d.TruncateTable(context.Background(), "sessions"))
}

func TestDriverAggregateTranslatesRowsAndPropagatesErrors(t *testing.T) {
	client := &fakeClient{aggregateRows: []map[string]any{{"count": int64(3)}}}
	d := connectedDriver(t, client)

	pipeline := []map[string]any{{"$match": map[string]any{"active": true}}}
	rows, err := d.Aggregate(context.Background(), "users", pipeline)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(3), rows[0]["count"])
	assert.Equal(t, pipeline, client.lastPipeline)

	client.aggregateErr = errors.New("network blip")
	_, err = d.Aggregate(context.Background(), "users", pipeline)
	require.Error(t, err)
}
