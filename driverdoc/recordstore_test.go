package driverdoc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade/driverdoc"
	"github.com/warlockjs/cascade/migrate"
)

func TestDocumentRecordStoreEnsureTableCreatesUniqueNameIndex(t *testing.T) {
	client := &fakeClient{}
	store := driverdoc.NewDocumentRecordStore(client, "_migrations")

	require.NoError(t, store.EnsureTable(context.Background()))
}

func TestDocumentRecordStoreListParsesBatchNumbers(t *testing.T) {
	client := &fakeClient{aggregateRows: []map[string]any{
		{"name": "001_create_users", "batch": 1, "executedAt": time.Now()},
		{"name": "002_create_posts", "batch": int64(1), "executedAt": time.Now()},
	}}
	store := driverdoc.NewDocumentRecordStore(client, "_migrations")

	records, err := store.List(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Batch)
	assert.Equal(t, 1, records[1].Batch)
}

func TestDocumentRecordStoreInsertAndDelete(t *testing.T) {
	client := &fakeClient{}
	store := driverdoc.NewDocumentRecordStore(client, "_migrations")

	require.NoError(t, store.Insert(context.Background(), migrate.Record{Name: "001_create_users", Batch: 1}))
	assert.Equal(t, "001_create_users", client.lastInsert["name"])

	require.NoError(t, store.Delete(context.Background(), "001_create_users"))
	assert.Equal(t, map[string]any{"name": "001_create_users"}, client.lastDeleteFilter)
}

func TestDocumentRecordStoreDefaultsCollectionName(t *testing.T) {
	store := driverdoc.NewDocumentRecordStore(&fakeClient{}, "")
	require.NoError(t, store.EnsureTable(context.Background()))
}
