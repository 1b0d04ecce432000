package driverdoc_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade/driverdoc"
)

type blueprintClient struct {
	fakeClient
	collections []string
	sample      map[string]any
	indexes     []driverdoc.NativeIndexSpec
}

func (c *blueprintClient) ListCollections(ctx context.Context) ([]string, error) {
	return c.collections, nil
}

func (c *blueprintClient) FindOne(ctx context.Context, collection string, filter map[string]any) (map[string]any, error) {
	return c.sample, nil
}

func (c *blueprintClient) ListIndexes(ctx context.Context, collection string) ([]driverdoc.NativeIndexSpec, error) {
	return c.indexes, nil
}

func TestDocumentBlueprintHasTable(t *testing.T) {
	client := &blueprintClient{collections: []string{"users", "orders"}}
	bp := driverdoc.NewDocumentBlueprint(client)

	ok, err := bp.HasTable(context.Background(), "orders")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = bp.HasTable(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDocumentBlueprintGetColumnsDerivesFromSampleDocument(t *testing.T) {
	client := &blueprintClient{sample: map[string]any{"id": "1", "name": "Ada"}}
	bp := driverdoc.NewDocumentBlueprint(client)

	cols, err := bp.GetColumns(context.Background(), "users")
	require.NoError(t, err)
	assert.Len(t, cols, 2)
	for _, c := range cols {
		assert.True(t, c.Nullable)
		assert.Equal(t, "dynamic", c.SQLType)
	}
}

func TestDocumentBlueprintGetIndexesClassifiesKind(t *testing.T) {
	client := &blueprintClient{indexes: []driverdoc.NativeIndexSpec{
		{Name: "embedding_idx", Keys: map[string]int{"embedding": 1}, Vector: true},
		{Name: "name_unique", Keys: map[string]int{"name": 1}, Unique: true},
	}}
	bp := driverdoc.NewDocumentBlueprint(client)

	indexes, err := bp.GetIndexes(context.Background(), "docs")
	require.NoError(t, err)
	require.Len(t, indexes, 2)
	assert.Equal(t, "vector", indexes[0].Type)
	assert.Equal(t, "btree", indexes[1].Type)
	assert.True(t, indexes[1].Unique)

	has, err := bp.HasIndex(context.Background(), "docs", "name_unique")
	require.NoError(t, err)
	assert.True(t, has)
}
