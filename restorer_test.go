package cascade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade"
)

func TestRestorerRestoreClearsDeletedAtMarker(t *testing.T) {
	driver := &stubDriver{updateAffected: 1}
	registerTestDataSource(t, "restorer-restore", driver, cascade.DataSourceOptions{Default: true})

	m := cascade.Hydrate("users", "restorer-restore", "id", map[string]any{"id": 1, "deletedAt": nil})
	m.Set("deletedAt", "2024-01-01T00:00:00Z")
	m.SyncOriginal()

	r := cascade.NewRestorer(m)
	require.NoError(t, r.Restore(context.Background()))
	assert.Nil(t, m.Get("deletedAt"))
}

func TestRestoreFromTrashStripsBookkeepingFields(t *testing.T) {
	driver := &stubDriver{}

	row := map[string]any{"id": 1, "name": "Ada", "_originalTable": "users", "_trashedAt": "2024-01-01T00:00:00Z"}
	got, err := cascade.RestoreFromTrash(context.Background(), driver, "_trash", "users", row)
	require.NoError(t, err)
	assert.NotContains(t, got, "_originalTable")
	assert.NotContains(t, got, "_trashedAt")
	assert.Equal(t, "Ada", got["name"])
}
