package cascade_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade"
)

func registerTestDataSource(t *testing.T, name string, driver *stubDriver, opts cascade.DataSourceOptions) {
	t.Helper()
	opts.Name = name
	_, err := cascade.RegisterDataSource(driver, opts)
	require.NoError(t, err)
	t.Cleanup(cascade.ClearDataSources)
}

func TestWriterInsertHydratesServerAssignedID(t *testing.T) {
	driver := &stubDriver{insertDoc: map[string]any{"id": 7, "name": "Ada"}}
	registerTestDataSource(t, "writer-insert", driver, cascade.DataSourceOptions{Default: true})

	m := cascade.NewModel("users", "writer-insert", "id")
	m.Set("name", "Ada")

	w := cascade.NewWriter(m)
	require.NoError(t, w.Insert(context.Background()))

	assert.False(t, m.IsNew())
	assert.Equal(t, 7, m.ID())
	assert.Empty(t, m.Dirty(), "inserted model must be clean after SyncOriginal")
}

func TestWriterUpdateSendsOnlyDirtyAttributes(t *testing.T) {
	driver := &stubDriver{updateAffected: 1}
	registerTestDataSource(t, "writer-update", driver, cascade.DataSourceOptions{Default: true})

	row := map[string]any{"id": 1, "name": "Ada"}
	m := cascade.Hydrate("users", "writer-update", "id", row)
	m.Set("name", "Grace")

	w := cascade.NewWriter(m)
	require.NoError(t, w.Update(context.Background()))
	assert.Empty(t, m.Dirty())
}

func TestWriterUpdateSkipsDriverCallWhenNothingIsDirty(t *testing.T) {
	driver := &stubDriver{updateErr: assert.AnError}
	registerTestDataSource(t, "writer-update-clean", driver, cascade.DataSourceOptions{Default: true})

	row := map[string]any{"id": 1, "name": "Ada"}
	m := cascade.Hydrate("users", "writer-update-clean", "id", row)

	w := cascade.NewWriter(m)
	require.NoError(t, w.Update(context.Background()), "an unchanged model must not reach the driver")
}

func TestWriterDeleteDefaultsToHardDelete(t *testing.T) {
	driver := &stubDriver{deleteAffected: 1}
	registerTestDataSource(t, "writer-delete-hard", driver, cascade.DataSourceOptions{Default: true})

	m := cascade.Hydrate("users", "writer-delete-hard", "id", map[string]any{"id": 1})
	w := cascade.NewWriter(m)
	require.NoError(t, w.Delete(context.Background()))
}

func TestWriterDeleteSoftSetsDeletedAtInstead(t *testing.T) {
	driver := &stubDriver{updateAffected: 1}
	registerTestDataSource(t, "writer-delete-soft", driver, cascade.DataSourceOptions{
		Default:               true,
		DefaultDeleteStrategy: string(cascade.DeleteSoft),
	})

	m := cascade.Hydrate("users", "writer-delete-soft", "id", map[string]any{"id": 1})
	w := cascade.NewWriter(m)
	require.NoError(t, w.Delete(context.Background()))
	assert.True(t, m.IsTrashed("deletedAt"))
}

func TestWriterDeleteTrashCopiesRowBeforeDeleting(t *testing.T) {
	driver := &stubDriver{deleteAffected: 1}
	registerTestDataSource(t, "writer-delete-trash", driver, cascade.DataSourceOptions{
		Default:               true,
		DefaultDeleteStrategy: string(cascade.DeleteTrash),
	})

	m := cascade.Hydrate("users", "writer-delete-trash", "id", map[string]any{"id": 1, "name": "Ada"})
	w := cascade.NewWriter(m)
	require.NoError(t, w.Delete(context.Background()))
}
