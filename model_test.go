package cascade_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/warlockjs/cascade"
)

func TestNewModelDefaultsPrimaryKeyToId(t *testing.T) {
	m := cascade.NewModel("users", "", "")
	assert.Equal(t, "id", m.PrimaryKey())
	assert.True(t, m.IsNew())
	assert.Nil(t, m.ID())
}

func TestHydrateMarksModelNotNew(t *testing.T) {
	row := map[string]any{"id": 5, "name": "Ada"}
	m := cascade.Hydrate("users", "", "id", row)
	assert.False(t, m.IsNew())
	assert.Equal(t, 5, m.ID())
	assert.Empty(t, m.Dirty(), "a freshly hydrated model has no pending changes")
}

func TestSetMarksFieldDirty(t *testing.T) {
	row := map[string]any{"id": 5, "name": "Ada"}
	m := cascade.Hydrate("users", "", "id", row)

	m.Set("name", "Grace")
	dirty := m.Dirty()
	assert.Equal(t, "Grace", dirty["name"])
	assert.NotContains(t, dirty, "id")
}

func TestSyncOriginalClearsDirtyState(t *testing.T) {
	m := cascade.NewModel("users", "", "id")
	m.Set("name", "Ada")
	assert.NotEmpty(t, m.Dirty())

	m.SyncOriginal()
	assert.Empty(t, m.Dirty())
}

func TestFillAssignsEveryKey(t *testing.T) {
	m := cascade.NewModel("users", "", "id")
	m.Fill(map[string]any{"name": "Ada", "age": 30})
	assert.Equal(t, "Ada", m.Get("name"))
	assert.Equal(t, 30, m.Get("age"))
}

func TestIsTrashedHandlesNilAndZeroTime(t *testing.T) {
	m := cascade.NewModel("users", "", "id")
	assert.False(t, m.IsTrashed("deletedAt"))

	m.Set("deletedAt", time.Time{})
	assert.False(t, m.IsTrashed("deletedAt"))

	m.Set("deletedAt", time.Now())
	assert.True(t, m.IsTrashed("deletedAt"))
}

func TestAttributesReturnsACopy(t *testing.T) {
	m := cascade.NewModel("users", "", "id")
	m.Set("name", "Ada")

	snapshot := m.Attributes()
	snapshot["name"] = "Mutated"

	assert.Equal(t, "Ada", m.Get("name"), "mutating the returned map must not affect the model")
}
