package cascade

import (
	"context"
	"time"

	"github.com/warlockjs/cascade/query"
)

// DeleteStrategy selects what Writer.Delete does to a row (spec.md §6
// "defaultDeleteStrategy"). "hard" issues a real DELETE; "soft" sets a
// deletedAt column instead; "trash" additionally copies the row into
// DefaultTrashTable before the hard delete.
type DeleteStrategy string

const (
	DeleteHard  DeleteStrategy = "hard"
	DeleteSoft  DeleteStrategy = "soft"
	DeleteTrash DeleteStrategy = "trash"
)

// Model/Writer/Restorer are specified at the interface level (spec.md's
// component table marks this layer "interface only"): dirty-tracking
// persistence, soft/trash delete strategies, and lifecycle events, without
// prescribing a struct-mapping or reflection layer on top. BaseModel is the
// map-attribute implementation every concrete model embeds.
type Model interface {
	Table() string
	DataSource() string
	PrimaryKey() string
	IsNew() bool
	Attributes() map[string]any
	Dirty() map[string]any
	SyncOriginal()
}

// ModelEvent names a lifecycle hook fired around a Writer operation.
type ModelEvent string

const (
	EventCreating ModelEvent = "creating"
	EventCreated  ModelEvent = "created"
	EventUpdating ModelEvent = "updating"
	EventUpdated  ModelEvent = "updated"
	EventSaving   ModelEvent = "saving"
	EventSaved    ModelEvent = "saved"
	EventDeleting ModelEvent = "deleting"
	EventDeleted  ModelEvent = "deleted"
	EventRestoring ModelEvent = "restoring"
	EventRestored  ModelEvent = "restored"
)

// BaseModel is the attribute-map model every concrete model embeds,
// tracking which fields changed since the last load/save the way a
// reflection-based ORM would track struct fields, without requiring one.
type BaseModel struct {
	table      string
	dataSource string
	primaryKey string

	attributes map[string]any
	original   map[string]any
	isNew      bool

	events *EventBus
}

// NewModel returns an empty, new (unsaved) model bound to table/dataSource.
// primaryKey defaults to "id" when empty.
func NewModel(table, dataSource, primaryKey string) *BaseModel {
	if primaryKey == "" {
		primaryKey = "id"
	}
	return &BaseModel{
		table:      table,
		dataSource: dataSource,
		primaryKey: primaryKey,
		attributes: map[string]any{},
		original:   map[string]any{},
		isNew:      true,
		events:     NewEventBus(),
	}
}

// Hydrate loads row as an existing (isNew=false) model's attributes.
// query.Builder's execution methods do not call it; they return raw rows.
func Hydrate(table, dataSource, primaryKey string, row query.Row) *BaseModel {
	m := NewModel(table, dataSource, primaryKey)
	m.isNew = false
	for k, v := range row {
		m.attributes[k] = v
	}
	m.SyncOriginal()
	return m
}

func (m *BaseModel) Table() string      { return m.table }
func (m *BaseModel) DataSource() string { return m.dataSource }
func (m *BaseModel) PrimaryKey() string { return m.primaryKey }
func (m *BaseModel) IsNew() bool        { return m.isNew }
func (m *BaseModel) Events() *EventBus  { return m.events }

// Get returns the current value of field, or nil if unset.
func (m *BaseModel) Get(field string) any { return m.attributes[field] }

// Set assigns field and marks it dirty until the next SyncOriginal.
func (m *BaseModel) Set(field string, value any) *BaseModel {
	m.attributes[field] = value
	return m
}

// Fill assigns every key in data.
func (m *BaseModel) Fill(data map[string]any) *BaseModel {
	for k, v := range data {
		m.attributes[k] = v
	}
	return m
}

// Attributes returns the full current attribute set.
func (m *BaseModel) Attributes() map[string]any {
	out := make(map[string]any, len(m.attributes))
	for k, v := range m.attributes {
		out[k] = v
	}
	return out
}

// Dirty returns the subset of attributes that differ from the last
// SyncOriginal snapshot (i.e. since load or last save).
func (m *BaseModel) Dirty() map[string]any {
	dirty := map[string]any{}
	for k, v := range m.attributes {
		if orig, ok := m.original[k]; !ok || orig != v {
			dirty[k] = v
		}
	}
	return dirty
}

// SyncOriginal snapshots the current attributes as the new baseline for
// Dirty, called after a successful load, insert, or update.
func (m *BaseModel) SyncOriginal() {
	m.original = make(map[string]any, len(m.attributes))
	for k, v := range m.attributes {
		m.original[k] = v
	}
}

// ID returns the primary key's current value, or nil when unset (a new,
// unsaved model).
func (m *BaseModel) ID() any { return m.attributes[m.primaryKey] }

// IsTrashed reports whether a soft-delete marker is set on this model.
func (m *BaseModel) IsTrashed(column string) bool {
	v, ok := m.attributes[column]
	if !ok || v == nil {
		return false
	}
	if t, ok := v.(time.Time); ok {
		return !t.IsZero()
	}
	return true
}

// emit runs listeners for event synchronously, passing m as the payload.
func (m *BaseModel) emit(event ModelEvent) {
	m.events.Emit(string(event), m)
}

// resolveDriver looks up the Driver backing this model's data source
// through the default registry, matching spec.md's "models hold no driver
// reference; they resolve it each call through the registry/context".
func (m *BaseModel) resolveDriver() (Driver, error) {
	ds, err := defaultRegistry.Get(m.dataSource)
	if err != nil {
		return nil, err
	}
	return ds.Driver, nil
}

// Query returns a fresh QueryBuilder rooted at this model's table, through
// its resolved driver.
func (m *BaseModel) Query(ctx context.Context) (*query.Builder, error) {
	driver, err := m.resolveDriver()
	if err != nil {
		return nil, err
	}
	return driver.QueryBuilder(m.table), nil
}
