package cascade

import (
	"context"
	"time"
)

// Writer persists a BaseModel: Save dispatches to Insert or Update
// depending on IsNew, Delete honors the data source's configured
// DeleteStrategy (spec.md §3 DataSource.defaultDeleteStrategy).
type Writer struct {
	model *BaseModel
}

// NewWriter binds a Writer to model.
func NewWriter(model *BaseModel) *Writer { return &Writer{model: model} }

// Save inserts a new model or updates an existing one, firing
// saving/saved around whichever branch runs.
func (w *Writer) Save(ctx context.Context) error {
	w.model.emit(EventSaving)
	var err error
	if w.model.IsNew() {
		err = w.Insert(ctx)
	} else {
		err = w.Update(ctx)
	}
	if err != nil {
		return err
	}
	w.model.emit(EventSaved)
	return nil
}

// Insert issues driver.Insert with the model's dirty attributes and
// hydrates the returned row (including any server-assigned primary key)
// back onto the model.
func (w *Writer) Insert(ctx context.Context) error {
	m := w.model
	m.emit(EventCreating)

	driver, err := m.resolveDriver()
	if err != nil {
		return err
	}
	result, err := driver.Insert(ctx, m.table, m.Attributes())
	if err != nil {
		return err
	}
	m.Fill(result)
	m.isNew = false
	m.SyncOriginal()

	m.emit(EventCreated)
	return nil
}

// Update issues driver.Update scoped to the model's primary key, sending
// only the dirty attribute subset.
func (w *Writer) Update(ctx context.Context) error {
	m := w.model
	dirty := m.Dirty()
	if len(dirty) == 0 {
		return nil
	}
	m.emit(EventUpdating)

	driver, err := m.resolveDriver()
	if err != nil {
		return err
	}
	filter := map[string]any{m.primaryKey: m.ID()}
	if _, err := driver.Update(ctx, m.table, filter, dirty); err != nil {
		return err
	}
	m.SyncOriginal()

	m.emit(EventUpdated)
	return nil
}

// Delete removes the model per the data source's configured delete
// strategy: "hard" issues a real delete, "soft" sets deletedAt, "trash"
// copies the row into the configured trash table before a hard delete.
func (w *Writer) Delete(ctx context.Context) error {
	m := w.model
	m.emit(EventDeleting)

	driver, err := m.resolveDriver()
	if err != nil {
		return err
	}
	ds, err := defaultRegistry.Get(m.dataSource)
	if err != nil {
		return err
	}
	strategy := DeleteStrategy(ds.Options.DefaultDeleteStrategy)
	if strategy == "" {
		strategy = DeleteHard
	}
	filter := map[string]any{m.primaryKey: m.ID()}

	switch strategy {
	case DeleteSoft:
		if _, err := driver.Update(ctx, m.table, filter, map[string]any{"deletedAt": time.Now()}); err != nil {
			return err
		}
		m.Set("deletedAt", time.Now())
		m.SyncOriginal()
	case DeleteTrash:
		trashTable := ds.Options.DefaultTrashTable
		if trashTable == "" {
			trashTable = "_trash"
		}
		trashed := m.Attributes()
		trashed["_originalTable"] = m.table
		trashed["_trashedAt"] = time.Now()
		if _, err := driver.Insert(ctx, trashTable, trashed); err != nil {
			return err
		}
		if _, err := driver.Delete(ctx, m.table, filter); err != nil {
			return err
		}
	default:
		if _, err := driver.Delete(ctx, m.table, filter); err != nil {
			return err
		}
	}

	m.emit(EventDeleted)
	return nil
}
