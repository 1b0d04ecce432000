package cascade

import "context"

// Restorer reverses a soft or trash delete (spec.md §3's "soft/trash
// delete strategies"): Restore clears the deletedAt marker of a
// soft-deleted model, and RestoreFromTrash copies a trashed row back into
// its origin table.
type Restorer struct {
	model *BaseModel
}

// NewRestorer binds a Restorer to model.
func NewRestorer(model *BaseModel) *Restorer { return &Restorer{model: model} }

// Restore clears the soft-delete marker and fires restoring/restored.
func (r *Restorer) Restore(ctx context.Context) error {
	m := r.model
	m.emit(EventRestoring)

	driver, err := m.resolveDriver()
	if err != nil {
		return err
	}
	filter := map[string]any{m.primaryKey: m.ID()}
	if _, err := driver.Update(ctx, m.table, filter, map[string]any{"deletedAt": nil}); err != nil {
		return err
	}
	m.Set("deletedAt", nil)
	m.SyncOriginal()

	m.emit(EventRestored)
	return nil
}

// RestoreFromTrash reinserts row (previously captured by Writer.Delete's
// trash strategy) into table, stripping the bookkeeping fields Writer
// added when it trashed the row.
func RestoreFromTrash(ctx context.Context, driver Driver, trashTable, originalTable string, row map[string]any) (map[string]any, error) {
	clean := make(map[string]any, len(row))
	for k, v := range row {
		if k == "_originalTable" || k == "_trashedAt" {
			continue
		}
		clean[k] = v
	}
	return driver.Insert(ctx, originalTable, clean)
}
