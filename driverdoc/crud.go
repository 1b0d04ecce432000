package driverdoc

import (
	"context"

	"github.com/warlockjs/cascade"
)

// Insert drops a nil "id" so the native client assigns one, mirroring
// driverpg.Insert's identity-column behavior (spec.md §4.8).
func (d *Driver) Insert(ctx context.Context, collection string, doc map[string]any) (map[string]any, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	clean := cleanID(doc)
	if d.cfg.DryRun {
		d.logDryRun("insert", collection, clean)
		return clean, nil
	}
	out, err := d.client.InsertOne(ctx, collection, clean)
	if err != nil {
		return nil, cascade.QueryError(err, "", nil)
	}
	return out, nil
}

// InsertMany passes every doc through unmodified except for a dropped nil
// "id"; unlike the relational engine there is no union-of-keys rendering
// step since document writes never require symmetric columns (spec.md
// §4.8's insertMany union-of-keys behavior is relational-only).
func (d *Driver) InsertMany(ctx context.Context, collection string, docs []map[string]any) ([]map[string]any, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	cleaned := make([]map[string]any, len(docs))
	for i, doc := range docs {
		cleaned[i] = cleanID(doc)
	}
	if d.cfg.DryRun {
		d.logDryRun("insertMany", collection, cleaned)
		return cleaned, nil
	}
	out, err := d.client.InsertMany(ctx, collection, cleaned)
	if err != nil {
		return nil, cascade.QueryError(err, "", nil)
	}
	return out, nil
}

// Update affects at most one matching document (spec.md §4.8's single-row
// scoping, the document engine's native analogue to the relational ctid
// trick: findOneAndUpdate / updateOne only ever touch one document).
func (d *Driver) Update(ctx context.Context, collection string, filter, update map[string]any) (int64, error) {
	if err := d.requireConnected(); err != nil {
		return 0, err
	}
	if d.cfg.DryRun {
		d.logDryRun("update", collection, update)
		return 0, nil
	}
	_, modified, err := d.client.UpdateOne(ctx, collection, filter, update, false)
	if err != nil {
		return 0, cascade.QueryError(err, "", nil)
	}
	return modified, nil
}

func (d *Driver) Upsert(ctx context.Context, collection string, filter, doc map[string]any) (map[string]any, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	update := map[string]any{"$set": doc}
	if d.cfg.DryRun {
		d.logDryRun("upsert", collection, update)
		return doc, nil
	}
	out, err := d.client.FindOneAndUpdate(ctx, collection, filter, update, true)
	if err != nil {
		return nil, cascade.QueryError(err, "", nil)
	}
	return out, nil
}

func (d *Driver) FindOneAndUpdate(ctx context.Context, collection string, filter, update map[string]any) (map[string]any, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	out, err := d.client.FindOneAndUpdate(ctx, collection, filter, update, false)
	if err != nil {
		return nil, cascade.QueryError(err, "", nil)
	}
	return out, nil
}

func (d *Driver) FindOneAndDelete(ctx context.Context, collection string, filter map[string]any) (map[string]any, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	out, err := d.client.FindOneAndDelete(ctx, collection, filter)
	if err != nil {
		return nil, cascade.QueryError(err, "", nil)
	}
	return out, nil
}

func (d *Driver) Delete(ctx context.Context, collection string, filter map[string]any) (int64, error) {
	if err := d.requireConnected(); err != nil {
		return 0, err
	}
	if d.cfg.DryRun {
		d.logDryRun("delete", collection, filter)
		return 0, nil
	}
	n, err := d.client.DeleteOne(ctx, collection, filter)
	if err != nil {
		return 0, cascade.QueryError(err, "", nil)
	}
	return n, nil
}

func (d *Driver) TruncateTable(ctx context.Context, collection string) error {
	if err := d.requireConnected(); err != nil {
		return err
	}
	if d.cfg.DryRun {
		d.logDryRun("truncate", collection, nil)
		return nil
	}
	_, err := d.client.DeleteMany(ctx, collection, map[string]any{})
	if err != nil {
		return cascade.QueryError(err, "", nil)
	}
	return nil
}

func cleanID(doc map[string]any) map[string]any {
	clean := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == "id" && v == nil {
			continue
		}
		clean[k] = v
	}
	return clean
}

func (d *Driver) logDryRun(op, collection string, payload any) {
	if d.logger != nil {
		d.logger.Info("cascade."+op+".dryrun", "collection", collection, "payload", payload)
	}
}
