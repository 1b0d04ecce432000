package driverdoc

import (
	"context"
	"time"

	"github.com/warlockjs/cascade/migrate"
)

// DocumentRecordStore persists migration records in a plain collection
// with a unique index on name, the document engine's equivalent of
// PostgresRecordStore's table (spec.md §6).
type DocumentRecordStore struct {
	client     NativeClient
	collection string
}

// NewDocumentRecordStore returns a store backed by collection.
func NewDocumentRecordStore(client NativeClient, collection string) *DocumentRecordStore {
	if collection == "" {
		collection = "_migrations"
	}
	return &DocumentRecordStore{client: client, collection: collection}
}

func (s *DocumentRecordStore) EnsureTable(ctx context.Context) error {
	return wrap(s.client.CreateIndex(ctx, s.collection, NativeIndexSpec{
		Name:   s.collection + "_name_unique",
		Keys:   map[string]int{"name": 1},
		Unique: true,
	}), "ensureTable")
}

func (s *DocumentRecordStore) List(ctx context.Context) ([]migrate.Record, error) {
	docs, err := s.client.Aggregate(ctx, s.collection, []map[string]any{
		{"$sort": map[string]any{"batch": 1, "name": 1}},
	})
	if err != nil {
		return nil, wrap(err, "listRecords")
	}
	out := make([]migrate.Record, 0, len(docs))
	for _, doc := range docs {
		rec := migrate.Record{Name: asString(doc["name"])}
		if b, ok := doc["batch"].(int); ok {
			rec.Batch = b
		} else if b, ok := doc["batch"].(int64); ok {
			rec.Batch = int(b)
		} else if b, ok := doc["batch"].(float64); ok {
			rec.Batch = int(b)
		}
		if t, ok := doc["executedAt"].(time.Time); ok {
			rec.ExecutedAt = t
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *DocumentRecordStore) Insert(ctx context.Context, rec migrate.Record) error {
	_, err := s.client.InsertOne(ctx, s.collection, map[string]any{
		"name":       rec.Name,
		"batch":      rec.Batch,
		"executedAt": time.Now().UTC(),
	})
	return wrap(err, "insertRecord")
}

func (s *DocumentRecordStore) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteOne(ctx, s.collection, map[string]any{"name": name})
	return wrap(err, "deleteRecord")
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
