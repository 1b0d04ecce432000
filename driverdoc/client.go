// Package driverdoc is the document Driver implementation (spec.md §4.8):
// a thin adapter over an injected NativeClient satisfying cascade.Driver,
// query.PipelineExecutor, and the migrate package's document-flavored
// Blueprint/MigrationDriver/RecordStore. No MongoDB wire-protocol client is
// implemented or vendored here (spec.md §1's explicit non-goal); NativeClient
// is the seam a real client such as the official mongo-go-driver would
// satisfy.
package driverdoc

import "context"

// NativeIndexSpec is the engine-native shape of one index, passed to
// CreateIndex and returned by ListIndexes. Keys maps a dotted field path
// to a direction (1 ascending, -1 descending); the specialized flags mirror
// spec.md §4.5's index atoms (full text, geo, vector, TTL).
type NativeIndexSpec struct {
	Name   string
	Keys   map[string]int
	Unique bool
	Sparse bool

	Text bool

	Geo bool

	Vector           bool
	VectorDimensions int
	VectorSimilarity string

	// TTLSeconds > 0 marks a native TTL index on the single key in Keys;
	// the document engine expires the document itself, unlike the
	// relational engine's partial-index approximation (spec.md §4.5).
	TTLSeconds int
}

// NativeSession is an open multi-document transaction handle.
type NativeSession interface {
	Commit(ctx context.Context) error
	Abort(ctx context.Context) error
}

// NativeClient is the opaque document-store client Driver wraps. Every
// method takes a neutral collection name and plain map[string]any
// documents/filters — the same shapes query.PipelineExecutor and
// cascade.Driver already traffic in, so no marshaling layer sits between
// NativeClient and the rest of Cascade.
type NativeClient interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	InsertOne(ctx context.Context, collection string, doc map[string]any) (map[string]any, error)
	InsertMany(ctx context.Context, collection string, docs []map[string]any) ([]map[string]any, error)
	// FindOne returns (nil, nil), not an error, when no document matches.
	FindOne(ctx context.Context, collection string, filter map[string]any) (map[string]any, error)
	Aggregate(ctx context.Context, collection string, pipeline []map[string]any) ([]map[string]any, error)

	UpdateOne(ctx context.Context, collection string, filter, update map[string]any, upsert bool) (matched, modified int64, err error)
	UpdateMany(ctx context.Context, collection string, filter, update map[string]any) (matched, modified int64, err error)
	DeleteOne(ctx context.Context, collection string, filter map[string]any) (int64, error)
	DeleteMany(ctx context.Context, collection string, filter map[string]any) (int64, error)
	FindOneAndUpdate(ctx context.Context, collection string, filter, update map[string]any, upsert bool) (map[string]any, error)
	FindOneAndDelete(ctx context.Context, collection string, filter map[string]any) (map[string]any, error)

	ListCollections(ctx context.Context) ([]string, error)
	CreateCollection(ctx context.Context, name string, validator map[string]any) error
	DropCollection(ctx context.Context, name string) error
	RenameCollection(ctx context.Context, from, to string) error

	CreateIndex(ctx context.Context, collection string, idx NativeIndexSpec) error
	DropIndex(ctx context.Context, collection, name string) error
	ListIndexes(ctx context.Context, collection string) ([]NativeIndexSpec, error)

	SetValidator(ctx context.Context, collection string, schema map[string]any) error
	RemoveValidator(ctx context.Context, collection string) error

	StartSession(ctx context.Context) (NativeSession, error)
}
