package migrate

// IndexKind distinguishes the specialized index atoms spec.md §4.5 lists
// alongside plain B-tree indexes.
type IndexKind int

const (
	IndexDefault IndexKind = iota
	IndexFullText
	IndexGeo
	IndexVector
	IndexTTL
)

// VectorSimilarity is the closed set of distance functions a vector index
// may target.
type VectorSimilarity string

const (
	SimilarityCosine    VectorSimilarity = "cosine"
	SimilarityEuclidean VectorSimilarity = "euclidean"
	SimilarityDotProduct VectorSimilarity = "dotProduct"
)

// IndexDefinition describes one index a migration creates.
type IndexDefinition struct {
	Name       string
	Table      string
	Columns    []string // plain column names, or raw expressions when Expression is set
	Expression bool     // Columns entries are raw SQL expressions, wrapped in "(...)"
	Unique     bool
	Kind       IndexKind
	Where      string // partial index predicate, relational only
	Include    []string
	Concurrent bool

	// Vector-specific.
	Similarity VectorSimilarity
	Lists      int

	// TTL-specific: seconds after the Columns[0] timestamp value the row expires
	// (document engines only honor this natively).
	TTLSeconds int
}

// NeutralIndex is the introspection-shape Blueprint returns: engine-neutral
// regardless of whether it came from a Postgres catalog query or a
// document-engine index listing (spec.md §4.4).
type NeutralIndex struct {
	Name    string
	Columns []string
	Type    string
	Unique  bool
	Partial bool
	Options map[string]any
}
