package query

// Artifact is the compiled, engine-native query produced by a Parser: SQL
// text plus bound params for the relational engine, or pipeline stages for
// the document engine. Exactly one of the two shapes is populated,
// depending on which Parser produced it (spec.md §4.2).
type Artifact struct {
	// SQL and Params are populated by the relational parser.
	SQL    string
	Params []any

	// Pipeline is populated by the document parser: a sequence of
	// aggregation stages ($match, $project, $lookup, $group, $sort,
	// $limit, $skip), each a single-key map naming the stage.
	Pipeline []map[string]any
}

// Row is one result row/document, keyed by column/field name.
type Row map[string]any
