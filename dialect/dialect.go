// Package dialect renders the engine-specific lexical forms the query
// parser and migration driver need: placeholders, identifier quoting,
// LIKE/JSON operators, and abstract-to-concrete column type mapping. It is
// pure: no state, no I/O, no errors other than invalid input passed
// through verbatim. See spec.md §4.1.
package dialect

import "strings"

// ColumnType is the closed set of abstract column types a migration or a
// model field may declare. See spec.md §3 (ColumnDefinition).
type ColumnType string

const (
	String      ColumnType = "string"
	Char        ColumnType = "char"
	Text        ColumnType = "text"
	MediumText  ColumnType = "mediumText"
	LongText    ColumnType = "longText"
	Integer     ColumnType = "integer"
	SmallInt    ColumnType = "smallInteger"
	TinyInt     ColumnType = "tinyInteger"
	BigInt      ColumnType = "bigInteger"
	Float       ColumnType = "float"
	Double      ColumnType = "double"
	Decimal     ColumnType = "decimal"
	Boolean     ColumnType = "boolean"
	Date        ColumnType = "date"
	DateTime    ColumnType = "dateTime"
	Timestamp   ColumnType = "timestamp"
	Time        ColumnType = "time"
	Year        ColumnType = "year"
	JSON        ColumnType = "json"
	Binary      ColumnType = "binary"
	UUID        ColumnType = "uuid"
	ULID        ColumnType = "ulid"
	IPAddress   ColumnType = "ipAddress"
	MACAddress  ColumnType = "macAddress"
	Point       ColumnType = "point"
	Polygon     ColumnType = "polygon"
	LineString  ColumnType = "lineString"
	Geometry    ColumnType = "geometry"
	Vector      ColumnType = "vector"
	Enum        ColumnType = "enum"
	Set         ColumnType = "set"
)

// TypeOptions carries the optional per-type rendering parameters a column
// definition may specify (length, precision/scale, enum values, vector
// dimensions).
type TypeOptions struct {
	Length     int
	Precision  int
	Scale      int
	Values     []string // enum/set members
	Dimensions int       // vector dimensions
	Unsigned   bool
}

// LikeClause is the rendered operator + escaped pattern for a LIKE/ILIKE
// predicate.
type LikeClause struct {
	Operator string // "LIKE" or "ILIKE"
	Pattern  string
}

// Dialect is the pure rendering contract every engine implements. No
// method performs I/O or returns an error: invalid input is returned
// verbatim per spec.md §4.1.
type Dialect interface {
	// Placeholder renders the i-th (1-based) bind placeholder.
	Placeholder(i int) string
	// QuoteIdentifier splits name on '.', quotes each segment, and
	// rejoins with '.'.
	QuoteIdentifier(name string) string
	// BooleanLiteral renders a literal boolean.
	BooleanLiteral(b bool) string
	// LimitOffset renders the trailing "LIMIT n OFFSET m" clause. Either
	// argument may be nil to omit it.
	LimitOffset(limit, offset *int) string
	// LikePattern escapes pattern for a LIKE/ILIKE predicate.
	LikePattern(pattern string, caseInsensitive bool) LikeClause
	// JSONExtract renders a dotted-path extraction expression ending in
	// a text ("->>") accessor.
	JSONExtract(column string, path []string) string
	// JSONContains renders a containment predicate against value,
	// optionally scoped to a nested path.
	JSONContains(column string, path []string, placeholder string) string
	// ArrayContains renders an "x = ANY(column)" style membership test.
	ArrayContains(column string, placeholder string) string
	// GetSQLType maps an abstract ColumnType to the engine's concrete
	// type name. Unknown types are uppercased and passed through.
	GetSQLType(t ColumnType, opts TypeOptions) string
}

// FallbackSQLType uppercases an unrecognized abstract type name, the
// documented behavior for unknown types in every dialect.
func FallbackSQLType(t ColumnType) string {
	return strings.ToUpper(string(t))
}
