package dialect

import (
	"fmt"
	"strconv"
	"strings"
)

// Postgres is the relational-engine Dialect. All rendering targets
// PostgreSQL's lexical conventions: $n placeholders, double-quoted
// identifiers, JSONB operators, ILIKE.
type Postgres struct{}

// NewPostgres returns the Postgres dialect. It carries no state.
func NewPostgres() Postgres { return Postgres{} }

func (Postgres) Placeholder(i int) string {
	return "$" + strconv.Itoa(i)
}

func (Postgres) QuoteIdentifier(name string) string {
	segments := strings.Split(name, ".")
	for i, seg := range segments {
		seg = strings.ReplaceAll(seg, `"`, `""`)
		segments[i] = `"` + seg + `"`
	}
	return strings.Join(segments, ".")
}

func (Postgres) BooleanLiteral(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}

func (Postgres) LimitOffset(limit, offset *int) string {
	var b strings.Builder
	if limit != nil {
		fmt.Fprintf(&b, " LIMIT %d", *limit)
	}
	if offset != nil {
		fmt.Fprintf(&b, " OFFSET %d", *offset)
	}
	return b.String()
}

// likeEscaper escapes the three characters that are meaningful to
// LIKE/ILIKE: the escape character itself, then the two wildcards.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (Postgres) LikePattern(pattern string, caseInsensitive bool) LikeClause {
	op := "LIKE"
	if caseInsensitive {
		op = "ILIKE"
	}
	return LikeClause{Operator: op, Pattern: likeEscaper.Replace(pattern)}
}

func (p Postgres) JSONExtract(column string, path []string) string {
	if len(path) == 0 {
		return p.QuoteIdentifier(column)
	}
	var b strings.Builder
	b.WriteString(p.QuoteIdentifier(column))
	for i, key := range path {
		if i == len(path)-1 {
			b.WriteString("->>")
		} else {
			b.WriteString("->")
		}
		b.WriteByte('\'')
		b.WriteString(strings.ReplaceAll(key, "'", "''"))
		b.WriteByte('\'')
	}
	return b.String()
}

func (p Postgres) JSONContains(column string, path []string, placeholder string) string {
	target := p.QuoteIdentifier(column)
	if len(path) > 0 {
		var b strings.Builder
		b.WriteString(target)
		for _, key := range path {
			b.WriteString("->")
			b.WriteByte('\'')
			b.WriteString(strings.ReplaceAll(key, "'", "''"))
			b.WriteByte('\'')
		}
		target = b.String()
	}
	return fmt.Sprintf("%s @> %s::jsonb", target, placeholder)
}

func (p Postgres) ArrayContains(column string, placeholder string) string {
	return fmt.Sprintf("%s = ANY(%s)", placeholder, p.QuoteIdentifier(column))
}

// sqlTypeTable maps abstract types that need no options-sensitive
// rendering. Types that depend on length/precision/scale/values are
// handled in GetSQLType below.
var sqlTypeTable = map[ColumnType]string{
	Text:       "TEXT",
	MediumText: "TEXT", // coarsened: Postgres has no MEDIUMTEXT, TEXT is unbounded.
	LongText:   "TEXT", // coarsened: same as above.
	Boolean:    "BOOLEAN",
	Date:       "DATE",
	DateTime:   "TIMESTAMP",
	Timestamp:  "TIMESTAMP WITH TIME ZONE",
	Time:       "TIME",
	Year:       "SMALLINT",
	JSON:       "JSONB",
	Binary:     "BYTEA",
	UUID:       "UUID",
	ULID:       "CHAR(26)",
	IPAddress:  "INET",
	MACAddress: "MACADDR",
	Point:      "POINT",
	Polygon:    "POLYGON",
	LineString: "PATH",
	Geometry:   "GEOMETRY",
	SmallInt:   "SMALLINT",
	TinyInt:    "SMALLINT", // coarsened: Postgres has no 1-byte integer.
	Integer:    "INTEGER",
	BigInt:     "BIGINT",
	Float:      "REAL",
	Double:     "DOUBLE PRECISION",
}

func (Postgres) GetSQLType(t ColumnType, opts TypeOptions) string {
	switch t {
	case String:
		length := opts.Length
		if length <= 0 {
			length = 255
		}
		return fmt.Sprintf("VARCHAR(%d)", length)
	case Char:
		length := opts.Length
		if length <= 0 {
			length = 1
		}
		return fmt.Sprintf("CHAR(%d)", length)
	case Decimal:
		precision, scale := opts.Precision, opts.Scale
		if precision <= 0 {
			precision = 10
		}
		return fmt.Sprintf("DECIMAL(%d,%d)", precision, scale)
	case Enum:
		return quotedOneOf(opts.Values)
	case Set:
		// Postgres has no native SET type; rendered as an array of text,
		// each membership checked with the JSONB/array predicates.
		return "TEXT[]"
	case Vector:
		dims := opts.Dimensions
		if dims <= 0 {
			dims = 1536
		}
		return fmt.Sprintf("vector(%d)", dims)
	}
	if name, ok := sqlTypeTable[t]; ok {
		return name
	}
	return FallbackSQLType(t)
}

// quotedOneOf renders an enum as a TEXT column. No CHECK(col IN (...))
// constraint is attached here or by MigrationDriver's CreateTable/AddColumn;
// a migration adds one with AddCheck. Postgres ENUM types would need a
// separate CREATE TYPE, and ColumnDefinition has no migration step for that.
func quotedOneOf(values []string) string {
	if len(values) == 0 {
		return "TEXT"
	}
	return "TEXT"
}
