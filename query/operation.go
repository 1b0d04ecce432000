// Package query implements the engine-neutral fluent query builder and
// parser described in spec.md §4.2–§4.3: an ordered Operation list is
// accumulated by Builder and flattened into a native query artifact by a
// Dispatcher (one per engine).
package query

// OpType is the closed enumeration of operations a Builder may record. See
// spec.md §3 "Operation (for QueryBuilder)". Modeled as a tagged union per
// spec.md §9 ("Dynamic operator lists → closed sum type") so a Dispatcher's
// switch over Type is exhaustive and unreachable defaults are a bug, not a
// silently-ignored operator.
type OpType int

const (
	OpWhere OpType = iota
	OpOrWhere
	OpWhereRaw
	OpWhereIn
	OpWhereNull
	OpWhereNotNull
	OpWhereBetween
	OpWhereLike
	OpWhereColumn
	OpWhereJsonContains
	OpWhereJsonLength
	OpWhereFullText
	OpWhereExists
	OpWhereNot
	OpSelect
	OpSelectRaw
	OpDeselect
	OpJoinLeft
	OpJoinRight
	OpJoinInner
	OpJoinFull
	OpJoinCross
	OpJoinRaw
	OpOrderBy
	OpOrderByRaw
	OpGroupBy
	OpHaving
	OpHavingRaw
	OpLimit
	OpOffset
	OpDistinct
	OpSelectRelatedColumns
	OpHas
	OpWhereHas
	OpDoesntHave
	OpWhereDoesntHave
)

// Connector is the boolean connector preceding a where-clause.
type Connector string

const (
	And Connector = "AND"
	Or  Connector = "OR"
)

// Operation is the opaque tagged record for one fluent builder call,
// preserved in insertion order (spec.md §3, §5 "ordering guarantees").
type Operation struct {
	Type OpType
	Data any
}

// --- per-variant payloads -------------------------------------------------

// WhereData backs Where/OrWhere/WhereNot: field, operator ("=", ">", "IN",
// ...), value, and the connector joining it to the previous where fragment.
type WhereData struct {
	Field     string
	Operator  string
	Value     any
	Connector Connector
	Negate    bool
}

// WhereRawData backs WhereRaw/OrWhereRaw. SQL may contain
// positional '?' tokens; the parser substitutes each with the next
// placeholder (spec.md §4.2 rule 3, §9 "Raw SQL safety").
type WhereRawData struct {
	SQL       string
	Args      []any
	Connector Connector
}

// WhereInData backs WhereIn. Rendered as "= ANY($k)" with a single
// array-typed bind (spec.md §4.2 rule 4), not flat expansion.
type WhereInData struct {
	Field     string
	Values    []any
	Negate    bool
	Connector Connector
}

// WhereNullData backs WhereNull/WhereNotNull.
type WhereNullData struct {
	Field     string
	Connector Connector
}

// WhereBetweenData backs WhereBetween.
type WhereBetweenData struct {
	Field     string
	Low, High any
	Negate    bool
	Connector Connector
}

// WhereLikeData backs WhereLike.
type WhereLikeData struct {
	Field           string
	Pattern         string
	CaseInsensitive bool
	Connector       Connector
}

// WhereColumnData backs WhereColumn: compares two columns directly, no bind
// param.
type WhereColumnData struct {
	Left, Operator, Right string
	Connector             Connector
}

// WhereJsonContainsData backs WhereJsonContains: binds a JSON-encoded
// literal on the right of "@>", cast to jsonb (spec.md §4.2 rule 5).
type WhereJsonContainsData struct {
	Field     string
	Path      []string
	Value     any
	Connector Connector
}

// WhereJsonLengthData backs WhereJsonLength.
type WhereJsonLengthData struct {
	Field     string
	Path      []string
	Operator  string
	Length    int
	Connector Connector
}

// WhereFullTextData backs WhereFullText: builds
// to_tsvector('english', col1) || ... @@ plainto_tsquery('english', $k)
// (spec.md §4.2 rule 6).
type WhereFullTextData struct {
	Columns   []string
	Query     string
	Connector Connector
}

// WhereExistsData backs WhereExists: a correlated sub-builder whose clauses
// render inside "EXISTS (SELECT 1 FROM ... WHERE ...)".
type WhereExistsData struct {
	Table     string
	Sub       *Builder
	Negate    bool
	Connector Connector
}

// SelectData backs Select.
type SelectData struct {
	Fields []string
}

// SelectRawData backs SelectRaw.
type SelectRawData struct {
	SQL  string
	Args []any
}

// DeselectData backs Deselect.
type DeselectData struct {
	Fields []string
}

// JoinData backs the five join variants.
type JoinData struct {
	Table, Alias string
	LocalField   string
	Operator     string
	ForeignField string
}

// JoinRawData backs JoinRaw.
type JoinRawData struct {
	SQL  string
	Args []any
}

// OrderByData backs OrderBy.
type OrderByData struct {
	Field     string
	Direction string // "ASC" or "DESC"
}

// OrderByRawData backs OrderByRaw.
type OrderByRawData struct {
	SQL  string
	Args []any
}

// GroupByData backs GroupBy.
type GroupByData struct {
	Fields []string
}

// HavingData backs Having.
type HavingData struct {
	SQL  string
	Args []any
}

// LimitData/OffsetData/DistinctData back their namesakes.
type LimitData struct{ Limit int }
type OffsetData struct{ Offset int }
type DistinctData struct{}

// SelectRelatedColumnsData backs SelectRelatedColumns: injects "root".* once
// plus row_to_json(alias.*) AS "alias" (spec.md §4.2 rule 8).
type SelectRelatedColumnsData struct {
	Alias string
}

// RelationExistenceData describes a Has/WhereHas/DoesntHave/WhereDoesntHave
// call: a named relation plus an optional correlated sub-builder of extra
// constraints. Builder does not record it; those methods resolve the
// relation and record an OpWhereExists carrying WhereExistsData instead.
type RelationExistenceData struct {
	Relation  string
	Sub       *Builder
	Negate    bool
	Connector Connector
}

// Clone returns a deep copy of op suitable for an independent Builder
// (spec.md §4.3 "clone() yields an independent builder").
func (op Operation) Clone() Operation {
	switch d := op.Data.(type) {
	case WhereData:
		return Operation{Type: op.Type, Data: d}
	case WhereRawData:
		nd := d
		nd.Args = append([]any(nil), d.Args...)
		return Operation{Type: op.Type, Data: nd}
	case WhereInData:
		nd := d
		nd.Values = append([]any(nil), d.Values...)
		return Operation{Type: op.Type, Data: nd}
	case WhereNullData:
		return Operation{Type: op.Type, Data: d}
	case WhereBetweenData:
		return Operation{Type: op.Type, Data: d}
	case WhereLikeData:
		return Operation{Type: op.Type, Data: d}
	case WhereColumnData:
		return Operation{Type: op.Type, Data: d}
	case WhereJsonContainsData:
		nd := d
		nd.Path = append([]string(nil), d.Path...)
		return Operation{Type: op.Type, Data: nd}
	case WhereJsonLengthData:
		nd := d
		nd.Path = append([]string(nil), d.Path...)
		return Operation{Type: op.Type, Data: nd}
	case WhereFullTextData:
		nd := d
		nd.Columns = append([]string(nil), d.Columns...)
		return Operation{Type: op.Type, Data: nd}
	case WhereExistsData:
		nd := d
		if d.Sub != nil {
			nd.Sub = d.Sub.Clone()
		}
		return Operation{Type: op.Type, Data: nd}
	case SelectData:
		nd := d
		nd.Fields = append([]string(nil), d.Fields...)
		return Operation{Type: op.Type, Data: nd}
	case SelectRawData:
		nd := d
		nd.Args = append([]any(nil), d.Args...)
		return Operation{Type: op.Type, Data: nd}
	case DeselectData:
		nd := d
		nd.Fields = append([]string(nil), d.Fields...)
		return Operation{Type: op.Type, Data: nd}
	case JoinData:
		return Operation{Type: op.Type, Data: d}
	case JoinRawData:
		nd := d
		nd.Args = append([]any(nil), d.Args...)
		return Operation{Type: op.Type, Data: nd}
	case OrderByData:
		return Operation{Type: op.Type, Data: d}
	case OrderByRawData:
		nd := d
		nd.Args = append([]any(nil), d.Args...)
		return Operation{Type: op.Type, Data: nd}
	case GroupByData:
		nd := d
		nd.Fields = append([]string(nil), d.Fields...)
		return Operation{Type: op.Type, Data: nd}
	case HavingData:
		nd := d
		nd.Args = append([]any(nil), d.Args...)
		return Operation{Type: op.Type, Data: nd}
	case LimitData, OffsetData, DistinctData:
		return Operation{Type: op.Type, Data: d}
	case SelectRelatedColumnsData:
		return Operation{Type: op.Type, Data: d}
	case RelationExistenceData:
		nd := d
		if d.Sub != nil {
			nd.Sub = d.Sub.Clone()
		}
		return Operation{Type: op.Type, Data: nd}
	default:
		return op
	}
}
