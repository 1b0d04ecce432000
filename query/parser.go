package query

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/warlockjs/cascade/dialect"
)

// RootSpec names the table (and optional alias) a parse targets.
type RootSpec struct {
	Table string
	Alias string
}

func (r RootSpec) name() string {
	if r.Alias != "" {
		return r.Alias
	}
	return r.Table
}

// Parser flattens an ordered Operation list into a native query Artifact.
// The parser performs no I/O; invalid operation payloads raise a typed
// *Error (kind parse.*), fatal to the calling Execute call (spec.md §4.2).
type Parser interface {
	Parse(root RootSpec, ops []Operation) (*Artifact, error)
}

// RelationalParser renders the Postgres dialect's SQL + bind params. It
// maintains a 1-based param counter shared across every clause so
// placeholders form $1..$n in strictly increasing order (spec.md §8).
type RelationalParser struct {
	Dialect dialect.Dialect
}

// NewRelationalParser returns a parser rendering SQL for d.
func NewRelationalParser(d dialect.Dialect) *RelationalParser {
	return &RelationalParser{Dialect: d}
}

type whereFragment struct {
	connector Connector
	sql       string
}

type parseState struct {
	dialect dialect.Dialect
	root    RootSpec
	counter int
	params  []any

	selectCols   []string
	rawSelects   []string
	deselect     map[string]bool
	wheres       []whereFragment
	joins        []string
	joinedNames  map[string]bool
	orderClauses []string
	groupCols    []string
	havings      []string
	limit        *int
	offset       *int
	distinct     bool
	relatedAdded map[string]bool
	rootStarOnce bool
}

func (p *RelationalParser) Parse(root RootSpec, ops []Operation) (*Artifact, error) {
	st := &parseState{
		dialect:      p.Dialect,
		root:         root,
		deselect:     map[string]bool{},
		joinedNames:  map[string]bool{root.name(): true, root.Table: true},
		relatedAdded: map[string]bool{},
	}

	for _, op := range ops {
		if err := st.apply(op); err != nil {
			return nil, err
		}
	}

	return st.assemble(), nil
}

func (st *parseState) nextPlaceholder(v any) string {
	st.counter++
	st.params = append(st.params, v)
	return st.dialect.Placeholder(st.counter)
}

func parseErr(msg string) error {
	return &parseError{msg: msg}
}

type parseError struct{ msg string }

func (e *parseError) Error() string { return "cascade: parse error: " + e.msg }

func (st *parseState) apply(op Operation) error {
	switch op.Type {
	case OpWhere:
		d, ok := op.Data.(WhereData)
		if !ok || d.Field == "" {
			return parseErr("where: missing field")
		}
		col := st.resolveField(d.Field)
		operator := d.Operator
		if operator == "" {
			operator = "="
		}
		ph := st.nextPlaceholder(d.Value)
		frag := fmt.Sprintf("%s %s %s", col, operator, ph)
		if d.Negate {
			frag = "NOT (" + frag + ")"
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, frag})

	case OpOrWhere:
		d, ok := op.Data.(WhereData)
		if !ok || d.Field == "" {
			return parseErr("orWhere: missing field")
		}
		col := st.resolveField(d.Field)
		operator := d.Operator
		if operator == "" {
			operator = "="
		}
		ph := st.nextPlaceholder(d.Value)
		st.wheres = append(st.wheres, whereFragment{Or, fmt.Sprintf("%s %s %s", col, operator, ph)})

	case OpWhereNot:
		return parseErr("whereNot: semantics are left unspecified by the source system (spec.md §9); this stub intentionally does not compile a clause")

	case OpWhereRaw:
		d, ok := op.Data.(WhereRawData)
		if !ok {
			return parseErr("whereRaw: invalid payload")
		}
		sql, err := st.substitutePositional(d.SQL, d.Args)
		if err != nil {
			return err
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, sql})

	case OpWhereIn:
		d, ok := op.Data.(WhereInData)
		if !ok || d.Field == "" {
			return parseErr("whereIn: missing field")
		}
		col := st.resolveField(d.Field)
		ph := st.nextPlaceholder(d.Values)
		op := "="
		if d.Negate {
			op = "!="
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("%s %s ANY(%s)", col, op, ph)})

	case OpWhereNull:
		d, ok := op.Data.(WhereNullData)
		if !ok || d.Field == "" {
			return parseErr("whereNull: missing field")
		}
		col := st.resolveField(d.Field)
		st.wheres = append(st.wheres, whereFragment{d.Connector, col + " IS NULL"})

	case OpWhereNotNull:
		d, ok := op.Data.(WhereNullData)
		if !ok || d.Field == "" {
			return parseErr("whereNotNull: missing field")
		}
		col := st.resolveField(d.Field)
		st.wheres = append(st.wheres, whereFragment{d.Connector, col + " IS NOT NULL"})

	case OpWhereBetween:
		d, ok := op.Data.(WhereBetweenData)
		if !ok || d.Field == "" {
			return parseErr("whereBetween: missing field")
		}
		col := st.resolveField(d.Field)
		lowPh := st.nextPlaceholder(d.Low)
		highPh := st.nextPlaceholder(d.High)
		not := ""
		if d.Negate {
			not = "NOT "
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("%s%s BETWEEN %s AND %s", not, col, lowPh, highPh)})

	case OpWhereLike:
		d, ok := op.Data.(WhereLikeData)
		if !ok || d.Field == "" {
			return parseErr("whereLike: missing field")
		}
		col := st.resolveField(d.Field)
		like := st.dialect.LikePattern(d.Pattern, d.CaseInsensitive)
		ph := st.nextPlaceholder(like.Pattern)
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("%s %s %s", col, like.Operator, ph)})

	case OpWhereColumn:
		d, ok := op.Data.(WhereColumnData)
		if !ok || d.Left == "" || d.Right == "" {
			return parseErr("whereColumn: missing field")
		}
		operator := d.Operator
		if operator == "" {
			operator = "="
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("%s %s %s", st.resolveField(d.Left), operator, st.resolveField(d.Right))})

	case OpWhereJsonContains:
		d, ok := op.Data.(WhereJsonContainsData)
		if !ok || d.Field == "" {
			return parseErr("whereJsonContains: missing field")
		}
		encoded, err := json.Marshal(d.Value)
		if err != nil {
			return parseErr("whereJsonContains: value does not marshal to JSON: " + err.Error())
		}
		ph := st.nextPlaceholder(string(encoded))
		st.wheres = append(st.wheres, whereFragment{d.Connector, st.dialect.JSONContains(d.Field, d.Path, ph)})

	case OpWhereJsonLength:
		d, ok := op.Data.(WhereJsonLengthData)
		if !ok || d.Field == "" {
			return parseErr("whereJsonLength: missing field")
		}
		extract := st.dialect.JSONExtract(d.Field, d.Path)
		ph := st.nextPlaceholder(d.Length)
		operator := d.Operator
		if operator == "" {
			operator = "="
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("jsonb_array_length((%s)::jsonb) %s %s", extract, operator, ph)})

	case OpWhereFullText:
		d, ok := op.Data.(WhereFullTextData)
		if !ok || len(d.Columns) == 0 {
			return parseErr("whereFullText: missing columns")
		}
		vectors := make([]string, len(d.Columns))
		for i, c := range d.Columns {
			vectors[i] = fmt.Sprintf("to_tsvector('english', %s)", st.resolveField(c))
		}
		ph := st.nextPlaceholder(d.Query)
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("%s @@ plainto_tsquery('english', %s)", strings.Join(vectors, " || "), ph)})

	case OpWhereExists:
		d, ok := op.Data.(WhereExistsData)
		if !ok || d.Sub == nil {
			return parseErr("whereExists: missing sub-query")
		}
		sub, err := st.renderSub(d.Sub, d.Table)
		if err != nil {
			return err
		}
		verb := "EXISTS"
		if d.Negate {
			verb = "NOT EXISTS"
		}
		st.wheres = append(st.wheres, whereFragment{d.Connector, fmt.Sprintf("%s (%s)", verb, sub)})

	case OpSelect:
		d, ok := op.Data.(SelectData)
		if !ok {
			return parseErr("select: invalid payload")
		}
		for _, f := range d.Fields {
			st.selectCols = append(st.selectCols, st.resolveField(f))
		}

	case OpSelectRaw:
		d, ok := op.Data.(SelectRawData)
		if !ok {
			return parseErr("selectRaw: invalid payload")
		}
		sql, err := st.substitutePositional(d.SQL, d.Args)
		if err != nil {
			return err
		}
		st.rawSelects = append(st.rawSelects, sql)

	case OpDeselect:
		d, ok := op.Data.(DeselectData)
		if !ok {
			return parseErr("deselect: invalid payload")
		}
		for _, f := range d.Fields {
			st.deselect[f] = true
		}

	case OpJoinLeft, OpJoinRight, OpJoinInner, OpJoinFull, OpJoinCross:
		d, ok := op.Data.(JoinData)
		if !ok || d.Table == "" {
			return parseErr("join: missing table")
		}
		verb := joinVerb(op.Type)
		alias := d.Alias
		if alias == "" {
			alias = d.Table
		}
		st.joinedNames[alias] = true
		if verb == "CROSS JOIN" {
			st.joins = append(st.joins, fmt.Sprintf("%s %s", verb, st.joinTarget(d.Table, alias)))
			break
		}
		localCol := st.resolveField(d.LocalField)
		foreignCol := st.resolveField(alias + "." + d.ForeignField)
		operator := d.Operator
		if operator == "" {
			operator = "="
		}
		st.joins = append(st.joins, fmt.Sprintf("%s %s ON %s %s %s", verb, st.joinTarget(d.Table, alias), localCol, operator, foreignCol))

	case OpJoinRaw:
		d, ok := op.Data.(JoinRawData)
		if !ok {
			return parseErr("joinRaw: invalid payload")
		}
		sql, err := st.substitutePositional(d.SQL, d.Args)
		if err != nil {
			return err
		}
		st.joins = append(st.joins, sql)

	case OpOrderBy:
		d, ok := op.Data.(OrderByData)
		if !ok || d.Field == "" {
			return parseErr("orderBy: missing field")
		}
		dir := strings.ToUpper(d.Direction)
		if dir != "DESC" {
			dir = "ASC"
		}
		st.orderClauses = append(st.orderClauses, fmt.Sprintf("%s %s", st.resolveField(d.Field), dir))

	case OpOrderByRaw:
		d, ok := op.Data.(OrderByRawData)
		if !ok {
			return parseErr("orderByRaw: invalid payload")
		}
		sql, err := st.substitutePositional(d.SQL, d.Args)
		if err != nil {
			return err
		}
		st.orderClauses = append(st.orderClauses, sql)

	case OpGroupBy:
		d, ok := op.Data.(GroupByData)
		if !ok {
			return parseErr("groupBy: invalid payload")
		}
		for _, f := range d.Fields {
			st.groupCols = append(st.groupCols, st.resolveField(f))
		}

	case OpHaving:
		d, ok := op.Data.(HavingData)
		if !ok {
			return parseErr("having: invalid payload")
		}
		sql, err := st.substitutePositional(d.SQL, d.Args)
		if err != nil {
			return err
		}
		st.havings = append(st.havings, sql)

	case OpHavingRaw:
		d, ok := op.Data.(HavingData)
		if !ok {
			return parseErr("havingRaw: invalid payload")
		}
		sql, err := st.substitutePositional(d.SQL, d.Args)
		if err != nil {
			return err
		}
		st.havings = append(st.havings, sql)

	case OpLimit:
		d, ok := op.Data.(LimitData)
		if !ok {
			return parseErr("limit: invalid payload")
		}
		l := d.Limit
		st.limit = &l

	case OpOffset:
		d, ok := op.Data.(OffsetData)
		if !ok {
			return parseErr("offset: invalid payload")
		}
		o := d.Offset
		st.offset = &o

	case OpDistinct:
		st.distinct = true

	case OpSelectRelatedColumns:
		d, ok := op.Data.(SelectRelatedColumnsData)
		if !ok || d.Alias == "" {
			return parseErr("selectRelatedColumns: missing alias")
		}
		if !st.rootStarOnce {
			st.rawSelects = append(st.rawSelects, st.dialect.QuoteIdentifier(st.root.name())+".*")
			st.rootStarOnce = true
		}
		if !st.relatedAdded[d.Alias] {
			st.relatedAdded[d.Alias] = true
			quoted := st.dialect.QuoteIdentifier(d.Alias)
			st.rawSelects = append(st.rawSelects, fmt.Sprintf("row_to_json(%s.*) AS %s", quoted, quoted))
		}

	case OpHas, OpWhereHas, OpDoesntHave, OpWhereDoesntHave:
		// Builder resolves these to OpWhereExists before they reach the
		// parser (see Builder.Has/WhereHas); if one arrives here the
		// caller bypassed the builder with a hand-built Operation.
		return parseErr("has/whereHas/doesntHave/whereDoesntHave must be resolved to whereExists before parsing")

	default:
		return parseErr(fmt.Sprintf("unknown operation type %d", op.Type))
	}
	return nil
}

func joinVerb(t OpType) string {
	switch t {
	case OpJoinLeft:
		return "LEFT JOIN"
	case OpJoinRight:
		return "RIGHT JOIN"
	case OpJoinInner:
		return "INNER JOIN"
	case OpJoinFull:
		return "FULL JOIN"
	case OpJoinCross:
		return "CROSS JOIN"
	}
	return "JOIN"
}

func (st *parseState) joinTarget(table, alias string) string {
	quotedTable := st.dialect.QuoteIdentifier(table)
	if alias != "" && alias != table {
		return fmt.Sprintf("%s AS %s", quotedTable, st.dialect.QuoteIdentifier(alias))
	}
	return quotedTable
}

// resolveField implements the "smart JOIN field parsing" rule (spec.md
// §4.2 rule 7): a dotted field resolves to "table"."column" when its
// prefix names the root table, a previously joined table, or an alias;
// otherwise it is treated as a JSONB path extraction on the root table,
// auto-casting to ::integer when the terminal key is "id" or ends in "id".
func (st *parseState) resolveField(field string) string {
	if !strings.Contains(field, ".") {
		return st.dialect.QuoteIdentifier(field)
	}
	segments := strings.Split(field, ".")
	prefix := segments[0]
	if st.joinedNames[prefix] {
		return st.dialect.QuoteIdentifier(prefix) + "." + st.dialect.QuoteIdentifier(strings.Join(segments[1:], "."))
	}
	jsonCol := prefix
	path := segments[1:]
	expr := st.dialect.JSONExtract(jsonCol, path)
	terminal := path[len(path)-1]
	if terminal == "id" || strings.HasSuffix(terminal, "id") || strings.HasSuffix(terminal, "Id") {
		expr = "(" + expr + ")::integer"
	}
	return expr
}

// substitutePositional replaces each positional '?' token in sql with the
// next dialect placeholder, binding the corresponding arg (spec.md §4.2
// rule 3, §9 "Raw SQL safety": never interpolate user data outside this
// substitution).
func (st *parseState) substitutePositional(sql string, args []any) (string, error) {
	var b strings.Builder
	argIdx := 0
	for i := 0; i < len(sql); i++ {
		if sql[i] == '?' {
			if argIdx >= len(args) {
				return "", parseErr("raw clause has more '?' tokens than bound args")
			}
			b.WriteString(st.nextPlaceholder(args[argIdx]))
			argIdx++
			continue
		}
		b.WriteByte(sql[i])
	}
	if argIdx != len(args) {
		return "", parseErr("raw clause bound more args than it has '?' tokens")
	}
	return b.String(), nil
}

// renderSub parses a correlated sub-builder's operations into a SELECT 1
// FROM ... WHERE ... fragment sharing the parent's placeholder counter.
func (st *parseState) renderSub(sub *Builder, table string) (string, error) {
	subState := &parseState{
		dialect:      st.dialect,
		root:         RootSpec{Table: table},
		counter:      st.counter,
		deselect:     map[string]bool{},
		joinedNames:  map[string]bool{table: true},
		relatedAdded: map[string]bool{},
	}
	for _, op := range sub.operations {
		if err := subState.apply(op); err != nil {
			return "", err
		}
	}
	st.counter = subState.counter
	st.params = append(st.params, subState.params...)
	return subState.assembleFromWhere(), nil
}

// assembleFromWhere renders "SELECT 1 FROM <table> <joins> [WHERE ...]",
// the shape an EXISTS/NOT EXISTS correlated sub-query needs — select
// columns, grouping, and ordering on the sub-builder are irrelevant to
// existence and intentionally dropped.
func (st *parseState) assembleFromWhere() string {
	var b strings.Builder
	b.WriteString("SELECT 1 FROM ")
	b.WriteString(st.dialect.QuoteIdentifier(st.root.Table))
	if st.root.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(st.dialect.QuoteIdentifier(st.root.Alias))
	}
	for _, j := range st.joins {
		b.WriteByte(' ')
		b.WriteString(j)
	}
	if len(st.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(renderConnectorChain(st.wheres))
	}
	return strings.TrimSpace(b.String())
}

func (st *parseState) assemble() *Artifact {
	var b strings.Builder
	b.WriteString("SELECT ")
	if st.distinct {
		b.WriteString("DISTINCT ")
	}
	cols := st.visibleColumns()
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(" FROM ")
	b.WriteString(st.dialect.QuoteIdentifier(st.root.Table))
	if st.root.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(st.dialect.QuoteIdentifier(st.root.Alias))
	}
	for _, j := range st.joins {
		b.WriteByte(' ')
		b.WriteString(j)
	}
	if len(st.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(renderConnectorChain(st.wheres))
	}
	if len(st.groupCols) > 0 {
		b.WriteString(" GROUP BY ")
		b.WriteString(strings.Join(st.groupCols, ", "))
	}
	if len(st.havings) > 0 {
		b.WriteString(" HAVING ")
		b.WriteString(strings.Join(st.havings, " AND "))
	}
	if len(st.orderClauses) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(st.orderClauses, ", "))
	}
	b.WriteString(st.dialect.LimitOffset(st.limit, st.offset))

	return &Artifact{SQL: strings.TrimSpace(b.String()), Params: st.params}
}

func (st *parseState) visibleColumns() []string {
	var cols []string
	for _, c := range st.selectCols {
		if st.deselect[stripQuotes(c)] {
			continue
		}
		cols = append(cols, c)
	}
	cols = append(cols, st.rawSelects...)
	return cols
}

func stripQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// renderUpdate compiles ops into an UPDATE ... SET ... WHERE ... statement.
// The SET assignments are rendered first so their placeholders precede the
// filter's. Only where- and join-bearing operations are applied
// (filterWhereJoin): select/order/group/limit operations on the builder are
// ignored, and join clauses are written after the SET list.
func (p *RelationalParser) renderUpdate(root RootSpec, ops []Operation, exprs []UpdateExpr) (string, []any, error) {
	if len(exprs) == 0 {
		return "", nil, parseErr("update: no assignments given")
	}
	st := &parseState{
		dialect:      p.Dialect,
		root:         root,
		deselect:     map[string]bool{},
		joinedNames:  map[string]bool{root.name(): true, root.Table: true},
		relatedAdded: map[string]bool{},
	}
	sets, err := st.renderAssignments(exprs)
	if err != nil {
		return "", nil, err
	}

	for _, op := range filterWhereJoin(ops) {
		if err := st.apply(op); err != nil {
			return "", nil, err
		}
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(st.dialect.QuoteIdentifier(root.Table))
	b.WriteString(" SET ")
	b.WriteString(strings.Join(sets, ", "))
	for _, j := range st.joins {
		b.WriteByte(' ')
		b.WriteString(j)
	}
	if len(st.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(renderConnectorChain(st.wheres))
	}
	return strings.TrimSpace(b.String()), st.params, nil
}

// renderAssignments translates the neutral $set/$unset/$inc/$dec update
// operators into "col = expr" fragments (spec.md §4.8 update-operator
// mini-language).
func (st *parseState) renderAssignments(exprs []UpdateExpr) ([]string, error) {
	var sets []string
	for _, e := range exprs {
		if e.Field == "" {
			return nil, parseErr("update: missing field in assignment")
		}
		col := st.dialect.QuoteIdentifier(e.Field)
		switch e.Op {
		case "", "$set":
			ph := st.nextPlaceholder(e.Value)
			sets = append(sets, fmt.Sprintf("%s = %s", col, ph))
		case "$unset":
			sets = append(sets, fmt.Sprintf("%s = NULL", col))
		case "$inc":
			ph := st.nextPlaceholder(e.Value)
			sets = append(sets, fmt.Sprintf("%s = COALESCE(%s,0) + %s", col, col, ph))
		case "$dec":
			ph := st.nextPlaceholder(e.Value)
			sets = append(sets, fmt.Sprintf("%s = COALESCE(%s,0) - %s", col, col, ph))
		default:
			return nil, parseErr("update: unknown operator " + e.Op)
		}
	}
	return sets, nil
}

// renderDelete compiles ops into a DELETE FROM ... WHERE ... statement.
func (p *RelationalParser) renderDelete(root RootSpec, ops []Operation) (string, []any, error) {
	st := &parseState{
		dialect:      p.Dialect,
		root:         root,
		deselect:     map[string]bool{},
		joinedNames:  map[string]bool{root.name(): true, root.Table: true},
		relatedAdded: map[string]bool{},
	}
	for _, op := range filterWhereJoin(ops) {
		if err := st.apply(op); err != nil {
			return "", nil, err
		}
	}
	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(st.dialect.QuoteIdentifier(root.Table))
	if len(st.wheres) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(renderConnectorChain(st.wheres))
	}
	return strings.TrimSpace(b.String()), st.params, nil
}

// filterWhereJoin keeps only where- and join-bearing operations, discarding
// select/order/group/having/distinct/limit/offset. renderUpdate, renderDelete,
// and the count/aggregate renderers all need the same "filter the matched
// rows, ignore everything about shaping or paging the result set" subset.
func filterWhereJoin(ops []Operation) []Operation {
	out := make([]Operation, 0, len(ops))
	for _, op := range ops {
		switch op.Type {
		case OpWhere, OpOrWhere, OpWhereRaw, OpWhereIn, OpWhereNull, OpWhereNotNull,
			OpWhereBetween, OpWhereLike, OpWhereColumn, OpWhereJsonContains,
			OpWhereJsonLength, OpWhereFullText, OpWhereExists, OpWhereNot,
			OpJoinLeft, OpJoinRight, OpJoinInner, OpJoinFull, OpJoinCross, OpJoinRaw,
			OpHas, OpWhereHas, OpDoesntHave, OpWhereDoesntHave:
			out = append(out, op)
		}
	}
	return out
}

// renderAggregate rebuilds ops keeping only where+join operations and
// appends a single aggregate selectRaw, the shape count()/sum()/avg()/
// min()/max()/countDistinct() all share (spec.md §4.3 "count() rebuilds the
// operation set keeping only where+join operations and appends
// selectRaw(...)").
func (p *RelationalParser) renderAggregate(root RootSpec, ops []Operation, expr, alias string) (string, []any, error) {
	filtered := filterWhereJoin(ops)
	filtered = append(filtered, Operation{
		Type: OpSelectRaw,
		Data: SelectRawData{SQL: expr + " AS " + p.Dialect.QuoteIdentifier(alias)},
	})
	art, err := p.Parse(root, filtered)
	if err != nil {
		return "", nil, err
	}
	return art.SQL, art.Params, nil
}

// renderCount renders SELECT COUNT(*) AS "count" FROM ... WHERE ..., the
// exact artifact spec.md §8 scenario 2 requires.
func (p *RelationalParser) renderCount(root RootSpec, ops []Operation) (string, []any, error) {
	return p.renderAggregate(root, ops, "COUNT(*)", "count")
}

// renderCountDistinct renders SELECT COUNT(DISTINCT "field") AS "count" ...
func (p *RelationalParser) renderCountDistinct(root RootSpec, ops []Operation, field string) (string, []any, error) {
	expr := fmt.Sprintf("COUNT(DISTINCT %s)", p.Dialect.QuoteIdentifier(field))
	return p.renderAggregate(root, ops, expr, "count")
}

func renderConnectorChain(frags []whereFragment) string {
	var b strings.Builder
	for i, f := range frags {
		if i > 0 {
			b.WriteByte(' ')
			b.WriteString(string(f.connector))
			b.WriteByte(' ')
		}
		b.WriteString(f.sql)
	}
	return b.String()
}
