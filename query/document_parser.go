package query

import (
	"fmt"
	"strings"
)

// DocumentParser flattens an Operation list into an aggregation pipeline
// targeting the document engine (spec.md §4.2's Mongo-shaped sibling to
// RelationalParser). Where the relational parser renders text, this one
// renders native filter maps; there is no placeholder counter to share
// since driver values are passed through as-is rather than bound.
type DocumentParser struct{}

// NewDocumentParser returns a parser producing aggregation-pipeline
// Artifacts.
func NewDocumentParser() *DocumentParser { return &DocumentParser{} }

func (p *DocumentParser) Parse(root RootSpec, ops []Operation) (*Artifact, error) {
	filter, group, err := p.translate(ops)
	if err != nil {
		return nil, err
	}

	var pipeline []map[string]any
	if len(filter) > 0 {
		pipeline = append(pipeline, map[string]any{"$match": filter})
	}
	for _, j := range group.lookups {
		pipeline = append(pipeline, j)
	}
	if len(group.projection) > 0 {
		pipeline = append(pipeline, map[string]any{"$project": group.projection})
	}
	if len(group.groupBy) > 0 {
		pipeline = append(pipeline, map[string]any{"$group": group.groupSpec()})
	}
	if len(group.sort) > 0 {
		pipeline = append(pipeline, map[string]any{"$sort": group.sort})
	}
	if group.skip != nil {
		pipeline = append(pipeline, map[string]any{"$skip": *group.skip})
	}
	if group.limit != nil {
		pipeline = append(pipeline, map[string]any{"$limit": *group.limit})
	}
	return &Artifact{Pipeline: pipeline}, nil
}

// filterFromOps translates only the filter-bearing operations (where*) into
// a native Mongo-shaped filter document, for Update/Delete dispatch where no
// other pipeline stage applies.
func (p *DocumentParser) filterFromOps(ops []Operation) (map[string]any, error) {
	filter, _, err := p.translate(ops)
	return filter, err
}

// aggregatePipeline rebuilds ops keeping only where+join operations, then
// appends a single caller-supplied stage: the document engine's counterpart
// to renderAggregate (spec.md §4.3 count()/sum()/avg()/min()/max()/
// countDistinct(), applied engine-neutrally).
func (p *DocumentParser) aggregatePipeline(ops []Operation, stage map[string]any) ([]map[string]any, error) {
	filter, group, err := p.translate(filterWhereJoin(ops))
	if err != nil {
		return nil, err
	}
	var pipeline []map[string]any
	if len(filter) > 0 {
		pipeline = append(pipeline, map[string]any{"$match": filter})
	}
	pipeline = append(pipeline, group.lookups...)
	pipeline = append(pipeline, stage)
	return pipeline, nil
}

type docGroup struct {
	lookups    []map[string]any
	projection map[string]any
	groupBy    []string
	sort       map[string]int
	skip       *int
	limit      *int
}

func (g *docGroup) groupSpec() map[string]any {
	id := map[string]any{}
	for _, f := range g.groupBy {
		id[f] = "$" + f
	}
	return map[string]any{"_id": id}
}

func (p *DocumentParser) translate(ops []Operation) (map[string]any, *docGroup, error) {
	var andClauses []map[string]any
	group := &docGroup{}

	for _, op := range ops {
		switch op.Type {
		case OpWhere:
			d := op.Data.(WhereData)
			clause := map[string]any{d.Field: mongoCompare(d.Operator, d.Value)}
			if d.Negate {
				clause = map[string]any{d.Field: map[string]any{"$not": mongoCompare(d.Operator, d.Value)}}
			}
			andClauses = appendConnected(andClauses, d.Connector, clause)

		case OpOrWhere:
			d := op.Data.(WhereData)
			clause := map[string]any{d.Field: mongoCompare(d.Operator, d.Value)}
			andClauses = appendConnected(andClauses, Or, clause)

		case OpWhereIn:
			d := op.Data.(WhereInData)
			op2 := "$in"
			if d.Negate {
				op2 = "$nin"
			}
			andClauses = appendConnected(andClauses, d.Connector, map[string]any{d.Field: map[string]any{op2: d.Values}})

		case OpWhereNull:
			d := op.Data.(WhereNullData)
			andClauses = appendConnected(andClauses, d.Connector, map[string]any{d.Field: nil})

		case OpWhereNotNull:
			d := op.Data.(WhereNullData)
			andClauses = appendConnected(andClauses, d.Connector, map[string]any{d.Field: map[string]any{"$ne": nil}})

		case OpWhereBetween:
			d := op.Data.(WhereBetweenData)
			clause := map[string]any{d.Field: map[string]any{"$gte": d.Low, "$lte": d.High}}
			if d.Negate {
				clause = map[string]any{"$nor": []map[string]any{clause}}
			}
			andClauses = appendConnected(andClauses, d.Connector, clause)

		case OpWhereLike:
			d := op.Data.(WhereLikeData)
			opts := ""
			if d.CaseInsensitive {
				opts = "i"
			}
			andClauses = appendConnected(andClauses, d.Connector, map[string]any{
				d.Field: map[string]any{"$regex": likeToRegex(d.Pattern), "$options": opts},
			})

		case OpWhereJsonContains:
			d := op.Data.(WhereJsonContainsData)
			andClauses = appendConnected(andClauses, d.Connector, map[string]any{dottedPath(d.Field, d.Path): d.Value})

		case OpWhereFullText:
			d := op.Data.(WhereFullTextData)
			andClauses = appendConnected(andClauses, d.Connector, map[string]any{"$text": map[string]any{"$search": d.Query}})

		case OpWhereNot:
			return nil, nil, parseErr("whereNot: semantics are left unspecified by the source system (spec.md §9); this stub intentionally does not compile a clause")

		case OpWhereRaw, OpWhereColumn, OpWhereJsonLength, OpWhereExists:
			return nil, nil, parseErr("this predicate has no native document-engine translation")

		case OpSelect:
			d := op.Data.(SelectData)
			if group.projection == nil {
				group.projection = map[string]any{}
			}
			for _, f := range d.Fields {
				group.projection[f] = 1
			}

		case OpDeselect:
			d := op.Data.(DeselectData)
			if group.projection == nil {
				group.projection = map[string]any{}
			}
			for _, f := range d.Fields {
				group.projection[f] = 0
			}

		case OpJoinLeft, OpJoinInner:
			d := op.Data.(JoinData)
			alias := d.Alias
			if alias == "" {
				alias = d.Table
			}
			group.lookups = append(group.lookups, map[string]any{
				"$lookup": map[string]any{
					"from":         d.Table,
					"localField":   d.LocalField,
					"foreignField": d.ForeignField,
					"as":           alias,
				},
			})

		case OpOrderBy:
			d := op.Data.(OrderByData)
			if group.sort == nil {
				group.sort = map[string]int{}
			}
			dir := 1
			if strings.EqualFold(d.Direction, "DESC") {
				dir = -1
			}
			group.sort[d.Field] = dir

		case OpGroupBy:
			d := op.Data.(GroupByData)
			group.groupBy = append(group.groupBy, d.Fields...)

		case OpLimit:
			d := op.Data.(LimitData)
			l := d.Limit
			group.limit = &l

		case OpOffset:
			d := op.Data.(OffsetData)
			o := d.Offset
			group.skip = &o

		case OpDistinct, OpSelectRaw, OpJoinRaw, OpOrderByRaw, OpHaving, OpHavingRaw, OpSelectRelatedColumns:
			// no native document-engine equivalent; silently a no-op is
			// wrong, but these are relational-only conveniences the
			// builder should not call against a document root.
			return nil, nil, parseErr(fmt.Sprintf("operation %d has no document-engine translation", op.Type))

		case OpHas, OpWhereHas, OpDoesntHave, OpWhereDoesntHave:
			return nil, nil, parseErr("has/whereHas/doesntHave/whereDoesntHave must be resolved before parsing")

		default:
			return nil, nil, parseErr(fmt.Sprintf("unknown operation type %d", op.Type))
		}
	}

	filter := combineClauses(andClauses)
	return filter, group, nil
}

// appendConnected adds clause to the running filter with the precedence SQL
// gives AND over OR: an Or-connected clause starts a $or whose first branch
// is everything before it, and later And-connected clauses join that
// newest branch. combineClauses then ANDs whatever list remains.
func appendConnected(clauses []map[string]any, connector Connector, clause map[string]any) []map[string]any {
	if connector == Or && len(clauses) > 0 {
		return []map[string]any{{"$or": []map[string]any{combineClauses(clauses), clause}}}
	}
	if len(clauses) == 1 && len(clauses[0]) == 1 {
		if branches, ok := clauses[0]["$or"].([]map[string]any); ok {
			last := len(branches) - 1
			branches[last] = combineClauses([]map[string]any{branches[last], clause})
			return clauses
		}
	}
	return append(clauses, clause)
}

func combineClauses(clauses []map[string]any) map[string]any {
	switch len(clauses) {
	case 0:
		return map[string]any{}
	case 1:
		return clauses[0]
	default:
		return map[string]any{"$and": clauses}
	}
}

func mongoCompare(operator string, value any) any {
	switch operator {
	case "", "=":
		return value
	case "!=", "<>":
		return map[string]any{"$ne": value}
	case ">":
		return map[string]any{"$gt": value}
	case ">=":
		return map[string]any{"$gte": value}
	case "<":
		return map[string]any{"$lt": value}
	case "<=":
		return map[string]any{"$lte": value}
	default:
		return value
	}
}

func likeToRegex(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteByte('.')
		default:
			b.WriteString(regexQuoteRune(r))
		}
	}
	b.WriteByte('$')
	return b.String()
}

func regexQuoteRune(r rune) string {
	if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
		return `\` + string(r)
	}
	return string(r)
}

func dottedPath(field string, path []string) string {
	if len(path) == 0 {
		return field
	}
	return field + "." + strings.Join(path, ".")
}
