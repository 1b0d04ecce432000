package query

// Builder accumulates an ordered Operation list and, on execution, hands it
// to a Dispatcher bound to one engine (spec.md §4.3). Builder itself has no
// engine-specific knowledge: every method just appends a typed Operation.
type Builder struct {
	root       RootSpec
	dispatcher Dispatcher
	resolver   RelationResolver

	operations []Operation

	globalScopes      []*Scope
	disabledScopes    map[string]bool
	allScopesDisabled bool
	scopesApplied     bool

	// joinRelations holds the names queued by With(). Clone copies it and
	// reset clears it; the execution methods do not read it.
	joinRelations []string

	preFetch  func(*Builder) error
	postFetch func([]Row) error
}

// New returns a Builder targeting root, dispatching through d. d may be nil
// for sub-builders that are only ever rendered inline (EXISTS correlations,
// scope scratch builders) and never executed directly.
func New(root RootSpec, d Dispatcher) *Builder {
	return &Builder{root: root, dispatcher: d}
}

// BindResolver attaches the relation registry a Model uses to resolve
// Has/WhereHas/With by name. Called once by the model layer when vending a
// fresh Builder.
func (b *Builder) BindResolver(r RelationResolver) *Builder {
	b.resolver = r
	return b
}

// Clone returns an independent copy: mutating the clone never affects the
// original (spec.md §4.3 "clone() yields an independent builder"), achieved
// by deep-copying every Operation and the scope/relation bookkeeping.
func (b *Builder) Clone() *Builder {
	nb := &Builder{
		root:              b.root,
		dispatcher:        b.dispatcher,
		resolver:          b.resolver,
		allScopesDisabled: b.allScopesDisabled,
		scopesApplied:     b.scopesApplied,
		preFetch:          b.preFetch,
		postFetch:         b.postFetch,
	}
	for _, op := range b.operations {
		nb.operations = append(nb.operations, op.Clone())
	}
	nb.globalScopes = append(nb.globalScopes, b.globalScopes...)
	if b.disabledScopes != nil {
		nb.disabledScopes = make(map[string]bool, len(b.disabledScopes))
		for k, v := range b.disabledScopes {
			nb.disabledScopes[k] = v
		}
	}
	nb.joinRelations = append(nb.joinRelations, b.joinRelations...)
	return nb
}

func (b *Builder) push(t OpType, data any) *Builder {
	b.operations = append(b.operations, Operation{Type: t, Data: data})
	return b
}

// --- where family ----------------------------------------------------------

func (b *Builder) Where(field, operator string, value any) *Builder {
	return b.push(OpWhere, WhereData{Field: field, Operator: operator, Value: value, Connector: And})
}

func (b *Builder) OrWhere(field, operator string, value any) *Builder {
	return b.push(OpOrWhere, WhereData{Field: field, Operator: operator, Value: value, Connector: Or})
}

func (b *Builder) WhereNot(field, operator string, value any) *Builder {
	return b.push(OpWhereNot, WhereData{Field: field, Operator: operator, Value: value, Connector: And, Negate: true})
}

func (b *Builder) OrWhereNot(field, operator string, value any) *Builder {
	return b.push(OpWhereNot, WhereData{Field: field, Operator: operator, Value: value, Connector: Or, Negate: true})
}

func (b *Builder) WhereRaw(sql string, args ...any) *Builder {
	return b.push(OpWhereRaw, WhereRawData{SQL: sql, Args: args, Connector: And})
}

func (b *Builder) OrWhereRaw(sql string, args ...any) *Builder {
	return b.push(OpWhereRaw, WhereRawData{SQL: sql, Args: args, Connector: Or})
}

func (b *Builder) WhereIn(field string, values ...any) *Builder {
	return b.push(OpWhereIn, WhereInData{Field: field, Values: values, Connector: And})
}

func (b *Builder) WhereNotIn(field string, values ...any) *Builder {
	return b.push(OpWhereIn, WhereInData{Field: field, Values: values, Negate: true, Connector: And})
}

func (b *Builder) WhereNull(field string) *Builder {
	return b.push(OpWhereNull, WhereNullData{Field: field, Connector: And})
}

func (b *Builder) WhereNotNull(field string) *Builder {
	return b.push(OpWhereNotNull, WhereNullData{Field: field, Connector: And})
}

func (b *Builder) WhereBetween(field string, low, high any) *Builder {
	return b.push(OpWhereBetween, WhereBetweenData{Field: field, Low: low, High: high, Connector: And})
}

func (b *Builder) WhereNotBetween(field string, low, high any) *Builder {
	return b.push(OpWhereBetween, WhereBetweenData{Field: field, Low: low, High: high, Negate: true, Connector: And})
}

func (b *Builder) WhereLike(field, pattern string, caseInsensitive bool) *Builder {
	return b.push(OpWhereLike, WhereLikeData{Field: field, Pattern: pattern, CaseInsensitive: caseInsensitive, Connector: And})
}

func (b *Builder) WhereColumn(left, operator, right string) *Builder {
	return b.push(OpWhereColumn, WhereColumnData{Left: left, Operator: operator, Right: right, Connector: And})
}

func (b *Builder) WhereJsonContains(field string, path []string, value any) *Builder {
	return b.push(OpWhereJsonContains, WhereJsonContainsData{Field: field, Path: path, Value: value, Connector: And})
}

func (b *Builder) WhereJsonLength(field string, path []string, operator string, length int) *Builder {
	return b.push(OpWhereJsonLength, WhereJsonLengthData{Field: field, Path: path, Operator: operator, Length: length, Connector: And})
}

func (b *Builder) WhereFullText(columns []string, query string) *Builder {
	return b.push(OpWhereFullText, WhereFullTextData{Columns: columns, Query: query, Connector: And})
}

// WhereExists adds a correlated EXISTS(subTable ...) predicate built by
// constrain against a fresh Builder rooted at subTable.
func (b *Builder) WhereExists(subTable string, constrain func(*Builder)) *Builder {
	sub := New(RootSpec{Table: subTable}, nil)
	if constrain != nil {
		constrain(sub)
	}
	return b.push(OpWhereExists, WhereExistsData{Table: subTable, Sub: sub, Connector: And})
}

func (b *Builder) WhereNotExists(subTable string, constrain func(*Builder)) *Builder {
	sub := New(RootSpec{Table: subTable}, nil)
	if constrain != nil {
		constrain(sub)
	}
	return b.push(OpWhereExists, WhereExistsData{Table: subTable, Sub: sub, Negate: true, Connector: And})
}

// --- selection --------------------------------------------------------------

func (b *Builder) Select(fields ...string) *Builder {
	return b.push(OpSelect, SelectData{Fields: fields})
}

func (b *Builder) SelectRaw(sql string, args ...any) *Builder {
	return b.push(OpSelectRaw, SelectRawData{SQL: sql, Args: args})
}

func (b *Builder) Deselect(fields ...string) *Builder {
	return b.push(OpDeselect, DeselectData{Fields: fields})
}

func (b *Builder) Distinct() *Builder {
	return b.push(OpDistinct, DistinctData{})
}

// --- joins -------------------------------------------------------------------

func (b *Builder) joinOp(t OpType, table, alias, localField, operator, foreignField string) *Builder {
	return b.push(t, JoinData{Table: table, Alias: alias, LocalField: localField, Operator: operator, ForeignField: foreignField})
}

func (b *Builder) JoinLeft(table, alias, localField, operator, foreignField string) *Builder {
	return b.joinOp(OpJoinLeft, table, alias, localField, operator, foreignField)
}

func (b *Builder) JoinRight(table, alias, localField, operator, foreignField string) *Builder {
	return b.joinOp(OpJoinRight, table, alias, localField, operator, foreignField)
}

func (b *Builder) JoinInner(table, alias, localField, operator, foreignField string) *Builder {
	return b.joinOp(OpJoinInner, table, alias, localField, operator, foreignField)
}

func (b *Builder) JoinFull(table, alias, localField, operator, foreignField string) *Builder {
	return b.joinOp(OpJoinFull, table, alias, localField, operator, foreignField)
}

func (b *Builder) JoinCross(table, alias string) *Builder {
	return b.joinOp(OpJoinCross, table, alias, "", "", "")
}

func (b *Builder) JoinRaw(sql string, args ...any) *Builder {
	return b.push(OpJoinRaw, JoinRawData{SQL: sql, Args: args})
}

// --- ordering / grouping -----------------------------------------------------

func (b *Builder) OrderBy(field, direction string) *Builder {
	return b.push(OpOrderBy, OrderByData{Field: field, Direction: direction})
}

func (b *Builder) OrderByRaw(sql string, args ...any) *Builder {
	return b.push(OpOrderByRaw, OrderByRawData{SQL: sql, Args: args})
}

func (b *Builder) GroupBy(fields ...string) *Builder {
	return b.push(OpGroupBy, GroupByData{Fields: fields})
}

func (b *Builder) Having(sql string, args ...any) *Builder {
	return b.push(OpHaving, HavingData{SQL: sql, Args: args})
}

func (b *Builder) HavingRaw(sql string, args ...any) *Builder {
	return b.push(OpHavingRaw, HavingData{SQL: sql, Args: args})
}

func (b *Builder) Limit(n int) *Builder {
	return b.push(OpLimit, LimitData{Limit: n})
}

func (b *Builder) Offset(n int) *Builder {
	return b.push(OpOffset, OffsetData{Offset: n})
}

// --- relations ---------------------------------------------------------------

// With eager-loads a relation by name: it joins the related table and
// injects selectRelatedColumns, so each returned row carries the related
// record as a nested row_to_json column named after the relation (spec.md
// §4.3 step 2, §4.2 rule 8). Get returns that column as the driver scanned
// it; it is not hydrated into a model.
func (b *Builder) With(name string) *Builder {
	def, err := b.resolveRelation(name)
	if err != nil {
		return b.push(OpWhereRaw, WhereRawData{SQL: "1=0 -- " + err.Error(), Connector: And})
	}
	switch def.Kind {
	case BelongsToMany:
		b.joinOp(OpJoinLeft, def.PivotTable, def.PivotTable, b.root.name()+"."+def.LocalKey, "=", def.PivotLocalKey)
		b.joinOp(OpJoinLeft, def.RelatedTable, name, def.PivotTable+"."+def.PivotForeignKey, "=", "id")
	default:
		b.joinOp(OpJoinLeft, def.RelatedTable, name, b.root.name()+"."+def.LocalKey, "=", def.ForeignKey)
	}
	b.push(OpSelectRelatedColumns, SelectRelatedColumnsData{Alias: name})
	b.joinRelations = append(b.joinRelations, name)
	return b
}

func (b *Builder) resolveRelation(name string) (*RelationDefinition, error) {
	if b.resolver == nil {
		return nil, errUnresolvedRelation(name)
	}
	return b.resolver.Resolve(name)
}

func (b *Builder) relationExistence(name string, negate bool, constrain func(*Builder), connector Connector) *Builder {
	def, err := b.resolveRelation(name)
	if err != nil {
		return b.push(OpWhereRaw, WhereRawData{SQL: "1=0 -- " + err.Error(), Connector: connector})
	}
	table, sub := existsSubquery(b.root, def, constrain)
	return b.push(OpWhereExists, WhereExistsData{Table: table, Sub: sub, Negate: negate, Connector: connector})
}

// Has constrains to rows that have at least one related record.
func (b *Builder) Has(relation string) *Builder {
	return b.relationExistence(relation, false, nil, And)
}

// WhereHas is Has with extra constraints applied to the related query.
func (b *Builder) WhereHas(relation string, constrain func(*Builder)) *Builder {
	return b.relationExistence(relation, false, constrain, And)
}

// DoesntHave constrains to rows with no related record.
func (b *Builder) DoesntHave(relation string) *Builder {
	return b.relationExistence(relation, true, nil, And)
}

// WhereDoesntHave is DoesntHave with extra constraints on the related query.
func (b *Builder) WhereDoesntHave(relation string, constrain func(*Builder)) *Builder {
	return b.relationExistence(relation, true, constrain, And)
}

// --- hooks -------------------------------------------------------------------

// BeforeFetch registers a hook run once, immediately before dispatch
// (spec.md §4.3 step 3).
func (b *Builder) BeforeFetch(fn func(*Builder) error) *Builder {
	b.preFetch = fn
	return b
}

// AfterFetch registers a hook run once after rows return, before hydration
// (spec.md §4.3 step 6).
func (b *Builder) AfterFetch(fn func([]Row) error) *Builder {
	b.postFetch = fn
	return b
}
