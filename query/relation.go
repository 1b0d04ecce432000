package query

import "fmt"

// RelationKind is the closed set of relation shapes spec.md §2 describes on
// a Model: belongsTo, hasOne, hasMany, belongsToMany.
type RelationKind int

const (
	BelongsTo RelationKind = iota
	HasOne
	HasMany
	BelongsToMany
)

// RelationDefinition describes how a named relation on a root table joins
// to another table, resolved by name rather than by importing the related
// Go type directly (spec.md §9: model registry lookup avoids an import
// cycle between the query builder and the model layer that owns relation
// declarations).
type RelationDefinition struct {
	Kind         RelationKind
	RelatedTable string
	LocalKey     string // column on the root table
	ForeignKey   string // column on the related (or pivot) table

	// Pivot* are only set for BelongsToMany.
	PivotTable      string
	PivotLocalKey   string // column on pivot referencing the root table
	PivotForeignKey string // column on pivot referencing the related table
}

// RelationResolver looks up a relation by name. When a Builder has no
// resolver (no Model bound) or the name does not resolve, Has/WhereHas/With
// return no error: they record a raw "1=0" predicate followed by an SQL
// comment carrying the resolution error.
type RelationResolver interface {
	Resolve(name string) (*RelationDefinition, error)
}

// existsSubquery builds the correlated sub-Builder backing Has/WhereHas/
// DoesntHave/WhereDoesntHave: "EXISTS (SELECT 1 FROM related WHERE
// related.fk = root.lk [AND extra constraints])" for direct relations, or
// an extra correlated EXISTS against the pivot table for BelongsToMany.
func existsSubquery(root RootSpec, def *RelationDefinition, constrain func(*Builder)) (table string, sub *Builder) {
	switch def.Kind {
	case BelongsToMany:
		sub = New(RootSpec{Table: def.PivotTable}, nil)
		sub.WhereColumn(def.PivotTable+"."+def.PivotLocalKey, "=", root.name()+"."+def.LocalKey)
		inner := New(RootSpec{Table: def.RelatedTable}, nil)
		inner.WhereColumn(def.RelatedTable+"."+"id", "=", def.PivotTable+"."+def.PivotForeignKey)
		if constrain != nil {
			constrain(inner)
		}
		sub.operations = append(sub.operations, Operation{
			Type: OpWhereExists,
			Data: WhereExistsData{Table: def.RelatedTable, Sub: inner, Connector: And},
		})
		return def.PivotTable, sub
	default:
		sub = New(RootSpec{Table: def.RelatedTable}, nil)
		sub.WhereColumn(def.RelatedTable+"."+def.ForeignKey, "=", root.name()+"."+def.LocalKey)
		if constrain != nil {
			constrain(sub)
		}
		return def.RelatedTable, sub
	}
}

func errUnresolvedRelation(name string) error {
	return parseErr(fmt.Sprintf("relation %q is not registered on this builder's model", name))
}
