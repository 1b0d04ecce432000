// Package migrate implements the schema-migration engine: a Blueprint for
// read-only introspection, a MigrationDriver that renders atom-level DDL,
// a fluent Migration DSL that queues pending operations, and a
// MigrationRunner that orchestrates batched forward/backward runs
// (spec.md §4.4–§4.7).
package migrate

import "github.com/warlockjs/cascade/dialect"

// ColumnDefinition describes one column a migration adds or modifies.
// Fields beyond Name/Type are optional rendering hints; zero values mean
// "unspecified". NotNull and AutoIncrement are plain bools, so an unset
// flag and an explicit false render the same.
type ColumnDefinition struct {
	Name          string
	Type          dialect.ColumnType
	Options       dialect.TypeOptions
	NotNull       bool
	Default       any
	IsRawDefault  bool // Default is a raw SQL expression, not a literal to escape
	AutoIncrement bool
	Unique        bool
	Comment       string
}

// ForeignKeyAction is the closed set of referential actions a foreign key
// may declare on delete/update.
type ForeignKeyAction string

const (
	ActionCascade  ForeignKeyAction = "cascade"
	ActionRestrict ForeignKeyAction = "restrict"
	ActionSetNull  ForeignKeyAction = "setNull"
	ActionNoAction ForeignKeyAction = "noAction"
)

// ForeignKeyDefinition describes one foreign-key constraint.
type ForeignKeyDefinition struct {
	Name       string
	Column     string
	RefTable   string
	RefColumn  string
	OnDelete   ForeignKeyAction
	OnUpdate   ForeignKeyAction
}

// CheckDefinition describes one CHECK constraint.
type CheckDefinition struct {
	Name       string
	Expression string
}
