package migrate

import "strings"

// migrationError wraps a cause with the migration-engine operation that
// failed; the root cascade package's error taxonomy wraps this in turn
// (kind "migration") rather than migrate depending on cascade directly,
// which would create an import cycle (cascade already imports migrate).
type migrationError struct {
	op    string
	cause error
}

func (e *migrationError) Error() string {
	return "cascade: migrate: " + e.op + ": " + e.cause.Error()
}

func (e *migrationError) Unwrap() error { return e.cause }

func wrapMigrationErr(cause error, op string) error {
	if cause == nil {
		return nil
	}
	return &migrationError{op: op, cause: cause}
}

// WrapDriverError lets a MigrationDriver implementation living outside this
// package (driverdoc's NativeClient-backed driver) wrap a native failure
// the same way PostgresMigrationDriver's atoms do.
func WrapDriverError(cause error, op string) error {
	return wrapMigrationErr(cause, op)
}

// escapeLiteral doubles single quotes the naive way catalog-introspection
// queries need; migration DDL itself never interpolates untrusted input,
// only names the caller already controls as Go identifiers.
func escapeLiteral(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
