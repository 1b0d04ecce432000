package cascade

import (
	"errors"
	"fmt"
)

// Kind is the closed taxonomy of error kinds a Cascade component may raise.
// See spec.md §7 for the full catalogue.
type Kind string

const (
	KindConfigMissingDataSource   Kind = "configuration.missing-data-source"
	KindConfigDuplicateName       Kind = "configuration.duplicate-name"
	KindConfigUnknownDriver       Kind = "configuration.unknown-driver"
	KindConnectionNotConnected    Kind = "connection.not-connected"
	KindConnectionConnectFailed   Kind = "connection.connect-failed"
	KindConnectionDisconnectFail  Kind = "connection.disconnect-failed"
	KindParseInvalidPayload       Kind = "parse.invalid-operation-payload"
	KindParseUnknownOperator      Kind = "parse.unknown-operator"
	KindParseBadJoinField         Kind = "parse.bad-join-field"
	KindExecutionQueryFailed      Kind = "execution.query-failed"
	KindExecutionConstraint       Kind = "execution.constraint-violation"
	KindExecutionUniqueViolation  Kind = "execution.unique-violation"
	KindExecutionFKViolation      Kind = "execution.foreign-key-violation"
	KindExecutionNotNullViolation Kind = "execution.not-null-violation"
	KindTransactionNoActive       Kind = "transaction.no-active-transaction"
	KindTransactionAlreadyDone    Kind = "transaction.already-committed"
	KindTransactionRollback       Kind = "transaction.rollback-requested"
	KindMigrationMissingName      Kind = "migration.missing-name"
	KindMigrationDuplicate        Kind = "migration.duplicate-registration"
	KindMigrationFailed           Kind = "migration.migration-failed"
	KindScopeUnknown              Kind = "scope.unknown-scope"
	KindCancelled                 Kind = "execution.cancelled"
)

// Error is the single error type every Cascade package boundary returns.
// It carries a closed Kind, an optional wrapped cause, and diagnostic
// fields useful for logging (SQL text, bound params, names).
type Error struct {
	Kind    Kind
	Message string
	Cause   error

	// SQL and Params are populated for execution.query-failed so the
	// caller retains the originating statement for diagnostics.
	SQL    string
	Params []any

	// Name is populated for configuration/migration errors that refer to
	// a data source, scope, or migration name.
	Name string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("cascade: %s: %s", e.Kind, e.Message)
	if e.Name != "" {
		msg += fmt.Sprintf(" (name=%q)", e.Name)
	}
	if e.SQL != "" {
		msg += fmt.Sprintf(" [sql=%q params=%v]", e.SQL, e.Params)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether err (or anything it wraps) is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

func newErr(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

func wrapErr(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

func newConfigError(kind Kind, name, msg string) *Error {
	return &Error{Kind: kind, Message: msg, Name: name}
}

// QueryError wraps a native execution failure with the rendered SQL and
// bound params, per spec.md §7: "execution errors surface to the caller
// with the originating SQL and params for diagnostics and are never
// silently swallowed."
func QueryError(cause error, sql string, params []any) *Error {
	kind := KindExecutionQueryFailed
	return &Error{
		Kind:    kind,
		Message: "query failed",
		Cause:   cause,
		SQL:     sql,
		Params:  params,
	}
}

// ConnectionError wraps a connect/disconnect failure under the given Kind
// (KindConnectionConnectFailed or KindConnectionDisconnectFail).
func ConnectionError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// TransactionError wraps a commit/rollback failure under kind.
func TransactionError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Cause: cause}
}

// NotConnectedError reports a CRUD call made before Connect succeeded
// (spec.md §3 Driver invariant: "before any CRUD call, isConnected must be
// true").
func NotConnectedError() *Error {
	return &Error{Kind: KindConnectionNotConnected, Message: "driver is not connected"}
}

// MigrationError wraps a migration failure with its name and direction.
func MigrationError(name, direction string, cause error) *Error {
	return &Error{
		Kind:    KindMigrationFailed,
		Message: fmt.Sprintf("migration %q failed during %s", name, direction),
		Cause:   cause,
		Name:    name,
	}
}
