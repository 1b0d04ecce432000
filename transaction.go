package cascade

import (
	"context"
	"fmt"
)

// txContextKey is the context.Context key under which the active
// Transaction for a logical call chain is stored. Go has no async-local
// storage; ctx propagation is the idiomatic substitute for the ambient
// task-local transaction scope spec.md describes, since every driver call
// already threads a context.Context.
type txContextKey struct{}

// WithTransaction returns a copy of ctx carrying tx, so driver calls made
// with the returned context observe the transaction's uncommitted writes
// instead of going through the pool.
func WithTransaction(ctx context.Context, tx Transaction) context.Context {
	return context.WithValue(ctx, txContextKey{}, tx)
}

// TransactionFromContext returns the Transaction installed by WithTransaction,
// if any.
func TransactionFromContext(ctx context.Context) (Transaction, bool) {
	tx, ok := ctx.Value(txContextKey{}).(Transaction)
	return tx, ok
}

// RunInTransaction opens a transaction on driver, installs it on ctx for the
// duration of fn, and commits or rolls back depending on fn's outcome: a
// panic inside fn is recovered and treated as an error, rolling back before
// the panic value is re-surfaced as err.
func RunInTransaction(ctx context.Context, driver Driver, opts TxOptions, fn func(ctx context.Context) error) (err error) {
	tx, err := driver.BeginTransaction(ctx, opts)
	if err != nil {
		return err
	}
	txCtx := WithTransaction(ctx, tx)

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			err = wrapErr(KindTransactionRollback, fmt.Sprintf("transaction panicked: %v", r), nil)
			return
		}
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				err = wrapErr(KindTransactionRollback, "rollback failed after transaction error", rbErr)
			}
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(txCtx)
	return
}
