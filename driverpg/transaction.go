package driverpg

import (
	"context"
	"database/sql"
	"strings"

	"github.com/warlockjs/cascade"
)

// Transaction wraps one open *sql.Tx, satisfying cascade.Transaction. It is
// installed on a context by cascade.RunInTransaction / cascade.WithTransaction
// so driver.link(ctx) routes subsequent calls on the same task to tx
// instead of the pool (spec.md §4.8 "acquires a dedicated client").
type Transaction struct {
	tx     *sql.Tx
	driver *Driver
}

// BeginTransaction acquires a dedicated connection and issues BEGIN with
// the requested isolation level / read-only / deferrable modifiers,
// mirroring the teacher's Core.Begin, generalized to spec.md §4.8's
// TxOptions surface.
func (d *Driver) BeginTransaction(ctx context.Context, opts cascade.TxOptions) (cascade.Transaction, error) {
	pool, err := d.pool()
	if err != nil {
		return nil, err
	}

	sqlOpts := &sql.TxOptions{ReadOnly: opts.ReadOnly}
	switch strings.ToLower(opts.IsolationLevel) {
	case "read committed":
		sqlOpts.Isolation = sql.LevelReadCommitted
	case "repeatable read":
		sqlOpts.Isolation = sql.LevelRepeatableRead
	case "serializable":
		sqlOpts.Isolation = sql.LevelSerializable
	}

	tx, err := pool.BeginTx(ctx, sqlOpts)
	if err != nil {
		return nil, cascade.ConnectionError(cascade.KindConnectionConnectFailed, "failed to begin transaction", err)
	}

	if opts.Deferrable && opts.ReadOnly {
		if _, err := tx.ExecContext(ctx, "SET TRANSACTION DEFERRABLE"); err != nil {
			_ = tx.Rollback()
			return nil, cascade.ConnectionError(cascade.KindConnectionConnectFailed, "failed to set DEFERRABLE", err)
		}
	}

	return &Transaction{tx: tx, driver: d}, nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.tx.Commit(); err != nil {
		return cascade.TransactionError(cascade.KindTransactionAlreadyDone, "commit failed", err)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if err := t.tx.Rollback(); err != nil {
		return cascade.TransactionError(cascade.KindTransactionRollback, "rollback failed", err)
	}
	return nil
}
