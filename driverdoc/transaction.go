package driverdoc

import (
	"context"

	"github.com/warlockjs/cascade"
)

// Transaction wraps one open NativeSession, satisfying cascade.Transaction.
// The document driver does not consult this session automatically the way
// driverpg.Driver.link does (CRUD calls here go straight to client); a
// NativeClient that wants session-scoped writes threads ctx through to its
// own session lookup, the same seam cascade.WithTransaction installs on.
type Transaction struct {
	session NativeSession
}

// BeginTransaction opens a NativeSession, the document engine's multi-
// document ACID transaction (spec.md §4.8).
func (d *Driver) BeginTransaction(ctx context.Context, opts cascade.TxOptions) (cascade.Transaction, error) {
	if err := d.requireConnected(); err != nil {
		return nil, err
	}
	session, err := d.client.StartSession(ctx)
	if err != nil {
		return nil, cascade.ConnectionError(cascade.KindConnectionConnectFailed, "failed to start native session", err)
	}
	return &Transaction{session: session}, nil
}

func (t *Transaction) Commit(ctx context.Context) error {
	if err := t.session.Commit(ctx); err != nil {
		return cascade.TransactionError(cascade.KindTransactionAlreadyDone, "commit failed", err)
	}
	return nil
}

func (t *Transaction) Rollback(ctx context.Context) error {
	if err := t.session.Abort(ctx); err != nil {
		return cascade.TransactionError(cascade.KindTransactionRollback, "rollback failed", err)
	}
	return nil
}
