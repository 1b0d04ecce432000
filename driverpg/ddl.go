package driverpg

import (
	"context"
	"database/sql"

	"github.com/warlockjs/cascade"
	"github.com/warlockjs/cascade/migrate"
)

// ddlExecutor adapts Driver to migrate.Executor: DDL text carries inlined
// literals/identifiers rather than bind params, so this seam is narrower
// than query.SQLExecutor (spec.md §4.5's atoms render complete statements).
type ddlExecutor struct {
	driver *Driver
}

func (e *ddlExecutor) Exec(ctx context.Context, sqlText string) error {
	link, err := e.driver.link(ctx)
	if err != nil {
		return err
	}
	if e.driver.cfg.DryRun {
		if e.driver.logger != nil {
			e.driver.logger.Info("cascade.migrate.dryrun", "sql", sqlText)
		}
		return nil
	}
	if e.driver.logger != nil {
		e.driver.logger.Debug("cascade.migrate.exec", "sql", sqlText)
	}
	_, err = link.ExecContext(ctx, sqlText)
	if err != nil {
		return cascade.QueryError(err, sqlText, nil)
	}
	return nil
}

func (e *ddlExecutor) Query(ctx context.Context, sqlText string) ([]map[string]any, error) {
	link, err := e.driver.link(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := link.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, cascade.QueryError(err, sqlText, nil)
	}
	defer rows.Close()
	scanned, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(scanned))
	for i, r := range scanned {
		out[i] = r
	}
	return out, nil
}

// Begin opens a *sql.Tx for transactional DDL, satisfying migrate.Transactor
// so MigrationDriver.SupportsTransactions()/BeginTx work against this
// executor.
func (e *ddlExecutor) Begin(ctx context.Context) (migrate.TxHandle, error) {
	pool, err := e.driver.pool()
	if err != nil {
		return nil, err
	}
	tx, err := pool.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return nil, cascade.ConnectionError(cascade.KindConnectionConnectFailed, "failed to begin DDL transaction", err)
	}
	return &ddlTxHandle{tx: tx, driver: e.driver}, nil
}

// ddlTxHandle is the migrate.TxHandle a Transactor.Begin returns: an
// Executor bound to one open *sql.Tx, plus Commit/Rollback.
type ddlTxHandle struct {
	tx     *sql.Tx
	driver *Driver
}

func (h *ddlTxHandle) Exec(ctx context.Context, sqlText string) error {
	if _, err := h.tx.ExecContext(ctx, sqlText); err != nil {
		return cascade.QueryError(err, sqlText, nil)
	}
	return nil
}

func (h *ddlTxHandle) Query(ctx context.Context, sqlText string) ([]map[string]any, error) {
	rows, err := h.tx.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, cascade.QueryError(err, sqlText, nil)
	}
	defer rows.Close()
	scanned, err := scanRows(rows)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]any, len(scanned))
	for i, r := range scanned {
		out[i] = r
	}
	return out, nil
}

func (h *ddlTxHandle) Commit(ctx context.Context) error   { return h.tx.Commit() }
func (h *ddlTxHandle) Rollback(ctx context.Context) error { return h.tx.Rollback() }
