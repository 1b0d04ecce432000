package driverpg

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade"
)

func TestBeginTransactionCommit(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := d.BeginTransaction(context.Background(), cascade.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginTransactionRollback(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	tx, err := d.BeginTransaction(context.Background(), cascade.TxOptions{ReadOnly: true})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginTransactionSetsDeferrableForReadOnly(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectBegin()
	mock.ExpectExec(exact("SET TRANSACTION DEFERRABLE")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	tx, err := d.BeginTransaction(context.Background(), cascade.TxOptions{ReadOnly: true, Deferrable: true})
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransactionQueriesRunOnTheSameConnection(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectBegin()
	mock.ExpectQuery(exact(`SELECT * FROM "users" WHERE "id" = $1`)).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	tx, err := d.BeginTransaction(context.Background(), cascade.TxOptions{})
	require.NoError(t, err)

	pgtx := tx.(*Transaction)
	ctx := cascade.WithTransaction(context.Background(), pgtx)
	rows, err := d.Query(ctx, `SELECT * FROM "users" WHERE "id" = $1`, []any{1})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, tx.Commit(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
