package driverpg

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDDLExecutorExecRunsAgainstThePool(t *testing.T) {
	d, mock := newMockDriver(t)
	exec := &ddlExecutor{driver: d}

	mock.ExpectExec(exact(`CREATE TABLE "widgets" ("id" SERIAL)`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, exec.Exec(context.Background(), `CREATE TABLE "widgets" ("id" SERIAL)`))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDDLExecutorExecSkipsDatabaseInDryRun(t *testing.T) {
	d, mock := newMockDriver(t)
	d.cfg.DryRun = true
	exec := &ddlExecutor{driver: d}

	require.NoError(t, exec.Exec(context.Background(), `DROP TABLE "widgets"`))
	assert.NoError(t, mock.ExpectationsWereMet(), "dry-run DDL must not reach the database")
}

func TestDDLExecutorQueryScansRows(t *testing.T) {
	d, mock := newMockDriver(t)
	exec := &ddlExecutor{driver: d}

	mock.ExpectQuery(exact(`SELECT column_name FROM information_schema.columns`)).
		WillReturnRows(sqlmock.NewRows([]string{"column_name"}).AddRow("id").AddRow("name"))

	rows, err := exec.Query(context.Background(), `SELECT column_name FROM information_schema.columns`)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "id", rows[0]["column_name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrationDriverBlueprintRecordStoreAreWiredToThePool(t *testing.T) {
	d, mock := newMockDriver(t)

	require.NotNil(t, d.MigrationDriver())
	require.NotNil(t, d.Blueprint())
	store := d.RecordStore()
	require.NotNil(t, store)
	require.NoError(t, store.EnsureTable(context.Background()), "record-keeping table DDL is handled by MigrationDriver")
	require.NoError(t, mock.ExpectationsWereMet())
}
