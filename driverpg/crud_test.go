package driverpg

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDriver wires a Driver directly to a sqlmock-backed *sql.DB,
// bypassing Connect (which dials a real postgres DSN).
func newMockDriver(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	d := New(Config{})
	d.db = db
	d.connected = true
	return d, mock
}

func exact(sqlText string) string {
	return "^" + regexp.QuoteMeta(sqlText) + "$"
}

func TestDriverInsertRendersReturningStar(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectQuery(exact(`INSERT INTO "users" ("age", "name") VALUES ($1, $2) RETURNING *`)).
		WithArgs(30, "Ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "age"}).AddRow(1, "Ada", 30))

	got, err := d.Insert(context.Background(), "users", map[string]any{"name": "Ada", "age": 30})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverInsertDropsNilIdForIdentityColumn(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectQuery(exact(`INSERT INTO "users" ("name") VALUES ($1) RETURNING *`)).
		WithArgs("Ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "Ada"))

	_, err := d.Insert(context.Background(), "users", map[string]any{"id": nil, "name": "Ada"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverUpdateScopesByCtidLimitOne(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectExec(exact(`UPDATE "users" SET "name" = $1 WHERE ctid IN (SELECT ctid FROM "users" WHERE "id" = $2 LIMIT 1)`)).
		WithArgs("Grace", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := d.Update(context.Background(), "users",
		map[string]any{"id": 1}, map[string]any{"$set": map[string]any{"name": "Grace"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverUpdateManyAppliesIncrementAndUnset(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectExec(exact(`UPDATE "orders" SET "shipped" = NULL, "total" = COALESCE("total",0) + $1 WHERE "status" = $2`)).
		WithArgs(5, "pending").
		WillReturnResult(sqlmock.NewResult(0, 3))

	affected, err := d.UpdateMany(context.Background(), "orders",
		map[string]any{"status": "pending"},
		map[string]any{"$inc": map[string]any{"total": 5}, "$unset": map[string]any{"shipped": ""}})
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverUpdateManyRejectsEmptyUpdateDocument(t *testing.T) {
	d, _ := newMockDriver(t)

	_, err := d.UpdateMany(context.Background(), "orders", map[string]any{"id": 1}, map[string]any{})
	require.Error(t, err)
}

func TestDriverDeleteScopesByCtidLimitOne(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectExec(exact(`DELETE FROM "users" WHERE ctid IN (SELECT ctid FROM "users" WHERE "id" = $1 LIMIT 1)`)).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := d.Delete(context.Background(), "users", map[string]any{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverUpsertInsertsWhenNoExistingRow(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectQuery(exact(`SELECT * FROM "users" WHERE "email" = $1 LIMIT 1`)).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	mock.ExpectQuery(exact(`INSERT INTO "users" ("email", "name") VALUES ($1, $2) RETURNING *`)).
		WithArgs("ada@example.com", "Ada").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).AddRow(1, "ada@example.com", "Ada"))

	got, err := d.Upsert(context.Background(), "users",
		map[string]any{"email": "ada@example.com"}, map[string]any{"name": "Ada"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", got["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverUpsertUpdatesWhenRowExists(t *testing.T) {
	d, mock := newMockDriver(t)

	mock.ExpectQuery(exact(`SELECT * FROM "users" WHERE "email" = $1 LIMIT 1`)).
		WithArgs("ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(1, "ada@example.com"))

	mock.ExpectQuery(exact(`UPDATE "users" SET "name" = $1 WHERE "email" = $2 RETURNING *`)).
		WithArgs("Ada Lovelace", "ada@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name"}).AddRow(1, "ada@example.com", "Ada Lovelace"))

	got, err := d.Upsert(context.Background(), "users",
		map[string]any{"email": "ada@example.com"}, map[string]any{"name": "Ada Lovelace"})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", got["name"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverTruncateTable(t *testing.T) {
	d, mock := newMockDriver(t)
	mock.ExpectExec(exact(`TRUNCATE TABLE "sessions"`)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, d.TruncateTable(context.Background(), "sessions"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDriverExecDryRunNeverTouchesDatabase(t *testing.T) {
	d, mock := newMockDriver(t)
	d.cfg.DryRun = true

	affected, err := d.Exec(context.Background(), `DELETE FROM "users"`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet(), "no statement should reach the mock in dry-run mode")
}

func TestDriverQueryBuilderUsesPostgresDialect(t *testing.T) {
	d, _ := newMockDriver(t)
	b := d.QueryBuilder("users")
	art, err := b.Where("id", "=", 1).Parse()
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "users" WHERE "id" = $1`, art.SQL)
}
