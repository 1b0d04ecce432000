package query_test

import (
	"testing"

	pg_query "github.com/pganalyze/pg_query_go/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade/dialect"
	"github.com/warlockjs/cascade/query"
)

func parse(t *testing.T, root query.RootSpec, build func(*query.Builder)) *query.Artifact {
	t.Helper()
	parser := query.NewRelationalParser(dialect.NewPostgres())
	dispatcher := query.NewRelationalDispatcher(parser, nil)
	b := query.New(root, dispatcher)
	build(b)
	art, err := b.Parse()
	require.NoError(t, err)
	return art
}

// requireValidSQL asserts sqlText parses as syntactically valid Postgres,
// catching rendering bugs a string-equality assertion alone would miss.
func requireValidSQL(t *testing.T, sqlText string) {
	t.Helper()
	_, err := pg_query.Parse(sqlText)
	require.NoError(t, err, "rendered SQL must be valid Postgres: %s", sqlText)
}

func TestRelationalParserWhereOrderLimit(t *testing.T) {
	art := parse(t, query.RootSpec{Table: "users"}, func(b *query.Builder) {
		b.Where("age", ">", 18).OrderBy("createdAt", "desc").Limit(10)
	})

	assert.Equal(t, `SELECT * FROM "users" WHERE "age" > $1 ORDER BY "createdAt" DESC LIMIT 10`, art.SQL)
	assert.Equal(t, []any{18}, art.Params)
	requireValidSQL(t, art.SQL)
}

func TestRelationalParserPlaceholdersIncreaseAcrossClauses(t *testing.T) {
	art := parse(t, query.RootSpec{Table: "orders"}, func(b *query.Builder) {
		b.Where("status", "=", "paid").
			WhereBetween("total", 10, 100).
			OrWhere("priority", "=", "high")
	})

	assert.Equal(t,
		`SELECT * FROM "orders" WHERE "status" = $1 AND "total" BETWEEN $2 AND $3 OR "priority" = $4`,
		art.SQL)
	assert.Equal(t, []any{"paid", 10, 100, "high"}, art.Params)
	requireValidSQL(t, art.SQL)
}

func TestRelationalParserJoinAndSelect(t *testing.T) {
	art := parse(t, query.RootSpec{Table: "posts"}, func(b *query.Builder) {
		b.Select("posts.id", "posts.title").
			JoinLeft("authors", "", "posts.authorId", "=", "id").
			Where("authors.active", "=", true)
	})

	assert.Contains(t, art.SQL, `LEFT JOIN "authors" ON "posts"."authorId" = "authors"."id"`)
	assert.Contains(t, art.SQL, `SELECT "posts"."id", "posts"."title"`)
	assert.Equal(t, []any{true}, art.Params)
	requireValidSQL(t, art.SQL)
}

func TestRelationalParserWhereInNegated(t *testing.T) {
	art := parse(t, query.RootSpec{Table: "users"}, func(b *query.Builder) {
		b.WhereNotIn("role", "banned", "suspended")
	})

	assert.Equal(t, `SELECT * FROM "users" WHERE "role" != ANY($1)`, art.SQL)
	assert.Equal(t, []any{[]any{"banned", "suspended"}}, art.Params)
	requireValidSQL(t, art.SQL)
}

func TestRelationalParserWhereNotIsUnsupported(t *testing.T) {
	parser := query.NewRelationalParser(dialect.NewPostgres())
	dispatcher := query.NewRelationalDispatcher(parser, nil)
	b := query.New(query.RootSpec{Table: "users"}, dispatcher)
	b.WhereNot("age", ">", 18)

	_, err := b.Parse()
	require.Error(t, err)
}

func TestRelationalParserRawWhereSubstitutesPlaceholders(t *testing.T) {
	art := parse(t, query.RootSpec{Table: "users"}, func(b *query.Builder) {
		b.WhereRaw("lower(email) = ?", "a@b.com").Where("active", "=", true)
	})

	assert.Equal(t, `SELECT * FROM "users" WHERE lower(email) = $1 AND "active" = $2`, art.SQL)
	assert.Equal(t, []any{"a@b.com", true}, art.Params)
	requireValidSQL(t, art.SQL)
}

func TestRelationalParserDistinctAndGroupHaving(t *testing.T) {
	art := parse(t, query.RootSpec{Table: "orders"}, func(b *query.Builder) {
		b.Distinct().GroupBy("customerId").HavingRaw("count(*) > ?", 1)
	})

	assert.Equal(t, `SELECT DISTINCT * FROM "orders" GROUP BY "customerId" HAVING count(*) > $1`, art.SQL)
	assert.Equal(t, []any{1}, art.Params)
	requireValidSQL(t, art.SQL)
}
