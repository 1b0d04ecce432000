package dialect_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warlockjs/cascade/dialect"
)

func TestPostgresPlaceholderIsOneIndexed(t *testing.T) {
	p := dialect.NewPostgres()
	assert.Equal(t, "$1", p.Placeholder(1))
	assert.Equal(t, "$12", p.Placeholder(12))
}

func TestPostgresQuoteIdentifierHandlesDottedAndEmbeddedQuotes(t *testing.T) {
	p := dialect.NewPostgres()
	assert.Equal(t, `"users"`, p.QuoteIdentifier("users"))
	assert.Equal(t, `"users"."name"`, p.QuoteIdentifier("users.name"))
	assert.Equal(t, `"weird""name"`, p.QuoteIdentifier(`weird"name`))
}

func TestPostgresQuoteIdentifierIsIdempotentOnReQuote(t *testing.T) {
	p := dialect.NewPostgres()
	once := p.QuoteIdentifier("name")
	twice := p.QuoteIdentifier(once)
	// Re-quoting an already-quoted identifier must not silently collapse
	// the outer quotes; the escaped inner quotes round-trip back out.
	assert.Equal(t, `"""name"""`, twice)
}

func TestPostgresLimitOffsetRendering(t *testing.T) {
	p := dialect.NewPostgres()
	ten, five := 10, 5
	assert.Equal(t, "", p.LimitOffset(nil, nil))
	assert.Equal(t, " LIMIT 10", p.LimitOffset(&ten, nil))
	assert.Equal(t, " LIMIT 10 OFFSET 5", p.LimitOffset(&ten, &five))
	assert.Equal(t, " OFFSET 5", p.LimitOffset(nil, &five))
}

func TestPostgresLikePatternEscapesWildcards(t *testing.T) {
	p := dialect.NewPostgres()

	clause := p.LikePattern("50%_off", false)
	assert.Equal(t, "LIKE", clause.Operator)
	assert.Equal(t, `50\%\_off`, clause.Pattern)

	ci := p.LikePattern("Ada", true)
	assert.Equal(t, "ILIKE", ci.Operator)
}

func TestPostgresJSONExtractUsesTextAccessorForLeaf(t *testing.T) {
	p := dialect.NewPostgres()
	assert.Equal(t, `"meta"->>'name'`, p.JSONExtract("meta", []string{"name"}))
	assert.Equal(t, `"meta"->'address'->>'city'`, p.JSONExtract("meta", []string{"address", "city"}))
	assert.Equal(t, `"meta"`, p.JSONExtract("meta", nil))
}

func TestPostgresGetSQLTypeAppliesDefaults(t *testing.T) {
	p := dialect.NewPostgres()

	assert.Equal(t, "VARCHAR(255)", p.GetSQLType(dialect.String, dialect.TypeOptions{}))
	assert.Equal(t, "VARCHAR(64)", p.GetSQLType(dialect.String, dialect.TypeOptions{Length: 64}))
	assert.Equal(t, "DECIMAL(10,2)", p.GetSQLType(dialect.Decimal, dialect.TypeOptions{Scale: 2}))
	assert.Equal(t, "vector(1536)", p.GetSQLType(dialect.Vector, dialect.TypeOptions{}))
	assert.Equal(t, "vector(384)", p.GetSQLType(dialect.Vector, dialect.TypeOptions{Dimensions: 384}))
	assert.Equal(t, "JSONB", p.GetSQLType(dialect.JSON, dialect.TypeOptions{}))
	assert.Equal(t, "TIMESTAMP WITH TIME ZONE", p.GetSQLType(dialect.Timestamp, dialect.TypeOptions{}))
}
