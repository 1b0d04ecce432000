package cascade_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warlockjs/cascade"
)

func TestIsMatchesWrappedErrorKind(t *testing.T) {
	cause := errors.New("connection reset")
	err := cascade.QueryError(cause, `SELECT * FROM "users"`, []any{1})

	wrapped := errors.New("context: " + err.Error())
	assert.False(t, cascade.Is(wrapped, cascade.KindExecutionQueryFailed), "a plain errors.New wrap without Unwrap must not match")
	assert.True(t, cascade.Is(err, cascade.KindExecutionQueryFailed))
	assert.False(t, cascade.Is(err, cascade.KindConnectionNotConnected))
}

func TestIsFollowsUnwrapChain(t *testing.T) {
	base := cascade.NotConnectedError()
	outer := fmt.Errorf("resolving driver: %w", base)

	assert.True(t, cascade.Is(outer, cascade.KindConnectionNotConnected))
}

func TestErrorMessageIncludesSQLAndParams(t *testing.T) {
	err := cascade.QueryError(errors.New("duplicate key"), `INSERT INTO "users" ("email") VALUES ($1)`, []any{"a@b.com"})

	msg := err.Error()
	assert.Contains(t, msg, `sql="INSERT INTO \"users\" (\"email\") VALUES ($1)"`)
	assert.Contains(t, msg, "duplicate key")
}

func TestQueryErrorUnwrapsToCause(t *testing.T) {
	cause := errors.New("duplicate key")
	err := cascade.QueryError(cause, "", nil)

	assert.ErrorIs(t, err, cause)
}
