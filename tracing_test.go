package cascade_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/warlockjs/cascade"
)

func TestSQLSpanAttrsCarriesSQLParamCountAndGroup(t *testing.T) {
	attrs := cascade.SQLSpanAttrs(`SELECT * FROM "users"`, 2, "primary")
	assert.Len(t, attrs, 3)
	assert.Equal(t, `SELECT * FROM "users"`, attrs[0].Value.AsString())
	assert.Equal(t, int64(2), attrs[1].Value.AsInt64())
	assert.Equal(t, "primary", attrs[2].Value.AsString())
}

func TestStartDriverSpanEndIsSafeWithAndWithoutError(t *testing.T) {
	_, end := cascade.StartDriverSpan(context.Background(), "query", cascade.SQLSpanAttrs("SELECT 1", 0, "")...)
	assert.NotPanics(t, func() { end(nil) })

	_, end2 := cascade.StartDriverSpan(context.Background(), "exec", cascade.SQLSpanAttrs("DELETE", 0, "")...)
	assert.NotPanics(t, func() { end2(errors.New("boom")) })
}
