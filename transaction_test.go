package cascade_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warlockjs/cascade"
)

func TestRunInTransactionCommitsOnSuccess(t *testing.T) {
	driver := &stubDriver{}

	err := cascade.RunInTransaction(context.Background(), driver, cascade.TxOptions{}, func(ctx context.Context) error {
		tx, ok := cascade.TransactionFromContext(ctx)
		assert.True(t, ok, "fn must observe the transaction installed on its context")
		assert.NotNil(t, tx)
		return nil
	})
	require.NoError(t, err)
}

func TestRunInTransactionRollsBackOnError(t *testing.T) {
	driver := &stubDriver{}
	boom := errors.New("boom")

	err := cascade.RunInTransaction(context.Background(), driver, cascade.TxOptions{}, func(ctx context.Context) error {
		return boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestRunInTransactionRecoversFromPanic(t *testing.T) {
	driver := &stubDriver{}

	err := cascade.RunInTransaction(context.Background(), driver, cascade.TxOptions{}, func(ctx context.Context) error {
		panic("unexpected")
	})
	require.Error(t, err)
	assert.True(t, cascade.Is(err, cascade.KindTransactionRollback))
}

func TestWithTransactionRoundTripsThroughContext(t *testing.T) {
	tx := &stubTransaction{}
	ctx := cascade.WithTransaction(context.Background(), tx)

	got, ok := cascade.TransactionFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, tx, got)
}

func TestTransactionFromContextAbsentByDefault(t *testing.T) {
	_, ok := cascade.TransactionFromContext(context.Background())
	assert.False(t, ok)
}
