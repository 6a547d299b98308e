package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
)

func RunTests(t *testing.T, s account.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s account.Store){
		testRoundTrip,
		testCreateExactlyOnce,
		testOptimisticUpdate,
		testCommitIsAtomic,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s account.Store) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		_, err := s.Get(ctx, "address")
		assert.Equal(t, account.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		expected := &account.Record{
			Address:  "address",
			Owner:    "owner",
			Lamports: 953520,
			Data:     make([]byte, 9),
		}
		cloned := expected.Clone()

		require.NoError(t, s.Create(ctx, expected))
		assert.EqualValues(t, 1, expected.Version)
		assert.True(t, expected.Id > 0)
		assert.False(t, expected.CreatedAt.IsZero())

		actual, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assert.True(t, cloned.Equal(actual))
		assert.Equal(t, expected.Id, actual.Id)
		assert.EqualValues(t, 1, actual.Version)

		actual.Data[0] = 1
		actual.Lamports = 42
		require.NoError(t, s.Update(ctx, actual))
		assert.EqualValues(t, 2, actual.Version)

		updated, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assert.True(t, actual.Equal(updated))
		assert.EqualValues(t, 2, updated.Version)
		assert.Equal(t, expected.Id, updated.Id)

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testCreateExactlyOnce(t *testing.T, s account.Store) {
	t.Run("testCreateExactlyOnce", func(t *testing.T) {
		ctx := context.Background()

		assert.Error(t, s.Create(ctx, &account.Record{Owner: "owner"}))
		assert.Error(t, s.Create(ctx, &account.Record{Address: "address"}))
		assert.Error(t, s.Create(ctx, &account.Record{Address: "address", Owner: "owner", Version: 3}))

		require.NoError(t, s.Create(ctx, &account.Record{Address: "address", Owner: "owner", Lamports: 1}))
		assert.Equal(t, account.ErrAccountExists, s.Create(ctx, &account.Record{Address: "address", Owner: "other", Lamports: 2}))

		actual, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assert.Equal(t, "owner", actual.Owner)
		assert.EqualValues(t, 1, actual.Lamports)
	})
}

func testOptimisticUpdate(t *testing.T, s account.Store) {
	t.Run("testOptimisticUpdate", func(t *testing.T) {
		ctx := context.Background()

		assert.Equal(t, account.ErrAccountNotFound, s.Update(ctx, &account.Record{Address: "address", Owner: "owner", Version: 1}))

		require.NoError(t, s.Create(ctx, &account.Record{Address: "address", Owner: "owner", Data: []byte{0}}))

		first, err := s.Get(ctx, "address")
		require.NoError(t, err)
		second, err := s.Get(ctx, "address")
		require.NoError(t, err)

		first.Data = []byte{1}
		require.NoError(t, s.Update(ctx, first))

		second.Data = []byte{2}
		assert.Equal(t, account.ErrStaleVersion, s.Update(ctx, second))
		assert.EqualValues(t, 1, second.Version)

		actual, err := s.Get(ctx, "address")
		require.NoError(t, err)
		assert.Equal(t, []byte{1}, actual.Data)
	})
}

func testCommitIsAtomic(t *testing.T, s account.Store) {
	t.Run("testCommitIsAtomic", func(t *testing.T) {
		ctx := context.Background()

		payer := &account.Record{Address: "payer", Owner: "system", Lamports: 1_000_000_000}
		require.NoError(t, s.Create(ctx, payer))

		payer.Lamports -= 953520
		created := &account.Record{Address: "storage", Owner: "program", Lamports: 953520, Data: make([]byte, 9)}
		require.NoError(t, s.Commit(ctx, payer, created))
		assert.EqualValues(t, 2, payer.Version)
		assert.EqualValues(t, 1, created.Version)

		// The second create fails, so the payer debit must not land either.
		payer.Lamports -= 953520
		duplicate := &account.Record{Address: "storage", Owner: "program", Lamports: 953520, Data: make([]byte, 9)}
		assert.Equal(t, account.ErrAccountExists, s.Commit(ctx, payer, duplicate))
		assert.True(t, duplicate.IsNew())

		actual, err := s.Get(ctx, "payer")
		require.NoError(t, err)
		assert.EqualValues(t, 1_000_000_000-953520, actual.Lamports)
		assert.EqualValues(t, 2, actual.Version)

		// A stale record anywhere in the batch rejects the whole batch.
		stale := actual.Clone()
		stale.Version = 1
		other := &account.Record{Address: "other", Owner: "program"}
		assert.Equal(t, account.ErrStaleVersion, s.Commit(ctx, other, &stale))

		_, err = s.Get(ctx, "other")
		assert.Equal(t, account.ErrAccountNotFound, err)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}
