package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
	"github.com/code-payments/pda-provisioner/pkg/ledger/account/tests"
)

func TestAccountBadgerStore(t *testing.T) {
	db, err := Open("")
	require.NoError(t, err)
	defer db.Close()

	testStore := New(db)
	teardown := func() {
		require.NoError(t, testStore.(*store).reset())
	}
	tests.RunTests(t, testStore, teardown)
}

func TestAccountBadgerStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	db, err := Open(dir)
	require.NoError(t, err)

	record := &account.Record{Address: "address", Owner: "owner", Lamports: 1, Data: []byte{1, 2}}
	require.NoError(t, New(db).Create(ctx, record))
	require.NoError(t, db.Close())

	db, err = Open(dir)
	require.NoError(t, err)
	defer db.Close()

	actual, err := New(db).Get(ctx, "address")
	require.NoError(t, err)
	assert.True(t, record.Equal(actual))
	assert.Equal(t, record.Id, actual.Id)
	assert.EqualValues(t, 1, actual.Version)

	// Ids keep increasing across restarts.
	other := &account.Record{Address: "other", Owner: "owner"}
	require.NoError(t, New(db).Create(ctx, other))
	assert.Greater(t, other.Id, record.Id)
}
