package pg

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorHelpers(t *testing.T) {
	errOut := errors.New("mapped")
	other := errors.New("other")

	assert.True(t, IsNoRows(sql.ErrNoRows))
	assert.True(t, IsNoRows(errors.Wrap(sql.ErrNoRows, "query")))
	assert.False(t, IsNoRows(nil))
	assert.Equal(t, errOut, CheckNoRows(sql.ErrNoRows, errOut))
	assert.Equal(t, other, CheckNoRows(other, errOut))

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.Equal(t, errOut, CheckUniqueViolation(unique, errOut))
	assert.Equal(t, errOut, CheckUniqueViolation(errors.Wrap(unique, "insert"), errOut))
	assert.Equal(t, other, CheckUniqueViolation(other, errOut))
	assert.NoError(t, CheckUniqueViolation(nil, errOut))

	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: pgerrcode.SerializationFailure}))
	assert.True(t, IsSerializationFailure(&pgconn.PgError{Code: pgerrcode.DeadlockDetected}))
	assert.False(t, IsSerializationFailure(unique))
	assert.False(t, IsSerializationFailure(nil))
}
