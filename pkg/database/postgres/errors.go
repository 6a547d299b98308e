package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows returns outErr when inErr reports an empty result set, and inErr
// otherwise.
func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// CheckUniqueViolation returns outErr when inErr is a unique constraint
// violation, and inErr otherwise.
func CheckUniqueViolation(inErr, outErr error) error {
	if hasCode(inErr, pgerrcode.UniqueViolation) {
		return outErr
	}
	return inErr
}

// IsSerializationFailure reports whether a transaction lost a race with a
// concurrent one and may be retried.
func IsSerializationFailure(err error) bool {
	return hasCode(err, pgerrcode.SerializationFailure) || hasCode(err, pgerrcode.DeadlockDetected)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
