package pg

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyInTx           = errors.New("already executing in existing db tx")
	ErrInsufficientIsolation = errors.New("existing db tx doesn't meet isolation level requirements")
)

type txContextKey struct{}

type txState struct {
	tx        *sqlx.Tx
	isolation sql.IsolationLevel
}

// ExecuteTxWithinCtx runs fn with a new transaction attached to the context it
// receives. Stores called with that context join the transaction through
// ExecuteInTx. The transaction commits when fn returns nil and rolls back
// otherwise.
func ExecuteTxWithinCtx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(context.Context) error) error {
	if _, ok := txFromCtx(ctx); ok {
		return ErrAlreadyInTx
	}

	isolation = withDefaultIsolation(isolation)
	return runInTx(ctx, db, isolation, func(tx *sqlx.Tx) error {
		return fn(context.WithValue(ctx, txContextKey{}, &txState{tx: tx, isolation: isolation}))
	})
}

// ExecuteInTx runs fn within the transaction attached to ctx, if any. Without
// one, fn gets its own transaction that is committed or rolled back here.
func ExecuteInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	isolation = withDefaultIsolation(isolation)

	state, ok := txFromCtx(ctx)
	if !ok {
		return runInTx(ctx, db, isolation, fn)
	}

	if state.isolation < isolation {
		return ErrInsufficientIsolation
	}
	return fn(state.tx)
}

func runInTx(ctx context.Context, db *sqlx.DB, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, &sql.TxOptions{Isolation: isolation})
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}

	if err := fn(tx); err != nil {
		// Rollback releases the connection back to the pool.
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrap(rollbackErr, "failed to rollback transaction")
		}
		return err
	}

	return tx.Commit()
}

func txFromCtx(ctx context.Context) (*txState, bool) {
	state, ok := ctx.Value(txContextKey{}).(*txState)
	return state, ok
}

func withDefaultIsolation(isolation sql.IsolationLevel) sql.IsolationLevel {
	if isolation == sql.LevelDefault {
		return sql.LevelReadCommitted
	}
	return isolation
}
