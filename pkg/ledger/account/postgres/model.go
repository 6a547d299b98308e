package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/pda-provisioner/pkg/database/postgres"
	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
)

const (
	tableName = "ledger__core_account"

	allColumns = `id, address, owner, lamports, data, executable, version, created_at`
)

type model struct {
	Id sql.NullInt64 `db:"id"`

	Address    string `db:"address"`
	Owner      string `db:"owner"`
	Lamports   uint64 `db:"lamports"`
	Data       []byte `db:"data"`
	Executable bool   `db:"executable"`

	Version uint64 `db:"version"`

	CreatedAt time.Time `db:"created_at"`
}

func toModel(obj *account.Record) *model {
	data := obj.Data
	if data == nil {
		data = []byte{}
	}

	return &model{
		Id:         sql.NullInt64{Int64: int64(obj.Id), Valid: obj.Id > 0},
		Address:    obj.Address,
		Owner:      obj.Owner,
		Lamports:   obj.Lamports,
		Data:       data,
		Executable: obj.Executable,
		Version:    obj.Version,
		CreatedAt:  obj.CreatedAt,
	}
}

func fromModel(obj *model) *account.Record {
	return &account.Record{
		Id:         uint64(obj.Id.Int64),
		Address:    obj.Address,
		Owner:      obj.Owner,
		Lamports:   obj.Lamports,
		Data:       obj.Data,
		Executable: obj.Executable,
		Version:    obj.Version,
		CreatedAt:  obj.CreatedAt,
	}
}

func (m *model) dbCreate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `INSERT INTO ` + tableName + `
			(address, owner, lamports, data, executable, version, created_at)
			VALUES ($1, $2, $3, $4, $5, 1, $6)
			RETURNING ` + allColumns

		m.CreatedAt = time.Now()

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.Executable,
			m.CreatedAt.UTC(),
		).StructScan(m)

		return pgutil.CheckUniqueViolation(err, account.ErrAccountExists)
	})
}

func (m *model) dbUpdate(ctx context.Context, db *sqlx.DB) error {
	return pgutil.ExecuteInTx(ctx, db, sql.LevelDefault, func(tx *sqlx.Tx) error {
		query := `UPDATE ` + tableName + `
			SET owner = $2, lamports = $3, data = $4, executable = $5, version = version + 1
			WHERE address = $1 AND version = $6
			RETURNING ` + allColumns

		err := tx.QueryRowxContext(
			ctx,
			query,
			m.Address,
			m.Owner,
			m.Lamports,
			m.Data,
			m.Executable,
			m.Version,
		).StructScan(m)
		if !pgutil.IsNoRows(err) {
			return err
		}

		var exists bool
		existsQuery := `SELECT EXISTS (SELECT 1 FROM ` + tableName + ` WHERE address = $1)`
		if err := tx.GetContext(ctx, &exists, existsQuery, m.Address); err != nil {
			return err
		}

		if !exists {
			return account.ErrAccountNotFound
		}
		return account.ErrStaleVersion
	})
}

func dbGet(ctx context.Context, db *sqlx.DB, address string) (*model, error) {
	res := &model{}

	query := `SELECT ` + allColumns + ` FROM ` + tableName + `
		WHERE address = $1
		LIMIT 1`

	err := db.GetContext(ctx, res, query, address)
	if err != nil {
		return nil, pgutil.CheckNoRows(err, account.ErrAccountNotFound)
	}
	return res, nil
}

func dbCount(ctx context.Context, db *sqlx.DB) (uint64, error) {
	var res uint64

	query := `SELECT COUNT(*) FROM ` + tableName
	err := db.GetContext(ctx, &res, query)
	if err != nil {
		return 0, err
	}
	return res, nil
}
