package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	pgutil "github.com/code-payments/pda-provisioner/pkg/database/postgres"
	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
)

type store struct {
	db *sqlx.DB
}

// New returns a new postgres account.Store
func New(db *sql.DB) account.Store {
	return &store{
		db: sqlx.NewDb(db, "pgx"),
	}
}

// Get implements account.Store.Get
func (s *store) Get(ctx context.Context, address string) (*account.Record, error) {
	model, err := dbGet(ctx, s.db, address)
	if err != nil {
		return nil, err
	}
	return fromModel(model), nil
}

// Create implements account.Store.Create
func (s *store) Create(ctx context.Context, record *account.Record) error {
	if err := record.ValidateNew(); err != nil {
		return err
	}

	model := toModel(record)
	if err := model.dbCreate(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// Update implements account.Store.Update
func (s *store) Update(ctx context.Context, record *account.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	model := toModel(record)
	if err := model.dbUpdate(ctx, s.db); err != nil {
		return err
	}

	fromModel(model).CopyTo(record)
	return nil
}

// Commit implements account.Store.Commit
func (s *store) Commit(ctx context.Context, records ...*account.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	models := make([]*model, len(records))
	err := pgutil.ExecuteTxWithinCtx(ctx, s.db, sql.LevelDefault, func(ctx context.Context) error {
		for i, record := range records {
			models[i] = toModel(record)

			var err error
			if record.IsNew() {
				err = models[i].dbCreate(ctx, s.db)
			} else {
				err = models[i].dbUpdate(ctx, s.db)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if pgutil.IsSerializationFailure(err) {
		return account.ErrStaleVersion
	} else if err != nil {
		return err
	}

	for i, record := range records {
		fromModel(models[i]).CopyTo(record)
	}
	return nil
}

// Count implements account.Store.Count
func (s *store) Count(ctx context.Context) (uint64, error) {
	return dbCount(ctx, s.db)
}
