package badger

import (
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"

	"github.com/code-payments/pda-provisioner/pkg/ledger/account"
)

type store struct {
	db *badger.DB
}

// New returns a new badger backed account.Store
func New(db *badger.DB) account.Store {
	return &store{
		db: db,
	}
}

// Open opens a badger database at dir. An empty dir keeps the database in
// memory.
func Open(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if len(dir) == 0 {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "error opening badger database")
	}
	return db, nil
}

// Get implements account.Store.Get
func (s *store) Get(_ context.Context, address string) (*account.Record, error) {
	var res *account.Record
	err := s.db.View(func(txn *badger.Txn) error {
		m, err := dbGet(txn, address)
		if err != nil {
			return err
		}
		res = fromModel(m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Create implements account.Store.Create
func (s *store) Create(ctx context.Context, record *account.Record) error {
	if err := record.ValidateNew(); err != nil {
		return err
	}
	return s.Commit(ctx, record)
}

// Update implements account.Store.Update
func (s *store) Update(ctx context.Context, record *account.Record) error {
	if err := record.Validate(); err != nil {
		return err
	}

	if record.IsNew() {
		err := s.db.View(func(txn *badger.Txn) error {
			_, err := dbGet(txn, record.Address)
			return err
		})
		if err != nil {
			return err
		}
		return account.ErrStaleVersion
	}

	return s.Commit(ctx, record)
}

// Commit implements account.Store.Commit
func (s *store) Commit(_ context.Context, records ...*account.Record) error {
	for _, record := range records {
		if err := record.Validate(); err != nil {
			return err
		}
	}

	models := make([]*model, len(records))
	err := s.db.Update(func(txn *badger.Txn) error {
		seen := make(map[string]struct{})
		for i, record := range records {
			if _, ok := seen[record.Address]; ok {
				return account.ErrStaleVersion
			}
			seen[record.Address] = struct{}{}

			models[i] = toModel(record)

			var err error
			if record.IsNew() {
				err = models[i].dbCreate(txn)
			} else {
				err = models[i].dbUpdate(txn)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err == badger.ErrConflict {
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
func (s *store) Count(_ context.Context) (uint64, error) {
	var count uint64
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		count, err = dbCount(txn)
		return err
	})
	return count, err
}

func (s *store) reset() error {
	return s.db.DropAll()
}
